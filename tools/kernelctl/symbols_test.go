package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testBinary(t *testing.T) string {
	t.Helper()

	if runtime.GOOS != "linux" {
		t.Skip("test requires an ELF test binary")
	}

	path, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveSymbols(t *testing.T) {
	img := testBinary(t)

	entry, symbols, err := resolveSymbols(img, []string{"runtime.main", "runtime.goexit"})
	if err != nil {
		t.Fatal(err)
	}

	if entry == 0 {
		t.Error("expected a non-zero entry point")
	}

	for _, sym := range symbols {
		if sym.addr == 0 {
			t.Errorf("expected %q to be resolved", sym.name)
		}
	}

	var buf bytes.Buffer
	printSymbols(&buf, entry, symbols)
	if exp, got := 3, strings.Count(buf.String(), "\n"); got != exp {
		t.Errorf("expected %d output lines; got %d:\n%s", exp, got, buf.String())
	}
}

func TestResolveSymbolsErrors(t *testing.T) {
	img := testBinary(t)

	if _, _, err := resolveSymbols(img, []string{"runtime.main", "kmain.missingSymbol"}); err == nil || !strings.Contains(err.Error(), "kmain.missingSymbol") {
		t.Errorf("expected an error naming the missing symbol; got %v", err)
	}

	notELF := filepath.Join(t.TempDir(), "kernel.bin")
	if err := os.WriteFile(notELF, []byte("not an elf image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := resolveSymbols(notELF, requiredSymbols); err == nil {
		t.Error("expected an error for a file that is not an ELF image")
	}
}
