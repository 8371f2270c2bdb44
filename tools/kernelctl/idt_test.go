package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
	"github.com/cyberphantom52/MoonlightOS/kernel/irq"
)

// columns returns the fields at the end of a dump line, after the vector
// name which may itself contain blanks.
func columns(line string) []string {
	fields := strings.Fields(line)
	return fields[len(fields)-6:]
}

func TestDumpTable(t *testing.T) {
	table, err := buildTable(syntheticEntryPoints{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	vectors := []gate.Vector{0, 3, 8, 255}
	if err := dumpTable(&buf, table, vectors); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if exp, got := len(vectors)+1, len(lines); got != exp {
		t.Fatalf("expected %d lines; got %d:\n%s", exp, got, buf.String())
	}

	exp := [][]string{
		{"0x08", "interrupt", "0", "0", "0xffff800000100000", "00000000ffff8000:00108e0000080000"},
		{"0x08", "interrupt", "3", "0", "0xffff800000100030", "00000000ffff8000:0010ee0000080030"},
		{"0x08", "interrupt", "0", "1", "0xffff800000100080", "00000000ffff8000:00108e0100080080"},
		{"0x08", "interrupt", "0", "0", "0xffff800000100ff0", "00000000ffff8000:00108e0000080ff0"},
	}

	for i, line := range lines[1:] {
		if diff := cmp.Diff(exp[i], columns(line)); diff != "" {
			t.Errorf("unexpected columns for vector %d (-want +got):\n%s", vectors[i], diff)
		}
	}

	if !strings.HasPrefix(lines[3], "8 ") || !strings.Contains(lines[3], "double fault") {
		t.Errorf("expected vector 8 to be listed as a double fault; got %q", lines[3])
	}
}

func TestBuildTableWithTrampolines(t *testing.T) {
	tramp := irq.NewTrampolines()
	table, err := buildTable(tramp)
	if err != nil {
		t.Fatal(err)
	}

	for v := 0; v < gate.NumEntries; v++ {
		exp, ok := tramp.EntryPoint(gate.Vector(v))
		if !ok {
			exp = tramp.CatchAll()
		}

		if got := table.Entry(gate.Vector(v)).Target(); got != exp {
			t.Errorf("expected vector %d to point to 0x%x; got 0x%x", v, exp, got)
		}
	}
}

func TestParseVectors(t *testing.T) {
	specs := []struct {
		args   []string
		all    bool
		expLen int
		expErr bool
	}{
		{nil, false, 48, false},
		{nil, true, 256, false},
		{[]string{"3", "14"}, false, 2, false},
		{[]string{"256"}, false, 0, true},
		{[]string{"abc"}, false, 0, true},
	}

	for specIndex, spec := range specs {
		vectors, err := parseVectors(spec.args, spec.all)
		if gotErr := err != nil; gotErr != spec.expErr {
			t.Errorf("[spec %d] expected error %t; got %v", specIndex, spec.expErr, err)
			continue
		}

		if got := len(vectors); got != spec.expLen {
			t.Errorf("[spec %d] expected %d vectors; got %d", specIndex, spec.expLen, got)
		}
	}

	vectors, _ := parseVectors([]string{"3", "14"}, false)
	if diff := cmp.Diff([]gate.Vector{3, 14}, vectors); diff != "" {
		t.Errorf("unexpected vectors (-want +got):\n%s", diff)
	}
}
