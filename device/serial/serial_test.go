package serial

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type portOp struct {
	Write bool
	Port  uint16
	Val   uint8
}

// fakeUART emulates the loopback and transmit status behavior of a 16550.
type fakeUART struct {
	ops      []portOp
	loopback uint8
	broken   bool
	busy     int
	tx       []byte
}

func (f *fakeUART) PortReadByte(port uint16) uint8 {
	var val uint8
	switch port {
	case COM1 + regData:
		val = f.loopback
		if f.broken {
			val = 0
		}
	case COM1 + regLineStatus:
		if f.busy > 0 {
			f.busy--
		} else {
			val = lineStatusTxEmpty
		}
	}
	f.ops = append(f.ops, portOp{Port: port, Val: val})
	return val
}

func (f *fakeUART) PortWriteByte(port uint16, val uint8) {
	f.ops = append(f.ops, portOp{Write: true, Port: port, Val: val})
	if port == COM1+regData {
		f.loopback = val
		f.tx = append(f.tx, val)
	}
}

func TestDriverInit(t *testing.T) {
	uart := &fakeUART{}
	p := New(COM1, uart)

	var buf bytes.Buffer
	if err := p.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	exp := []portOp{
		{true, 0x3f9, 0x00},
		{true, 0x3fb, 0x80},
		{true, 0x3f8, 0x03},
		{true, 0x3f9, 0x00},
		{true, 0x3fb, 0x03},
		{true, 0x3fa, 0xc7},
		{true, 0x3fc, 0x0b},
		{true, 0x3fc, 0x1e},
		{true, 0x3f8, 0xae},
		{false, 0x3f8, 0xae},
		{true, 0x3fc, 0x0f},
	}
	if diff := cmp.Diff(exp, uart.ops); diff != "" {
		t.Fatalf("unexpected init sequence (-want +got):\n%s", diff)
	}

	if exp := "port 0x3f8, "; buf.String() != exp {
		t.Fatalf("expected init output %q; got %q", exp, buf.String())
	}
}

func TestDriverInitLoopbackFailure(t *testing.T) {
	p := New(COM1, &fakeUART{broken: true})

	if err := p.DriverInit(&bytes.Buffer{}); err != errFaultyPort {
		t.Fatalf("expected error %v; got %v", errFaultyPort, err)
	}
}

func TestWrite(t *testing.T) {
	uart := &fakeUART{busy: 3}
	p := New(COM1, uart)

	n, err := p.Write([]byte("ok\n"))
	if err != nil || n != 3 {
		t.Fatalf("expected to write 3 bytes; wrote %d (err: %v)", n, err)
	}

	if got := string(uart.tx); got != "ok\n" {
		t.Fatalf("expected transmitted bytes %q; got %q", "ok\n", got)
	}

	if uart.busy != 0 {
		t.Fatal("expected Write to wait for the transmitter to become ready")
	}
}
