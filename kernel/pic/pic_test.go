package pic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type portOp struct {
	Write bool
	Port  uint16
	Val   uint8
}

// fakePorts records port accesses and serves reads from a register map.
// Writes to the data ports update the map the way the mask registers do;
// command port reads return whatever the test stored in the map.
type fakePorts struct {
	ops  []portOp
	regs map[uint16]uint8
}

func newFakePorts() *fakePorts {
	return &fakePorts{regs: make(map[uint16]uint8)}
}

func (f *fakePorts) PortReadByte(port uint16) uint8 {
	val := f.regs[port]
	f.ops = append(f.ops, portOp{Port: port, Val: val})
	return val
}

func (f *fakePorts) PortWriteByte(port uint16, val uint8) {
	f.ops = append(f.ops, portOp{Write: true, Port: port, Val: val})
	if port == masterDataPort || port == slaveDataPort {
		f.regs[port] = val
	}
}

func (f *fakePorts) writes() []portOp {
	var out []portOp
	for _, op := range f.ops {
		if op.Write {
			out = append(out, op)
		}
	}
	return out
}

func w(port uint16, val uint8) portOp { return portOp{Write: true, Port: port, Val: val} }
func r(port uint16, val uint8) portOp { return portOp{Port: port, Val: val} }

func TestInitialize(t *testing.T) {
	ports := newFakePorts()
	ports.regs[0x21] = 0xb8
	ports.regs[0xa1] = 0x8e

	p := New(ports)
	p.Initialize(32, 40)

	exp := []portOp{
		r(0x21, 0xb8), r(0xa1, 0x8e),
		w(0x20, 0x11), w(0x80, 0),
		w(0xa0, 0x11), w(0x80, 0),
		w(0x21, 32), w(0x80, 0),
		w(0xa1, 40), w(0x80, 0),
		w(0x21, 0x04), w(0x80, 0),
		w(0xa1, 0x02), w(0x80, 0),
		w(0x21, 0x01), w(0x80, 0),
		w(0xa1, 0x01), w(0x80, 0),
		w(0x21, 0xb8), w(0xa1, 0x8e),
	}

	if diff := cmp.Diff(exp, ports.ops); diff != "" {
		t.Fatalf("unexpected port access sequence (-want +got):\n%s", diff)
	}

	if master, slave := p.Offsets(); master != 32 || slave != 40 {
		t.Fatalf("expected offsets 32/40; got %d/%d", master, slave)
	}
}

func TestHandlesInterrupt(t *testing.T) {
	p := New(newFakePorts())
	p.Initialize(32, 40)

	for v := 0; v < 256; v++ {
		exp := v >= 32 && v <= 47
		if got := p.HandlesInterrupt(uint8(v)); got != exp {
			t.Errorf("[vector %d] expected HandlesInterrupt to return %t; got %t", v, exp, got)
		}
	}

	t.Run("offset near the top of the vector space", func(t *testing.T) {
		p := New(newFakePorts())
		p.Initialize(240, 248)

		if !p.HandlesInterrupt(255) {
			t.Fatal("expected vector 255 to be handled by the slave")
		}
		if p.HandlesInterrupt(239) {
			t.Fatal("expected vector 239 not to be handled")
		}
	})
}

func TestNotifyEndOfInterrupt(t *testing.T) {
	specs := []struct {
		vector uint8
		exp    []portOp
	}{
		// master-owned
		{32, []portOp{w(0x20, 0x20)}},
		{33, []portOp{w(0x20, 0x20)}},
		{39, []portOp{w(0x20, 0x20)}},
		// slave-owned: slave first, then master
		{40, []portOp{w(0xa0, 0x20), w(0x20, 0x20)}},
		{47, []portOp{w(0xa0, 0x20), w(0x20, 0x20)}},
		// foreign
		{31, nil},
		{48, nil},
		{6, nil},
	}

	for specIndex, spec := range specs {
		ports := newFakePorts()
		p := New(ports)
		p.Initialize(32, 40)
		ports.ops = nil

		p.NotifyEndOfInterrupt(spec.vector)

		if diff := cmp.Diff(spec.exp, ports.writes()); diff != "" {
			t.Errorf("[spec %d] unexpected writes for vector %d (-want +got):\n%s", specIndex, spec.vector, diff)
		}
	}
}

func TestInitializeThenKeyboardEOI(t *testing.T) {
	ports := newFakePorts()
	p := New(ports)
	p.Initialize(32, 40)
	initOps := len(ports.ops)

	p.NotifyEndOfInterrupt(33)

	exp := []portOp{w(0x20, 0x20)}
	if diff := cmp.Diff(exp, ports.ops[initOps:]); diff != "" {
		t.Fatalf("unexpected port accesses after initialization (-want +got):\n%s", diff)
	}
}

func TestMasks(t *testing.T) {
	ports := newFakePorts()
	p := New(ports)
	p.Initialize(32, 40)

	p.DisableAll()
	if master, slave := p.Masks(); master != 0xff || slave != 0xff {
		t.Fatalf("expected all lines to be masked; got %08b/%08b", master, slave)
	}

	p.Unmask(0)
	p.Unmask(1)
	if master, slave := p.Masks(); master != 0xfc || slave != 0xff {
		t.Fatalf("expected timer and keyboard lines to be unmasked; got %08b/%08b", master, slave)
	}

	// Unmasking a slave line opens the cascade line too.
	p.Unmask(12)
	if master, slave := p.Masks(); master != 0xf8 || slave != 0xef {
		t.Fatalf("expected line 12 and cascade to be unmasked; got %08b/%08b", master, slave)
	}

	p.Mask(1)
	p.Mask(12)
	if master, slave := p.Masks(); master != 0xfa || slave != 0xff {
		t.Fatalf("expected lines 1 and 12 to be masked; got %08b/%08b", master, slave)
	}
}

func TestSpurious(t *testing.T) {
	specs := []struct {
		vector      uint8
		isr         map[uint16]uint8
		expSpurious bool
		expEOI      []portOp
	}{
		// line 7 not in service
		{39, nil, true, nil},
		// line 7 in service
		{39, map[uint16]uint8{0x20: 0x80}, false, nil},
		// line 15 not in service: master still acked for the cascade
		{47, nil, true, []portOp{w(0x20, 0x20)}},
		{47, map[uint16]uint8{0xa0: 0x80}, false, []portOp{w(0x20, 0x20)}},
		// lines other than 7/15 are never spurious
		{33, nil, false, nil},
	}

	for specIndex, spec := range specs {
		ports := newFakePorts()
		p := New(ports)
		p.Initialize(32, 40)
		for port, val := range spec.isr {
			ports.regs[port] = val
		}

		if got := p.IsSpurious(spec.vector); got != spec.expSpurious {
			t.Errorf("[spec %d] expected IsSpurious(%d) to return %t; got %t", specIndex, spec.vector, spec.expSpurious, got)
		}

		ports.ops = nil
		p.NotifySpurious(spec.vector)
		if diff := cmp.Diff(spec.expEOI, ports.writes()); diff != "" {
			t.Errorf("[spec %d] unexpected writes (-want +got):\n%s", specIndex, diff)
		}
	}
}
