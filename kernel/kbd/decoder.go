// Package kbd decodes PS/2 keyboard scancode set 1 into characters using the
// US keyboard layout.
package kbd

const (
	// DataPort is the PS/2 controller data port.
	DataPort = 0x60

	scExtended   = 0xe0
	scBreakBit   = 0x80
	scLeftShift  = 0x2a
	scRightShift = 0x36
	scCtrl       = 0x1d
	scCapsLock   = 0x3a
	scEnter      = 0x1c
)

// Base and shifted characters indexed by make code. Zero entries produce no
// character.
var (
	baseLayout = [...]byte{
		0x01: 0x1b, // escape
		0x02: '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', '\b',
		0x0f: '\t', 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n',
		0x1e: 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`',
		0x2b: '\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/',
		0x37: '*',
		0x39: ' ',
	}

	shiftedLayout = [...]byte{
		0x01: 0x1b,
		0x02: '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '_', '+', '\b',
		0x0f: '\t', 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I', 'O', 'P', '{', '}', '\n',
		0x1e: 'A', 'S', 'D', 'F', 'G', 'H', 'J', 'K', 'L', ':', '"', '~',
		0x2b: '|', 'Z', 'X', 'C', 'V', 'B', 'N', 'M', '<', '>', '?',
		0x37: '*',
		0x39: ' ',
	}
)

// Decoder tracks the modifier state of the keyboard across scancodes. The
// zero value is ready to use.
type Decoder struct {
	leftShift, rightShift bool
	leftCtrl, rightCtrl   bool
	capsLock              bool
	extended              bool
}

// Feed processes a single scancode byte. It returns the character produced by
// the key press, if any. Key releases, modifier keys and extended keys other
// than keypad enter never produce a character.
func (d *Decoder) Feed(sc uint8) (byte, bool) {
	if sc == scExtended {
		d.extended = true
		return 0, false
	}

	if d.extended {
		d.extended = false
		switch sc &^ scBreakBit {
		case scCtrl:
			d.rightCtrl = sc&scBreakBit == 0
		case scEnter:
			if sc&scBreakBit == 0 {
				return '\n', true
			}
		}
		return 0, false
	}

	released := sc&scBreakBit != 0
	code := sc &^ scBreakBit

	switch code {
	case scLeftShift:
		d.leftShift = !released
		return 0, false
	case scRightShift:
		d.rightShift = !released
		return 0, false
	case scCtrl:
		d.leftCtrl = !released
		return 0, false
	case scCapsLock:
		if !released {
			d.capsLock = !d.capsLock
		}
		return 0, false
	}

	if released || int(code) >= len(baseLayout) {
		return 0, false
	}

	shift := d.leftShift || d.rightShift
	ch := baseLayout[code]
	if shift {
		ch = shiftedLayout[code]
	}

	// Caps lock inverts the case of letters only.
	if d.capsLock && isLetter(baseLayout[code]) {
		if shift {
			ch = baseLayout[code]
		} else {
			ch = shiftedLayout[code]
		}
	}

	return ch, ch != 0
}

// Ctrl reports whether a control key is held down.
func (d *Decoder) Ctrl() bool {
	return d.leftCtrl || d.rightCtrl
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z'
}
