// Package kfmt implements an allocation-free subset of fmt.Printf that the
// kernel can use from any context, including interrupt handlers and before the
// Go allocator is available.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// earlyPrintBuffer captures Printf output until an output sink is
	// attached.
	earlyPrintBuffer ringBuffer

	// outputSink receives Printf output. While nil, output goes to
	// earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and flushes
// any output buffered so far into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the default target for calls to Printf. Until a sink
// is attached this is the early print buffer.
func GetOutputSink() io.Writer {
	if outputSink == nil {
		return &earlyPrintBuffer
	}

	return outputSink
}

// ActiveSink is an io.Writer that forwards each write to the output sink that
// is active at the time of the write.
type ActiveSink struct{}

// Write implements io.Writer.
func (ActiveSink) Write(p []byte) (int, error) {
	return GetOutputSink().Write(p)
}

// Printf formats according to a format specifier and writes to the active
// output sink. It supports the following verbs:
//
//	%s  string or []byte
//	%c  a single byte or rune (runes above 0xff print as '?')
//	%o  integer, base 8
//	%d  integer, base 10
//	%x  integer, base 16 with lower-case letters
//	%t  the word true or false
//	%%  a literal percent sign
//
// An optional decimal width may precede the verb. Strings and base-10
// integers are left-padded with spaces while base-8 and base-16 integers are
// left-padded with zeroes.
//
// Printf never allocates. All scratch space lives on the caller's stack so
// calls may safely nest (e.g. an interrupt handler printing while normal code
// is in the middle of a Printf). Arguments are never checked for the
// fmt.Stringer interface and %p/%v are not supported since both would pull
// in reflect.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer. A nil writer sends the output to the early print
// buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex   int
		blockStart int
		width      int
		fmtLen     = len(format)
	)

	for i := 0; i < fmtLen; i++ {
		if format[i] != '%' {
			continue
		}

		writeString(w, format[blockStart:i])

		width = 0
		for i++; i < fmtLen && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == fmtLen {
			doWrite(w, errNoVerb)
			blockStart = fmtLen
			break
		}

		switch verb := format[i]; verb {
		case '%':
			writeByte(w, '%')
		case 'c', 'd', 'o', 's', 't', 'x':
			if argIndex >= len(args) {
				doWrite(w, errMissingArg)
				break
			}

			arg := args[argIndex]
			argIndex++

			switch verb {
			case 'c':
				fmtChar(w, arg)
			case 'd':
				fmtInt(w, arg, 10, width)
			case 'o':
				fmtInt(w, arg, 8, width)
			case 'x':
				fmtInt(w, arg, 16, width)
			case 's':
				fmtString(w, arg, width)
			case 't':
				fmtBool(w, arg)
			}
		default:
			doWrite(w, errNoVerb)
		}

		blockStart = i + 1
	}

	if blockStart < fmtLen {
		writeString(w, format[blockStart:])
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

// fmtBool prints a formatted version of boolean value v.
func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case bVal:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtChar prints a single character.
func fmtChar(w io.Writer, v interface{}) {
	switch ch := v.(type) {
	case byte:
		writeByte(w, ch)
	case rune:
		if ch < 0 || ch > 0xff {
			ch = '?'
		}
		writeByte(w, byte(ch))
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtString prints a formatted version of string or []byte value v, applying
// the padding specified by width.
func fmtString(w io.Writer, v interface{}, width int) {
	switch castedVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', width-len(castedVal))
		writeString(w, castedVal)
	case []byte:
		fmtRepeat(w, ' ', width-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtRepeat writes count bytes with value ch.
func fmtRepeat(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

// fmtInt prints out a formatted version of v in the requested base, applying
// the padding specified by width. This function supports all built-in signed
// and unsigned integer types.
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		buf   [maxBufSize]byte
		uval  uint64
		neg   bool
		padCh byte = '0'
	)

	if base == 10 {
		padCh = ' '
	}

	if width >= maxBufSize {
		width = maxBufSize - 1
	}

	switch val := v.(type) {
	case uint8:
		uval = uint64(val)
	case uint16:
		uval = uint64(val)
	case uint32:
		uval = uint64(val)
	case uint64:
		uval = val
	case uint:
		uval = uint64(val)
	case uintptr:
		uval = uint64(val)
	case int8:
		uval, neg = abs(int64(val))
	case int16:
		uval, neg = abs(int64(val))
	case int32:
		uval, neg = abs(int64(val))
	case int64:
		uval, neg = abs(val)
	case int:
		uval, neg = abs(int64(val))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	// Digits are generated right to left starting at the end of buf.
	pos := maxBufSize
	for {
		pos--
		digit := uval % base
		if digit < 10 {
			buf[pos] = byte(digit) + '0'
		} else {
			buf[pos] = byte(digit-10) + 'a'
		}

		uval /= base
		if uval == 0 {
			break
		}
	}

	switch {
	case neg && padCh == ' ':
		pos--
		buf[pos] = '-'
		for maxBufSize-pos < width {
			pos--
			buf[pos] = padCh
		}
	case neg:
		// Zero padding goes between the sign and the digits.
		for maxBufSize-pos < width-1 {
			pos--
			buf[pos] = padCh
		}
		pos--
		buf[pos] = '-'
	default:
		for maxBufSize-pos < width {
			pos--
			buf[pos] = padCh
		}
	}

	doWrite(w, buf[pos:])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// writeString emits s one byte at a time; converting it to a []byte would
// require an allocation.
func writeString(w io.Writer, s string) {
	for i := 0; i < len(s); i++ {
		writeByte(w, s[i])
	}
}

func writeByte(w io.Writer, ch byte) {
	buf := [1]byte{ch}
	doWrite(w, buf[:])
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without it, passing p to an unknown io.Writer
// makes the compiler move the stack buffers backing p (and the boxed Printf
// arguments) to the heap.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
