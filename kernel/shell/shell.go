// Package shell implements the interactive kernel shell. Keys are fed to it
// one at a time by the keyboard interrupt handler.
package shell

import (
	"io"

	"github.com/cyberphantom52/MoonlightOS/device/vga"
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
	"github.com/cyberphantom52/MoonlightOS/kernel/sync"
)

const (
	// Prompt is printed whenever the shell is ready for a new command.
	Prompt = "MoonlightOS> "

	// LineSize is the maximum length of a command line.
	LineSize = 256

	promptColor  = vga.Pink
	errorColor   = vga.Pink
	infoColor    = vga.Cyan
	defaultBgCol = vga.Black
)

// Terminal is the output device of the shell.
type Terminal interface {
	io.Writer
	SetColors(fg, bg vga.Color)
	ResetColors()
	Clear()
}

// Info describes the running system for the osinfo command.
type Info struct {
	Name      string
	Version   string
	CPUVendor [12]byte
}

// Command is a shell built-in.
type Command struct {
	Name string
	Help string

	// Run executes the command. args holds the command line after the
	// command name with leading blanks removed.
	Run func(sh *Shell, args []byte)
}

type line struct {
	buf [LineSize]byte
	len int
}

// Shell is a line editing shell.
type Shell struct {
	term     Terminal
	info     Info
	commands []Command
	line     sync.Cell[line]
}

// New returns a shell writing to term.
func New(term Terminal, info Info) *Shell {
	sh := &Shell{term: term, info: info}
	sh.commands = builtins()
	return sh
}

// Start prints the first prompt.
func (sh *Shell) Start() {
	sh.line.With(func(l *line) {
		l.len = 0
		sh.prompt()
	})
}

func (sh *Shell) prompt() {
	sh.term.SetColors(promptColor, defaultBgCol)
	kfmt.Fprintf(sh.term, Prompt)
	sh.term.ResetColors()
}

// HandleKey processes a single key press: printable characters are echoed
// and appended to the current line, '\b' erases the last character and '\n'
// runs the line. Characters typed once the line is full are dropped.
func (sh *Shell) HandleKey(ch byte) {
	sh.line.With(func(l *line) {
		switch ch {
		case '\n':
			kfmt.Fprintf(sh.term, "\n")
			sh.interpret(l.buf[:l.len])
			l.len = 0
			sh.prompt()
		case '\b':
			if l.len > 0 {
				l.len--
				kfmt.Fprintf(sh.term, "\b")
			}
		default:
			if l.len == LineSize {
				return
			}
			l.buf[l.len] = ch
			l.len++
			kfmt.Fprintf(sh.term, "%c", ch)
		}
	})
}

// interpret runs the command line in cmdLine.
func (sh *Shell) interpret(cmdLine []byte) {
	cmdLine = trimSpace(cmdLine)
	if len(cmdLine) == 0 {
		return
	}

	name, args := cmdLine, []byte(nil)
	for i, b := range cmdLine {
		if b == ' ' {
			name, args = cmdLine[:i], trimSpace(cmdLine[i+1:])
			break
		}
	}

	for i := range sh.commands {
		if string(name) == sh.commands[i].Name {
			sh.commands[i].Run(sh, args)
			return
		}
	}

	sh.unknownCommand()
}

func (sh *Shell) unknownCommand() {
	sh.term.SetColors(errorColor, defaultBgCol)
	kfmt.Fprintf(sh.term, "Unknown command!\n")
	sh.term.ResetColors()
}

func trimSpace(b []byte) []byte {
	for len(b) != 0 && b[0] == ' ' {
		b = b[1:]
	}
	for len(b) != 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return b
}
