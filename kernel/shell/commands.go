package shell

import (
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
)

const osinfoLogo = `
  __  __                   _ _       _     _    ___  ____
 |  \/  | ___   ___  _ __ | (_) __ _| |__ | |_ / _ \/ ___|
 | |\/| |/ _ \ / _ \| '_ \| | |/ _` + "`" + ` | '_ \| __| | | \___ \
 | |  | | (_) | (_) | | | | | | (_| | | | | |_| |_| |___) |
 |_|  |_|\___/ \___/|_| |_|_|_|\__, |_| |_|\__|\___/|____/
                               |___/
`

func builtins() []Command {
	return []Command{
		{Name: "help", Help: "lists available commands", Run: help},
		{Name: "ping", Help: "prints pong", Run: ping},
		{Name: "echo", Help: `prints a quoted string: echo "text"`, Run: echo},
		{Name: "clear", Help: "clears the screen", Run: clear},
		{Name: "osinfo", Help: "prints OS information", Run: osinfo},
	}
}

func help(sh *Shell, _ []byte) {
	const border = "+---------------------------------------------------+\n"

	kfmt.Fprintf(sh.term, border)
	kfmt.Fprintf(sh.term, "| Available commands:                               |\n")
	for _, cmd := range sh.commands {
		kfmt.Fprintf(sh.term, "| %6s --> %s\n", cmd.Name, cmd.Help)
	}
	kfmt.Fprintf(sh.term, border)
}

func ping(sh *Shell, _ []byte) {
	kfmt.Fprintf(sh.term, "pong\n")
}

// echo prints the text enclosed in double quotes.
func echo(sh *Shell, args []byte) {
	if len(args) < 2 || args[0] != '"' || args[len(args)-1] != '"' {
		sh.unknownCommand()
		return
	}

	kfmt.Fprintf(sh.term, "%s\n", args[1:len(args)-1])
}

func clear(sh *Shell, _ []byte) {
	sh.term.Clear()
}

func osinfo(sh *Shell, _ []byte) {
	sh.term.SetColors(infoColor, defaultBgCol)
	kfmt.Fprintf(sh.term, "%s", osinfoLogo)
	sh.term.ResetColors()

	kfmt.Fprintf(sh.term, "OS Name: %s\n", sh.info.Name)
	kfmt.Fprintf(sh.term, "OS Version: %s\n", sh.info.Version)
	kfmt.Fprintf(sh.term, "CPU Vendor: %s\n", sh.info.CPUVendor[:])
}
