// Command kernelctl builds, inspects and runs MoonlightOS kernel images.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "kernelctl.toml", "path to the configuration file")
	debug      = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(isoCmd), "image")
	subcommands.Register(new(runCmd), "image")
	subcommands.Register(new(idtCmd), "inspect")
	subcommands.Register(new(symbolsCmd), "inspect")

	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("unable to load configuration")
	}

	os.Exit(int(subcommands.Execute(context.Background(), cfg)))
}
