package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cyberphantom52/MoonlightOS/device/qemu"
)

// errKernelFailure is returned when the kernel reports a failed self test
// through the exit device.
var errKernelFailure = errors.New("kernel reported a failure")

// runCmd implements subcommands.Command for the "run" command.
type runCmd struct {
	iso      string
	headless bool
	timeout  time.Duration
}

// Name implements subcommands.Command.Name.
func (*runCmd) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*runCmd) Synopsis() string {
	return "boot an ISO image in QEMU and relay the kernel's serial output"
}

// Usage implements subcommands.Command.Usage.
func (*runCmd) Usage() string {
	return `run [flags]

The kernel can terminate QEMU through the isa-debug-exit device. Exit codes
written by the kernel are translated back: a successful self test makes run
succeed, a failed one makes it fail.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.iso, "iso", "", "ISO image to boot; overrides iso.output")
	f.BoolVar(&c.headless, "headless", false, "run without a display")
	f.DurationVar(&c.timeout, "timeout", 0, "kill QEMU after this long; 0 disables the timeout")
}

// Execute implements subcommands.Command.Execute.
func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg := args[0].(*config)
	iso := cfg.ISO.Output
	if c.iso != "" {
		iso = c.iso
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := runQEMU(ctx, cfg.QEMU.Binary, qemuArgs(cfg.QEMU, iso, c.headless), os.Stdout)
	switch {
	case errors.Is(err, errKernelFailure):
		logrus.Error("kernel self test failed")
		return subcommands.ExitFailure
	case err != nil:
		logrus.WithError(err).Error("qemu failed")
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// qemuArgs returns the QEMU command line used to boot iso. COM1 is connected
// to the standard output of QEMU and the exit device is attached at the port
// the kernel writes its exit codes to.
func qemuArgs(cfg qemuConfig, iso string, headless bool) []string {
	args := []string{
		"-cdrom", iso,
		"-m", cfg.Memory,
		"-serial", "stdio",
		"-device", fmt.Sprintf("isa-debug-exit,iobase=0x%x,iosize=0x04", qemu.ExitPort),
	}

	if headless {
		args = append(args, "-display", "none")
	}

	return append(args, cfg.ExtraArgs...)
}

// runQEMU starts binary and copies the serial output it produces to out
// while QEMU diagnostics are sent to the log. It returns once QEMU exits.
func runQEMU(ctx context.Context, binary string, args []string, out io.Writer) error {
	logrus.WithField("args", args).Debugf("starting %s", binary)

	cmd := exec.CommandContext(ctx, binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", binary, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(out, stdout)
		return err
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			logrus.WithField("source", "qemu").Warn(scanner.Text())
		}
		return scanner.Err()
	})

	// Both pipes must be drained before Wait closes them.
	pumpErr := g.Wait()
	if err := exitError(cmd.Wait()); err != nil {
		return err
	}
	if pumpErr != nil {
		return fmt.Errorf("relaying qemu output: %w", pumpErr)
	}

	return nil
}

// exitError maps the result of waiting for QEMU to the outcome reported by
// the kernel. QEMU exits with (code << 1) | 1 when the kernel writes code to
// the exit device.
func exitError(waitErr error) error {
	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return waitErr
	}

	switch status := exitErr.ExitCode(); status {
	case qemu.ExitSuccess.ProcessStatus():
		return nil
	case qemu.ExitFailure.ProcessStatus():
		return errKernelFailure
	default:
		return fmt.Errorf("qemu exited with status %d: %w", status, waitErr)
	}
}
