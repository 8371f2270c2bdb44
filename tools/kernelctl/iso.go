package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/iso9660"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

const (
	isoBlockSize = 2048

	// isoSlack is added to the size of the copied files to leave room for
	// the volume descriptors, directory records and boot catalog.
	isoSlack = 1 << 20
)

// isoCmd implements subcommands.Command for the "iso" command.
type isoCmd struct {
	output string
	kernel string
	label  string
}

// Name implements subcommands.Command.Name.
func (*isoCmd) Name() string {
	return "iso"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*isoCmd) Synopsis() string {
	return "build a bootable ISO image containing the kernel"
}

// Usage implements subcommands.Command.Usage.
func (*isoCmd) Usage() string {
	return "iso [flags]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *isoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output path; overrides iso.output")
	f.StringVar(&c.kernel, "kernel", "", "kernel image; overrides kernel.image")
	f.StringVar(&c.label, "label", "", "volume label; overrides iso.volume_label")
}

// Execute implements subcommands.Command.Execute.
func (c *isoCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	cfg := args[0].(*config)
	isoCfg := cfg.ISO
	kernelImage := cfg.Kernel.Image
	if c.output != "" {
		isoCfg.Output = c.output
	}
	if c.kernel != "" {
		kernelImage = c.kernel
	}
	if c.label != "" {
		isoCfg.VolumeLabel = c.label
	}

	if err := buildISO(isoCfg, kernelImage); err != nil {
		logrus.WithError(err).Error("unable to build ISO image")
		return subcommands.ExitFailure
	}

	logrus.WithField("path", isoCfg.Output).Info("built ISO image")
	return subcommands.ExitSuccess
}

// buildISO writes an ISO9660 image containing kernelImage and the bootloader
// files listed in cfg. The image is made bootable with an El Torito entry
// for cfg.BootFile.
func buildISO(cfg isoConfig, kernelImage string) error {
	files := append([]isoFile{{Src: kernelImage, Dst: cfg.KernelPath}}, cfg.Files...)

	var size int64 = isoSlack
	for _, file := range files {
		info, err := os.Stat(file.Src)
		if err != nil {
			return fmt.Errorf("stat %s: %w", file.Src, err)
		}
		size += info.Size()
	}
	size = (size + isoBlockSize - 1) &^ (isoBlockSize - 1)

	if err := os.Remove(cfg.Output); err != nil && !os.IsNotExist(err) {
		return err
	}

	img, err := diskfs.Create(cfg.Output, size, diskfs.Raw, diskfs.SectorSize(isoBlockSize))
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Output, err)
	}

	fs, err := img.CreateFilesystem(disk.FilesystemSpec{
		Partition:   0,
		FSType:      filesystem.TypeISO9660,
		VolumeLabel: cfg.VolumeLabel,
	})
	if err != nil {
		return fmt.Errorf("creating ISO9660 filesystem: %w", err)
	}

	for _, file := range files {
		if err := copyToImage(fs, file); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"src": file.Src, "dst": file.Dst}).Debug("copied file")
	}

	isoFS, ok := fs.(*iso9660.FileSystem)
	if !ok {
		return fmt.Errorf("unexpected filesystem type %T", fs)
	}

	return isoFS.Finalize(iso9660.FinalizeOptions{
		VolumeIdentifier: cfg.VolumeLabel,
		RockRidge:        true,
		ElTorito: &iso9660.ElTorito{
			BootCatalog: "/boot/boot.cat",
			Entries: []*iso9660.ElToritoEntry{
				{
					Platform:  iso9660.BIOS,
					Emulation: iso9660.NoEmulation,
					BootFile:  cfg.BootFile,
					BootTable: true,
					LoadSize:  4,
				},
			},
		},
	})
}

func copyToImage(fs filesystem.FileSystem, file isoFile) error {
	if dir := path.Dir(file.Dst); dir != "/" {
		if err := fs.Mkdir(dir); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	dst, err := fs.OpenFile(file.Dst, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return fmt.Errorf("creating %s: %w", file.Dst, err)
	}
	defer dst.Close()

	src, err := os.Open(file.Src)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("copying %s to %s: %w", file.Src, file.Dst, err)
	}

	return nil
}
