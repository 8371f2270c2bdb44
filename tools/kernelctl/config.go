package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// config is the kernelctl configuration. Every value can be overridden by
// the flags of the command that uses it.
type config struct {
	Kernel kernelConfig `toml:"kernel"`
	ISO    isoConfig    `toml:"iso"`
	QEMU   qemuConfig   `toml:"qemu"`
}

type kernelConfig struct {
	// Image is the path to the kernel ELF image.
	Image string `toml:"image"`
}

type isoConfig struct {
	// Output is the path of the generated ISO image.
	Output string `toml:"output"`

	// VolumeLabel is the ISO9660 volume identifier.
	VolumeLabel string `toml:"volume_label"`

	// KernelPath is the location of the kernel image inside the ISO.
	KernelPath string `toml:"kernel_path"`

	// BootFile is the El Torito boot image, relative to the ISO root. It
	// must be one of the copied bootloader files.
	BootFile string `toml:"boot_file"`

	// Files lists the bootloader files copied into the image.
	Files []isoFile `toml:"files"`
}

type isoFile struct {
	Src string `toml:"src"`
	Dst string `toml:"dst"`
}

type qemuConfig struct {
	Binary    string   `toml:"binary"`
	Memory    string   `toml:"memory"`
	ExtraArgs []string `toml:"extra_args"`
}

func defaultConfig() *config {
	return &config{
		Kernel: kernelConfig{Image: "build/kernel-x86_64.elf"},
		ISO: isoConfig{
			Output:      "build/moonlight.iso",
			VolumeLabel: "MOONLIGHTOS",
			KernelPath:  "/boot/kernel.elf",
			BootFile:    "/boot/limine-bios-cd.bin",
			Files: []isoFile{
				{Src: "boot/limine.cfg", Dst: "/boot/limine.cfg"},
				{Src: "boot/limine/limine-bios.sys", Dst: "/boot/limine-bios.sys"},
				{Src: "boot/limine/limine-bios-cd.bin", Dst: "/boot/limine-bios-cd.bin"},
			},
		},
		QEMU: qemuConfig{
			Binary: "qemu-system-x86_64",
			Memory: "128M",
		},
	}
}

// loadConfig decodes the configuration file at path on top of the default
// configuration. A missing file is not an error.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.WithField("path", path).Debug("configuration file not found; using defaults")
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("%s: unknown configuration keys %v", path, undecoded)
	}

	logrus.WithField("path", path).Debug("loaded configuration")
	return cfg, nil
}
