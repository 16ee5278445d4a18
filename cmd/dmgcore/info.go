package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/romfile"
)

// InfoCmd displays cartridge header information.
type InfoCmd struct {
	ROMs []string `arg:"" name:"rom" type:"existingfile" help:"Paths to ROM files."`
}

// romInfo is everything the info command reports about one image.
type romInfo struct {
	path        string
	size        int
	header      *cartridge.Header
	headerOK    bool
	globalOK    bool
	fingerprint uint64
	battery     bool
	supported   error
}

// Run executes the info command. ROMs are inspected concurrently and
// reported in argument order.
func (c *InfoCmd) Run(ctx context.Context, logger *log.Logger) error {
	infos := make([]*romInfo, len(c.ROMs))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range c.ROMs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := inspect(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			infos[i] = info
			logger.Debug("Inspected ROM", log.String("file", path), log.Int("size", info.size))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, info := range infos {
		if i > 0 {
			fmt.Println()
		}
		printInfo(os.Stdout, info)
	}
	return nil
}

func inspect(path string) (*romInfo, error) {
	data, err := romfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}

	header, err := cartridge.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	info := &romInfo{
		path:        path,
		size:        len(data),
		header:      header,
		headerOK:    header.VerifyHeaderChecksum(data),
		globalOK:    header.VerifyGlobalChecksum(data),
		fingerprint: xxhash.Sum64(data),
		battery:     header.CartridgeType.HasBattery(),
	}
	_, info.supported = cartridge.New(data)
	return info, nil
}

func printInfo(w io.Writer, info *romInfo) {
	h := info.header
	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(w, format+"\n", args...)
	}

	p("ROM Information: %s", info.path)
	p("  Title:          %s", h.Title)
	if h.ManufacturerCode != "" {
		p("  Manufacturer:   %s", h.ManufacturerCode)
	}
	p("  Licensee:       %s", h.Licensee)
	p("  Cartridge Type: %s (0x%02X)", h.CartridgeType, uint8(h.CartridgeType))
	p("  ROM Size:       %d KiB (%d banks, image %d bytes)", h.ROMBanks*16, h.ROMBanks, info.size)
	p("  RAM Size:       %d KiB", h.RAMSize/1024)
	p("  Has Battery:    %v", info.battery)
	p("  Has Timer:      %v", h.CartridgeType.HasTimer())
	p("  Has Rumble:     %v", h.CartridgeType.HasRumble())
	p("  CGB Only:       %v", h.CGB)
	p("  SGB Support:    %v", h.SGB)
	p("  Destination:    %s", h.Destination)
	p("  Version:        %d", h.Version)
	p("  Header Check:   0x%02X (%s)", h.HeaderChecksum, validity(info.headerOK))
	p("  Global Check:   0x%04X (%s)", h.GlobalChecksum, validity(info.globalOK))
	p("  Fingerprint:    %016x (xxhash64)", info.fingerprint)
	if info.supported != nil {
		p("  Emulation:      unsupported (%v)", info.supported)
	} else {
		p("  Emulation:      supported")
	}
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}
	return "INVALID"
}
