// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pack

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/compression"
	"github.com/linuxboot/rvboot/pkg/firmware"
	"github.com/linuxboot/rvboot/pkg/imagetool"
	"github.com/linuxboot/rvboot/pkg/log"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	MapPath    string `short:"m" long:"map" description:"memory map YAML (default: the reference map)"`
	KeyPath    string `short:"k" long:"key" description:"PEM private key to sign with; omitted leaves zeroed signatures"`
	ROMExtPath string `long:"rom-ext" description:"ROM_EXT payload (default: the built-in ROM_EXT)"`
	BL0Path    string `long:"bl0" description:"BL0 payload (default: the built-in BL0)"`
	OutPath    string `short:"o" long:"out" description:"output D-SRAM image (.bin or .hex, optionally compressed)" required:"true"`
	Quiet      bool   `short:"q" long:"quiet" description:"do not print the placement table"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "packs ROM_EXT and BL0 into a D-SRAM image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Builds both containers, each loaded and entered at the load address the
memory map assigns to its type, and places them at their image bases in a
zero-filled image of the data region.`
}

func readPayload(path string, builtin func() []byte) ([]byte, error) {
	if path == "" {
		return builtin(), nil
	}
	b, err := compression.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read payload '%s': %w", path, err)
	}
	return b, nil
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	mm, err := commands.LoadMap(cmd.MapPath)
	if err != nil {
		return err
	}
	romExt, err := readPayload(cmd.ROMExtPath, firmware.ROMExtPayload)
	if err != nil {
		return err
	}
	bl0, err := readPayload(cmd.BL0Path, firmware.BL0Payload)
	if err != nil {
		return err
	}

	var signer bootimg.Signer
	if cmd.KeyPath != "" {
		s, err := commands.LoadSigner(cmd.KeyPath)
		if err != nil {
			return err
		}
		signer = s
	} else {
		log.Warnf("no key given, containers are unsigned")
	}

	placements, err := imagetool.Containers(mm, signer, romExt, bl0)
	if err != nil {
		return err
	}
	image, err := imagetool.Place(mm, placements)
	if err != nil {
		return err
	}
	if err := commands.WriteBlob(cmd.OutPath, image); err != nil {
		return err
	}
	if cmd.Quiet {
		return nil
	}

	t := table.NewWriter()
	t.SetTitle("D-SRAM image " + cmd.OutPath)
	t.AppendHeader(table.Row{"Image", "Base", "End", "Size", "Load", "Entry"})
	for _, p := range placements {
		r, err := p.Region()
		if err != nil {
			return err
		}
		h := p.Container.Header
		t.AppendRow(table.Row{
			h.ImageType,
			fmt.Sprintf("%#08x", r.Base),
			fmt.Sprintf("%#08x", r.End()),
			humanize.IBytes(uint64(r.Size)),
			fmt.Sprintf("%#08x", h.LoadAddr),
			fmt.Sprintf("%#08x", h.EntryAddr),
		})
	}
	t.AppendFooter(table.Row{"", "", "", humanize.IBytes(uint64(len(image)))})
	fmt.Fprintln(commands.Stdout, t.Render())
	return nil
}
