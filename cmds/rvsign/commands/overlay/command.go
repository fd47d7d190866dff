// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package overlay

import (
	"fmt"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/pkg/log"
	"github.com/linuxboot/rvboot/pkg/memh"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	DstPath string  `short:"d" long:"dst" description:"image to overlay onto (e.g. a D-SRAM hex file)" required:"true"`
	ImgPath string  `short:"i" long:"img" description:"image to place" required:"true"`
	Offset  *string `long:"offset" description:"byte offset in the destination"`
	Base    *string `long:"base" description:"address to place at, converted to an offset in the data region"`
	MapPath string  `short:"m" long:"map" description:"memory map YAML (default: the reference map)"`
	OutPath string  `short:"o" long:"out" description:"output path (default: overwrite --dst)"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "places an image into another one at a word aligned offset"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Either --offset or --base must be given. Overlaying past the end of the
destination extends it with zeros.`
}

func (cmd *Command) offset() (int, error) {
	switch {
	case cmd.Offset != nil && cmd.Base != nil:
		return 0, commands.ErrArgs{Err: fmt.Errorf("--offset and --base are mutually exclusive")}
	case cmd.Offset != nil:
		off, err := commands.ParseAddr(*cmd.Offset)
		return int(off), err
	case cmd.Base != nil:
		base, err := commands.ParseAddr(*cmd.Base)
		if err != nil {
			return 0, err
		}
		mm, err := commands.LoadMap(cmd.MapPath)
		if err != nil {
			return 0, err
		}
		if !mm.Data.ContainsAddr(base) {
			return 0, commands.ErrArgs{Err: fmt.Errorf("base %#08x is outside of data region %s", base, mm.Data)}
		}
		return int(base - mm.Data.Base), nil
	}
	return 0, commands.ErrArgs{Err: fmt.Errorf("one of --offset or --base is required")}
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	off, err := cmd.offset()
	if err != nil {
		return err
	}
	dst, err := commands.ReadBlob(cmd.DstPath)
	if err != nil {
		return err
	}
	img, err := commands.ReadBlob(cmd.ImgPath)
	if err != nil {
		return err
	}
	out, err := memh.Overlay(dst, img, off)
	if err != nil {
		return commands.ErrArgs{Err: err}
	}

	outPath := cmd.OutPath
	if outPath == "" {
		outPath = cmd.DstPath
	}
	if err := commands.WriteBlob(outPath, out); err != nil {
		return err
	}
	log.Infof("placed %d bytes at offset %#x of '%s'", len(img), off, outPath)
	return nil
}
