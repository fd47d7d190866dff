// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package container

import (
	"fmt"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/compression"
	"github.com/linuxboot/rvboot/pkg/log"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	Type        string  `short:"t" long:"type" description:"image type [rom_ext, bl0]" required:"true"`
	PayloadPath string  `short:"p" long:"payload" description:"path to the payload binary" required:"true"`
	LoadAddr    *string `long:"load" description:"load address (default: from the memory map)"`
	EntryAddr   *string `long:"entry" description:"entry address (default: the load address)"`
	KeyPath     string  `short:"k" long:"key" description:"PEM private key to sign with; omitted leaves a zeroed signature"`
	MapPath     string  `short:"m" long:"map" description:"memory map YAML (default: the reference map)"`
	OutPath     string  `short:"o" long:"out" description:"output container (.bin or .hex, optionally compressed)" required:"true"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "builds a single signed image container"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `The container is the 64-byte header, the payload, and the 64-byte
signature at the next 4-byte boundary. The output format follows the
extension of --out, e.g. "bl0.hex.zst".`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	t, err := bootimg.ParseImageType(cmd.Type)
	if err != nil {
		return commands.ErrArgs{Err: err}
	}
	mm, err := commands.LoadMap(cmd.MapPath)
	if err != nil {
		return err
	}

	load := mm.ROMExtLoadAddr
	if t == bootimg.TypeBL0 {
		load = mm.BL0LoadAddr
	}
	if cmd.LoadAddr != nil {
		if load, err = commands.ParseAddr(*cmd.LoadAddr); err != nil {
			return err
		}
	}
	entry := load
	if cmd.EntryAddr != nil {
		if entry, err = commands.ParseAddr(*cmd.EntryAddr); err != nil {
			return err
		}
	}

	payload, err := compression.ReadFile(cmd.PayloadPath)
	if err != nil {
		return fmt.Errorf("unable to read payload '%s': %w", cmd.PayloadPath, err)
	}

	var signer bootimg.Signer
	if cmd.KeyPath != "" {
		s, err := commands.LoadSigner(cmd.KeyPath)
		if err != nil {
			return err
		}
		signer = s
	} else {
		log.Warnf("no key given, the %s container is unsigned", t)
	}

	c, err := bootimg.Build(t, payload, load, entry, signer)
	if err != nil {
		return err
	}
	b, err := c.Bytes()
	if err != nil {
		return err
	}
	if err := commands.WriteBlob(cmd.OutPath, b); err != nil {
		return err
	}
	fmt.Fprint(commands.Stdout, c.Header.Summary())
	return nil
}
