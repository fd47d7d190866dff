// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/pkg/boot"
	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	ImagePath string  `short:"i" long:"image" description:"container file, or a D-SRAM image with --dsram" required:"true"`
	DSRAM     bool    `long:"dsram" description:"the image is a whole D-SRAM image, inspect both containers"`
	Type      *string `short:"t" long:"type" description:"expected image type [rom_ext, bl0]; required for a single container"`
	Base      *string `long:"base" description:"address the container sits at (default: the image base of its type)"`
	MapPath   string  `short:"m" long:"map" description:"memory map YAML (default: the reference map)"`
	KeyPath   string  `short:"k" long:"key" description:"trusted key to check the signature against"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints and checks image containers the way a boot stage would"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Every header check is run and reported, not only the first failing one.
With --key the signature is verified over the binding record and payload.
The command fails if a stage would refuse to boot the image.`
}

type target struct {
	name   string
	base   uint32
	expect bootimg.ImageType
	data   []byte
}

func (cmd *Command) targets(mm memmap.MemoryMap, blob []byte) ([]target, error) {
	types := []bootimg.ImageType{bootimg.TypeROMExt, bootimg.TypeBL0}
	if cmd.Type != nil {
		t, err := bootimg.ParseImageType(*cmd.Type)
		if err != nil {
			return nil, commands.ErrArgs{Err: err}
		}
		types = []bootimg.ImageType{t}
	} else if !cmd.DSRAM {
		return nil, commands.ErrArgs{Err: fmt.Errorf("--type is required unless --dsram is set")}
	}

	var result []target
	for _, t := range types {
		base := mm.ROMExtImageBase
		if t == bootimg.TypeBL0 {
			base = mm.BL0ImageBase
		}
		if cmd.Base != nil {
			var err error
			if base, err = commands.ParseAddr(*cmd.Base); err != nil {
				return nil, err
			}
		}
		data := blob
		if cmd.DSRAM {
			off, ok := mm.Data.Offset(base, bootimg.HeaderSize)
			if !ok || int(off) >= len(blob) {
				return nil, fmt.Errorf("%s image base %#08x is outside of the D-SRAM image", t, base)
			}
			data = blob[off:]
		}
		result = append(result, target{name: t.String(), base: base, expect: t, data: data})
	}
	return result, nil
}

func (cmd *Command) verifier() (sigverify.Verifier, error) {
	if cmd.KeyPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(cmd.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read key '%s': %w", cmd.KeyPath, err)
	}
	raw, err := sigverify.LoadTrustedKey(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse key '%s': %w", cmd.KeyPath, err)
	}
	return sigverify.NewP256Verifier(raw)
}

// failed returns the failing checks of an Audit result.
func failed(err error) map[bootimg.Check]uint32 {
	result := map[bootimg.Check]uint32{}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return result
	}
	for _, e := range merr.Errors {
		var herr *bootimg.HeaderError
		if errors.As(e, &herr) {
			result[herr.Check] = herr.Value
		}
	}
	return result
}

func (cmd *Command) inspect(tg target, mm memmap.MemoryMap, v sigverify.Verifier) error {
	hdr, err := bootimg.Parse(tg.data)
	if err != nil {
		return fmt.Errorf("%s: %w", tg.name, err)
	}
	t := hdr.Table(fmt.Sprintf("%s header at %#08x", tg.name, tg.base))
	fmt.Fprintln(commands.Stdout, t.Render())

	audit := bootimg.Audit(hdr, tg.base, tg.expect, mm)
	fails := failed(audit)
	at := table.NewWriter()
	at.SetTitle(tg.name + " header checks")
	at.AppendHeader(table.Row{"Code", "Check", "Result"})
	for _, c := range bootimg.Checks {
		res := "ok"
		if value, ok := fails[c]; ok {
			res = fmt.Sprintf("FAIL (value %#x)", value)
		}
		at.AppendRow(table.Row{fmt.Sprintf("E%02X", uint8(c)), c, res})
	}
	fmt.Fprintln(commands.Stdout, at.Render())

	if audit != nil {
		// A stage reports the first failure only.
		first := bootimg.Validate(hdr, tg.base, tg.expect, mm)
		fmt.Fprintln(commands.Stdout, boot.Diagnostic(tg.name, first))
		return commands.ErrRejected{Err: first}
	}

	c, err := bootimg.DecodeContainer(tg.data)
	if err != nil {
		return commands.ErrRejected{Err: fmt.Errorf("%s: %w", tg.name, err)}
	}
	digest := bootimg.Digest(&c.Header, c.Payload)
	fmt.Fprintf(commands.Stdout, "%s digest    : %s\n", tg.name, hex.EncodeToString(digest[:]))
	fmt.Fprintf(commands.Stdout, "%s signature : %s\n", tg.name, hex.EncodeToString(c.Signature))
	if v == nil {
		fmt.Fprintf(commands.Stdout, "%s signature not checked, no key given\n", tg.name)
		return nil
	}
	if err := v.Verify(digest, c.Signature); err != nil {
		fmt.Fprintln(commands.Stdout, boot.Diagnostic(tg.name, err))
		return commands.ErrRejected{Err: err}
	}
	fmt.Fprintf(commands.Stdout, "%s signature OK\n", tg.name)
	return nil
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
	blob, err := commands.ReadBlob(cmd.ImagePath)
	if err != nil {
		return err
	}
	targets, err := cmd.targets(mm, blob)
	if err != nil {
		return err
	}
	v, err := cmd.verifier()
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, tg := range targets {
		if err := cmd.inspect(tg, mm, v); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
