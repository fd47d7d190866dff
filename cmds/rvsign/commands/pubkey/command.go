// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pubkey

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	KeyPath string  `short:"k" long:"key" description:"path to a PEM key (private or public)" required:"true"`
	Format  *string `long:"format" description:"output format [hex, go, raw]"`
	OutPath string  `short:"o" long:"out" description:"write to this file instead of stdout"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the trusted key a boot stage is built with"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `The key is printed in the raw X||Y form (64 bytes). The "go" format
emits a byte slice literal.`
}

func goLiteral(raw []byte) string {
	var b strings.Builder
	b.WriteString("[]byte{")
	for i, v := range raw {
		if i%8 == 0 {
			b.WriteString("\n\t")
		} else {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "0x%02x,", v)
	}
	b.WriteString("\n}\n")
	return b.String()
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	data, err := os.ReadFile(cmd.KeyPath)
	if err != nil {
		return fmt.Errorf("unable to read key '%s': %w", cmd.KeyPath, err)
	}
	raw, err := sigverify.LoadTrustedKey(data)
	if err != nil {
		return fmt.Errorf("unable to parse key '%s': %w", cmd.KeyPath, err)
	}

	format := "hex"
	if cmd.Format != nil {
		format = strings.ToLower(strings.TrimSpace(*cmd.Format))
	}
	var out []byte
	switch format {
	case "hex":
		out = []byte(hex.EncodeToString(raw) + "\n")
	case "go":
		out = []byte(goLiteral(raw))
	case "raw":
		out = raw
	default:
		return commands.ErrArgs{Err: fmt.Errorf("unknown format '%s'", format)}
	}

	if cmd.OutPath != "" {
		if err := os.WriteFile(cmd.OutPath, out, 0o644); err != nil {
			return fmt.Errorf("unable to write '%s': %w", cmd.OutPath, err)
		}
		return nil
	}
	_, err = commands.Stdout.Write(out)
	return err
}
