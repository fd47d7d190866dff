// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package showmap

import (
	"fmt"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	MapPath string `short:"m" long:"map" description:"memory map YAML to validate (default: the reference map)"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the effective memory map"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Without --map the reference map is printed, which is a good starting
point for a custom one. With --map the file is validated and printed with
defaults filled in.`
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
	b, err := mm.Marshal()
	if err != nil {
		return err
	}
	_, err = commands.Stdout.Write(b)
	return err
}
