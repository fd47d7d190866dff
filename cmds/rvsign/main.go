// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rvsign builds, signs and inspects the boot images of the rvboot chain.
//
// Synopsis:
//
//	rvsign keygen -k KEY_PEM [-p PUB_PEM]
//	rvsign pubkey -k KEY_PEM [--format hex|go|raw] [-o FILE]
//	rvsign container -t TYPE -p PAYLOAD -o OUT [-k KEY_PEM] [--load ADDR] [--entry ADDR]
//	rvsign pack -o OUT [-k KEY_PEM] [--rom-ext PAYLOAD] [--bl0 PAYLOAD]
//	rvsign inspect -i IMAGE [--dsram] [-t TYPE] [--base ADDR] [-k KEY]
//	rvsign overlay -d DST -i IMG (--offset OFF | --base ADDR) [-o OUT]
//	rvsign map [-m MAP_YAML]
//
// Every command accepting -m/--map uses the reference memory map when the
// option is omitted. Image paths ending in .hex are word hex files, and a
// trailing .lz4, .zst or .xz extension compresses the file.
//
// An example:
//
//	rvsign keygen -k dev.pem
//	rvsign pack -k dev.pem -o dsram.hex
//	rvsign inspect --dsram -i dsram.hex -k dev.pem
//	rvsim -k dev.pem dsram.hex
package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/rvboot/cmds/rvsign/commands"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/container"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/inspect"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/keygen"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/overlay"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/pack"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/pubkey"
	"github.com/linuxboot/rvboot/cmds/rvsign/commands/showmap"
	"github.com/linuxboot/rvboot/pkg/log"
)

func knownCommands() map[string]commands.Command {
	return map[string]commands.Command{
		"keygen":    &keygen.Command{},
		"pubkey":    &pubkey.Command{},
		"container": &container.Command{},
		"pack":      &pack.Command{},
		"inspect":   &inspect.Command{},
		"overlay":   &overlay.Command{},
		"map":       &showmap.Command{},
	}
}

func newParser(options flags.Options) *flags.Parser {
	flagsParser := flags.NewParser(nil, options)
	for commandName, command := range knownCommands() {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}
	return flagsParser
}

func main() {
	// parse arguments and execute the appropriate command
	if _, err := newParser(flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("%v", err)
	}
}
