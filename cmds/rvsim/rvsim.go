// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rvsim boots a D-SRAM image through the ROM, ROM_EXT and BL0 stages on a
// model of the SoC and prints what the stages printed on the UART.
//
// Synopsis:
//
//	rvsim [-d] [--trace] [-m MAP_YAML] [--timeout DURATION] [--dump FILE] -k KEY IMAGE
//
// IMAGE is a binary or word hex D-SRAM image as written by "rvsign pack",
// optionally compressed. KEY is the trusted key the stages are built with,
// in any form "rvsign pubkey" emits or as a PEM key. rvsim exits non-zero
// unless the chain reached BL0.
package main

import (
	"context"
	"errors"
	goflag "flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/linuxboot/rvboot/pkg/boot"
	"github.com/linuxboot/rvboot/pkg/firmware"
	"github.com/linuxboot/rvboot/pkg/memh"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/sigverify"
	"github.com/linuxboot/rvboot/pkg/soc"
)

var (
	errUsage      = errors.New("usage: rvsim [options] -k KEY IMAGE")
	errBootFailed = errors.New("boot did not reach BL0")
)

func run(stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("rvsim", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.AddGoFlagSet(goflag.CommandLine)
	var (
		debug   = fs.BoolP("debug", "d", false, "enable debug prints")
		trace   = fs.Bool("trace", false, "print every loader state transition")
		mapPath = fs.StringP("map", "m", "", "memory map YAML (default: the reference map)")
		keyPath = fs.StringP("key", "k", "", "trusted key file")
		timeout = fs.Duration("timeout", 5*time.Second, "give up after this long")
		dump    = fs.String("dump", "", "write the execution SRAM to this file after the run")
	)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 || *keyPath == "" {
		return errUsage
	}
	if *debug {
		soc.Debug = log.Printf
		defer func() { soc.Debug = func(string, ...interface{}) {} }()
	}

	mm := memmap.Default()
	if *mapPath != "" {
		var err error
		if mm, err = memmap.Load(*mapPath); err != nil {
			return err
		}
	}
	keyData, err := os.ReadFile(*keyPath)
	if err != nil {
		return err
	}
	key, err := sigverify.LoadTrustedKey(keyData)
	if err != nil {
		return fmt.Errorf("unable to parse key '%s': %w", *keyPath, err)
	}
	image, err := memh.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	m, err := soc.New(mm)
	if err != nil {
		return err
	}
	if err := m.Load(mm.Data.Base, image); err != nil {
		return err
	}

	cfg := firmware.Config{Map: mm, TrustedKey: key}
	if *trace {
		// The stages run on the hart goroutine only, while Run blocks.
		cfg.Trace = func(stage string, s boot.State) {
			fmt.Fprintf(stdout, "# %s: %s\n", stage, s)
		}
	}
	firmware.Install(m, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	res, err := m.Run(ctx, firmware.ROM(cfg))
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, res.Console)
	for _, j := range res.Jumps {
		fmt.Fprintf(stdout, "# jump %#08x\n", j)
	}
	switch {
	case res.Trap != nil:
		fmt.Fprintf(stdout, "# %v\n", res.Trap)
	case res.Idle:
		fmt.Fprintln(stdout, "# hart idle")
	}

	if *dump != "" {
		b, err := m.Dump(mm.Exec.Base, mm.Exec.Size)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*dump, b, 0o644); err != nil {
			return err
		}
	}

	if !firmware.ReachedBL0(res) {
		return errBootFailed
	}
	return nil
}

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
