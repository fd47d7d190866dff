// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package firmware contains the boot stages of the chain as programs for
// the SoC model: the mask ROM, ROM_EXT and BL0.
package firmware

import (
	"encoding/binary"
	"strings"

	"github.com/linuxboot/rvboot/pkg/boot"
	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/sigverify"
	"github.com/linuxboot/rvboot/pkg/soc"
	"github.com/linuxboot/rvboot/pkg/uart"
)

// Entry words select the stage programs on the SoC model.
const (
	ROMExtEntryWord uint32 = 0x54584552 // "REXT"
	BL0EntryWord    uint32 = 0x20304c42 // "BL0 "
)

// Config is what a stage is built with.
type Config struct {
	Map memmap.MemoryMap
	// TrustedKey is the raw X||Y P-256 key images must be signed with.
	TrustedKey []byte
	// Trace, if set, receives every loader state of every stage.
	Trace func(stage string, s boot.State)
}

func payload(word uint32, banner string) []byte {
	b := make([]byte, 4, 4+len(banner))
	binary.LittleEndian.PutUint32(b, word)
	return append(b, banner...)
}

// ROMExtPayload returns the ROM_EXT payload: its entry word followed by an
// identification string.
func ROMExtPayload() []byte {
	return payload(ROMExtEntryWord, "rvboot ROM_EXT")
}

// BL0Payload returns the BL0 payload.
func BL0Payload() []byte {
	return payload(BL0EntryWord, "rvboot BL0")
}

// console initializes the UART and prints the stage banner. A stage that
// cannot bring up its UART parks.
func console(h *soc.Hart, cfg Config, name string) *uart.UART {
	u := uart.New(h, cfg.Map.UART.Base)
	if err := u.Init(); err != nil {
		for {
			h.WFI()
		}
	}
	_, _ = u.Write([]byte(name + "\n"))
	return u
}

func loader(h *soc.Hart, cfg Config, u *uart.UART, name string) *boot.Loader {
	l := &boot.Loader{
		Hart:    h,
		Map:     cfg.Map,
		Console: u,
	}
	// An unusable key leaves the verifier unset, which fails every image.
	if v, err := sigverify.NewP256Verifier(cfg.TrustedKey); err == nil {
		l.Verifier = v
	}
	if cfg.Trace != nil {
		l.Observe = func(s boot.State) { cfg.Trace(name, s) }
	}
	return l
}

// ROM returns the mask ROM reset program. It loads ROM_EXT.
func ROM(cfg Config) soc.Program {
	return func(h *soc.Hart) {
		u := console(h, cfg, "ROM")
		loader(h, cfg, u, "ROM").Boot(boot.Stage{
			Name:      "ROM",
			ImageBase: cfg.Map.ROMExtImageBase,
			Expect:    bootimg.TypeROMExt,
		})
	}
}

// ROMExt returns the ROM_EXT program. It loads BL0 with the same checks as
// the ROM applies to ROM_EXT.
func ROMExt(cfg Config) soc.Program {
	return func(h *soc.Hart) {
		u := console(h, cfg, "ROM_EXT")
		loader(h, cfg, u, "ROM_EXT").Boot(boot.Stage{
			Name:      "ROM_EXT",
			ImageBase: cfg.Map.BL0ImageBase,
			Expect:    bootimg.TypeBL0,
		})
	}
}

// BL0 returns the BL0 program: it prints its banner and idles.
func BL0(cfg Config) soc.Program {
	return func(h *soc.Hart) {
		console(h, cfg, "BL0")
		for {
			h.WFI()
		}
	}
}

// Install registers the ROM_EXT and BL0 programs on m.
func Install(m *soc.Machine, cfg Config) {
	m.Register(ROMExtEntryWord, ROMExt(cfg))
	m.Register(BL0EntryWord, BL0(cfg))
}

// ReachedBL0 reports whether a run ended idle in BL0.
func ReachedBL0(res *soc.Result) bool {
	if res == nil || !res.Idle {
		return false
	}
	lines := strings.Split(strings.TrimSuffix(res.Console, "\n"), "\n")
	return lines[len(lines)-1] == "BL0"
}
