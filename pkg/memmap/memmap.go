// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memmap describes the SoC address map shared by every boot stage,
// the image packer and the simulator.
//
// All parties of the chain of trust must agree on these values: an image
// packed against one map and booted against another may be accepted while
// being placed somewhere its signer never intended. Keeping a single schema
// (and a single file, see Load) is the only mitigation, the boot stages
// cannot detect the mismatch themselves.
package memmap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/linuxboot/rvboot/pkg/region"
)

// Alignment is the required alignment of container bases and load
// addresses.
const Alignment = 4

// MemoryMap is the static address map of the SoC.
type MemoryMap struct {
	// Data is the Image/Data region (D-SRAM): image containers, payloads at
	// rest and signatures live here.
	Data region.Region `yaml:"data"`
	// Exec is the Execution region payloads are copied to.
	Exec region.Region `yaml:"exec"`
	// UART is the status/UART register block.
	UART region.Region `yaml:"uart"`

	ROMExtImageBase uint32 `yaml:"rom_ext_image_base"`
	BL0ImageBase    uint32 `yaml:"bl0_image_base"`
	ROMExtLoadAddr  uint32 `yaml:"rom_ext_load_addr"`
	BL0LoadAddr     uint32 `yaml:"bl0_load_addr"`
}

// Default returns the reference memory map.
func Default() MemoryMap {
	return MemoryMap{
		Data:            region.Region{Base: 0x00020000, Size: 0x00010000},
		Exec:            region.Region{Base: 0x00010000, Size: 0x00010000},
		UART:            region.Region{Base: 0x00030000, Size: 0x00000100},
		ROMExtImageBase: 0x00021000,
		BL0ImageBase:    0x00023000,
		ROMExtLoadAddr:  0x00010000,
		BL0LoadAddr:     0x00012000,
	}
}

// Parse decodes a YAML memory map. Keys absent from the document keep
// their Default value; unknown keys are an error. The result is validated.
func Parse(b []byte) (MemoryMap, error) {
	m := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return MemoryMap{}, fmt.Errorf("unable to parse memory map: %w", err)
	}
	if err := m.Validate(); err != nil {
		return MemoryMap{}, err
	}
	return m, nil
}

// Load reads and parses the memory map file at path.
func Load(path string) (MemoryMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return MemoryMap{}, fmt.Errorf("unable to read memory map '%s': %w", path, err)
	}
	return Parse(b)
}

// Marshal encodes the memory map as YAML.
func (m MemoryMap) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// Validate checks the internal consistency of the map and returns every
// violation found.
func (m MemoryMap) Validate() error {
	var result *multierror.Error

	named := []struct {
		name string
		r    region.Region
	}{
		{"data", m.Data},
		{"exec", m.Exec},
		{"uart", m.UART},
	}
	for _, n := range named {
		if n.r.Size == 0 {
			result = multierror.Append(result, fmt.Errorf("%s region is empty", n.name))
			continue
		}
		if n.r.End() > 1<<32-1 {
			result = multierror.Append(result, fmt.Errorf("%s region %s runs past the end of the address space", n.name, n.r))
		}
	}
	for i := range named {
		for j := i + 1; j < len(named); j++ {
			if named[i].r.Overlaps(named[j].r) {
				result = multierror.Append(result, fmt.Errorf("%s region %s overlaps %s region %s",
					named[i].name, named[i].r, named[j].name, named[j].r))
			}
		}
	}

	for _, c := range []struct {
		name   string
		addr   uint32
		within region.Region
	}{
		{"rom_ext_image_base", m.ROMExtImageBase, m.Data},
		{"bl0_image_base", m.BL0ImageBase, m.Data},
		{"rom_ext_load_addr", m.ROMExtLoadAddr, m.Exec},
		{"bl0_load_addr", m.BL0LoadAddr, m.Exec},
	} {
		if c.addr%Alignment != 0 {
			result = multierror.Append(result, fmt.Errorf("%s %#08x is not %d-byte aligned", c.name, c.addr, Alignment))
		}
		if !c.within.ContainsAddr(c.addr) {
			result = multierror.Append(result, fmt.Errorf("%s %#08x is outside %s", c.name, c.addr, c.within))
		}
	}

	return result.ErrorOrNil()
}
