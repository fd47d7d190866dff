// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imagetool packs signed image containers into a D-SRAM image.
package imagetool

import (
	"fmt"

	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/region"
)

// Placement is a container together with the address it is placed at.
type Placement struct {
	Base      uint32
	Container *bootimg.Container
}

// Region returns the span the encoded container occupies.
func (p Placement) Region() (region.Region, error) {
	b, err := p.Container.Bytes()
	if err != nil {
		return region.Region{}, err
	}
	return region.Region{Base: p.Base, Size: uint32(len(b))}, nil
}

// Containers builds the ROM_EXT and BL0 containers for mm. Each payload is
// loaded and entered at the load address mm assigns to its type. A nil
// signer leaves zeroed signature placeholders.
func Containers(mm memmap.MemoryMap, signer bootimg.Signer, romExt, bl0 []byte) ([]Placement, error) {
	romExtC, err := bootimg.Build(bootimg.TypeROMExt, romExt, mm.ROMExtLoadAddr, mm.ROMExtLoadAddr, signer)
	if err != nil {
		return nil, fmt.Errorf("ROM_EXT: %w", err)
	}
	bl0C, err := bootimg.Build(bootimg.TypeBL0, bl0, mm.BL0LoadAddr, mm.BL0LoadAddr, signer)
	if err != nil {
		return nil, fmt.Errorf("BL0: %w", err)
	}
	return []Placement{
		{Base: mm.ROMExtImageBase, Container: romExtC},
		{Base: mm.BL0ImageBase, Container: bl0C},
	}, nil
}

// Place lays the placements out in a zero filled image of the Data region.
// Every container must fit in Data and containers must not overlap.
func Place(mm memmap.MemoryMap, placements []Placement) ([]byte, error) {
	out := make([]byte, mm.Data.Size)
	var used []region.Region
	for _, p := range placements {
		b, err := p.Container.Bytes()
		if err != nil {
			return nil, err
		}
		r := region.Region{Base: p.Base, Size: uint32(len(b))}
		off, ok := mm.Data.Offset(r.Base, r.Size)
		if !ok {
			return nil, fmt.Errorf("%s container %s does not fit in data region %s", p.Container.Header.ImageType, r, mm.Data)
		}
		for _, u := range used {
			if r.Overlaps(u) {
				return nil, fmt.Errorf("%s container %s overlaps container %s", p.Container.Header.ImageType, r, u)
			}
		}
		used = append(used, r)
		copy(out[off:], b)
	}
	return out, nil
}

// DataImage is Containers followed by Place.
func DataImage(mm memmap.MemoryMap, signer bootimg.Signer, romExt, bl0 []byte) ([]byte, error) {
	placements, err := Containers(mm, signer, romExt, bl0)
	if err != nil {
		return nil, err
	}
	return Place(mm, placements)
}
