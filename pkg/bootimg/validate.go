// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootimg

import (
	"github.com/hashicorp/go-multierror"

	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/region"
)

type checkFunc func(h *Header, base uint32, expected ImageType, mm memmap.MemoryMap) (value uint32, ok bool)

var checkFuncs = map[Check]checkFunc{
	CheckMagic: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.Magic, h.Magic == Magic
	},
	CheckVersion: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return uint32(h.Version), h.Version == Version
	},
	CheckHeaderLen: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return uint32(h.HeaderLen), h.HeaderLen == HeaderSize
	},
	CheckImageType: func(h *Header, _ uint32, expected ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return uint32(h.ImageType), h.ImageType == expected
	},
	CheckPayloadAlign: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.PayloadOff, aligned(h.PayloadOff)
	},
	CheckSigAlign: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.SigOff, aligned(h.SigOff)
	},
	CheckLoadAlign: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.LoadAddr, aligned(h.LoadAddr)
	},
	CheckEntryAlign: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.EntryAddr, aligned(h.EntryAddr)
	},
	CheckSigLen: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.SigLen, h.SigLen == SignatureSize
	},
	CheckPayloadOverlap: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		return h.PayloadOff, h.PayloadOff >= uint32(h.HeaderLen)
	},
	CheckPayloadBounds: func(h *Header, base uint32, _ ImageType, mm memmap.MemoryMap) (uint32, bool) {
		src, overflow := region.AddOverflow(base, h.PayloadOff)
		return src, !overflow && mm.Data.Contains(src, h.PayloadLen)
	},
	CheckSigBounds: func(h *Header, base uint32, _ ImageType, mm memmap.MemoryMap) (uint32, bool) {
		src, overflow := region.AddOverflow(base, h.SigOff)
		return src, !overflow && mm.Data.Contains(src, h.SigLen)
	},
	CheckLoadBounds: func(h *Header, _ uint32, _ ImageType, mm memmap.MemoryMap) (uint32, bool) {
		return h.LoadAddr, mm.Exec.Contains(h.LoadAddr, h.PayloadLen)
	},
	CheckEntryBounds: func(h *Header, _ uint32, _ ImageType, _ memmap.MemoryMap) (uint32, bool) {
		end := uint64(h.LoadAddr) + uint64(h.PayloadLen)
		return h.EntryAddr, h.EntryAddr >= h.LoadAddr && uint64(h.EntryAddr) < end
	},
}

func aligned(v uint32) bool {
	return v%memmap.Alignment == 0
}

// Validate runs every header check against the container at base, in
// order, and returns the first failure as a *HeaderError. A nil return
// means the header is acceptable; there is no partial acceptance.
//
// Container-relative addresses (base+PayloadOff, base+SigOff) are computed
// with carry detection: a sum that wraps is reported as out of bounds.
func Validate(h *Header, base uint32, expected ImageType, mm memmap.MemoryMap) error {
	for _, c := range Checks {
		if value, ok := checkFuncs[c](h, base, expected, mm); !ok {
			return &HeaderError{Check: c, Value: value}
		}
	}
	return nil
}

// Audit is like Validate, but it does not stop at the first failure and
// returns all of them.
func Audit(h *Header, base uint32, expected ImageType, mm memmap.MemoryMap) error {
	var result *multierror.Error
	for _, c := range Checks {
		if value, ok := checkFuncs[c](h, base, expected, mm); !ok {
			result = multierror.Append(result, &HeaderError{Check: c, Value: value})
		}
	}
	return result.ErrorOrNil()
}
