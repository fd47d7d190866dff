// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region implements overflow-safe range checks over the 32-bit
// physical address space of the SoC.
package region

import (
	"fmt"
	"math/bits"
)

// Region is a contiguous address range [Base, Base+Size).
type Region struct {
	Base uint32 `yaml:"base"`
	Size uint32 `yaml:"size"`
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return fmt.Sprintf("[%#08x, %#08x)", r.Base, r.End())
}

// End returns the exclusive end of the region. It is computed in 64 bits so
// that a region ending exactly at 4GiB does not wrap to zero.
func (r Region) End() uint64 {
	return uint64(r.Base) + uint64(r.Size)
}

// Contains returns true if [addr, addr+length) lies within the region.
// See also Contains.
func (r Region) Contains(addr, length uint32) bool {
	return Contains(addr, length, r.Base, r.Size)
}

// ContainsAddr returns true if the byte at addr lies within the region.
func (r Region) ContainsAddr(addr uint32) bool {
	return Contains(addr, 1, r.Base, r.Size)
}

// Overlaps returns true if regions "r" and "cmp" have at least one byte
// in common. Empty regions never overlap.
func (r Region) Overlaps(cmp Region) bool {
	if r.Size == 0 || cmp.Size == 0 {
		return false
	}
	if r.End() <= uint64(cmp.Base) {
		return false
	}
	if uint64(r.Base) >= cmp.End() {
		return false
	}
	return true
}

// Offset returns the offset of [addr, addr+length) from the region base.
// The second return value is false if the span is not contained.
func (r Region) Offset(addr, length uint32) (uint32, bool) {
	if !r.Contains(addr, length) {
		return 0, false
	}
	return addr - r.Base, true
}

// AddOverflow returns a+b and whether the addition carried past 2^32.
func AddOverflow(a, b uint32) (uint32, bool) {
	sum, carry := bits.Add32(a, b, 0)
	return sum, carry != 0
}

// Contains reports whether the span [addr, addr+length) lies inside
// [base, base+size).
//
// A zero length is never contained, and a span whose end wraps past
// 0xFFFFFFFF is rejected before any comparison takes place: a header
// claiming addr=0xFFFFFFF0, length=0x20 must not pass as a small end
// address.
func Contains(addr, length, base, size uint32) bool {
	if length == 0 {
		return false
	}
	end, overflow := AddOverflow(addr, length)
	if overflow {
		return false
	}
	return addr >= base && uint64(end) <= uint64(base)+uint64(size)
}
