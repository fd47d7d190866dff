// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package soc is a host-side model of the boot SoC: two SRAMs, the UART
// register block and a single hart.
//
// Instructions are not interpreted. The 32-bit word fetched at a jump
// target selects a registered Program, which runs on the hart goroutine.
// Instruction fetch reads a separate view of the execution SRAM that only
// FenceI refreshes, so a jump issued without a barrier fetches stale code.
package soc

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/region"
)

// Debug can be set to a log function to trace the machine.
var Debug = func(format string, v ...interface{}) {}

// Program is the behavior selected by an entry word.
type Program func(h *Hart)

type ram struct {
	region.Region
	mem []byte
}

func newRAM(r region.Region) *ram {
	return &ram{Region: r, mem: make([]byte, r.Size)}
}

func (r *ram) slice(addr, length uint32) ([]byte, bool) {
	off, ok := r.Offset(addr, length)
	if !ok {
		return nil, false
	}
	return r.mem[off : off+length], true
}

// Machine is the SoC. Memory contents survive across Run calls, the hart
// state does not.
type Machine struct {
	mm       memmap.MemoryMap
	data     *ram
	exec     *ram
	fetch    []byte
	uart     *uartDevice
	programs map[uint32]Program
}

// New returns a machine laid out according to mm.
func New(mm memmap.MemoryMap) (*Machine, error) {
	if err := mm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid memory map: %w", err)
	}
	return &Machine{
		mm:       mm,
		data:     newRAM(mm.Data),
		exec:     newRAM(mm.Exec),
		fetch:    make([]byte, mm.Exec.Size),
		uart:     &uartDevice{base: mm.UART.Base},
		programs: map[uint32]Program{},
	}, nil
}

// Map returns the memory map of the machine.
func (m *Machine) Map() memmap.MemoryMap {
	return m.mm
}

func (m *Machine) ramAt(addr, length uint32) ([]byte, bool) {
	if b, ok := m.data.slice(addr, length); ok {
		return b, true
	}
	return m.exec.slice(addr, length)
}

// Load preloads blob at addr, the way a test bench fills SRAM before
// releasing reset.
func (m *Machine) Load(addr uint32, blob []byte) error {
	if len(blob) == 0 {
		return nil
	}
	if uint64(len(blob)) > 1<<32-1 {
		return fmt.Errorf("blob too large: %d bytes", len(blob))
	}
	dst, ok := m.ramAt(addr, uint32(len(blob)))
	if !ok {
		return fmt.Errorf("blob [%#08x, +%#x) does not fit in a single SRAM", addr, len(blob))
	}
	copy(dst, blob)
	return nil
}

// Dump returns a copy of length bytes of SRAM at addr.
func (m *Machine) Dump(addr, length uint32) ([]byte, error) {
	src, ok := m.ramAt(addr, length)
	if !ok {
		return nil, fmt.Errorf("[%#08x, +%#x) is not SRAM", addr, length)
	}
	return append([]byte(nil), src...), nil
}

// Register binds p to the entry word w.
func (m *Machine) Register(w uint32, p Program) {
	m.programs[w] = p
}

// Trap is an exception the hart cannot handle. It ends the run.
type Trap struct {
	Cause string
	Addr  uint32
}

func (t *Trap) Error() string {
	return fmt.Sprintf("trap: %s at %#08x", t.Cause, t.Addr)
}

// Result describes how a run ended.
type Result struct {
	// Idle is set if the hart parked itself in WFI.
	Idle bool
	// Trap is set if the hart took an exception.
	Trap *Trap
	// Console is everything transmitted on the UART.
	Console string
	// Jumps lists every jump target in order.
	Jumps []uint32
	// Fences counts instruction fetch barriers.
	Fences int
}

// Run releases reset: it runs reset on a fresh hart and waits until the hart
// idles, traps or ctx is done. The hart notices cancellation on its next bus
// access.
func (m *Machine) Run(ctx context.Context, reset Program) (*Result, error) {
	copy(m.fetch, m.exec.mem)
	m.uart.reset()

	h := &Hart{m: m, ctx: ctx, res: &Result{}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		reset(h)
		h.trap("reset program returned", 0)
	}()
	<-done

	h.res.Console = m.uart.tx.String()
	if h.res.Idle || h.res.Trap != nil {
		return h.res, nil
	}
	return h.res, ctx.Err()
}

// Hart is the single hardware thread. Its methods must only be called from
// the Program it runs.
type Hart struct {
	m   *Machine
	ctx context.Context
	res *Result
}

// Map returns the memory map of the machine the hart belongs to.
func (h *Hart) Map() memmap.MemoryMap {
	return h.m.mm
}

func (h *Hart) checkCancel() {
	if h.ctx.Err() != nil {
		Debug("hart: %v", h.ctx.Err())
		runtime.Goexit()
	}
}

func (h *Hart) trap(cause string, addr uint32) {
	h.res.Trap = &Trap{Cause: cause, Addr: addr}
	Debug("hart: %v", h.res.Trap)
	runtime.Goexit()
}

// AccessError means no device decodes an access.
type AccessError struct {
	Op     string
	Addr   uint32
	Length uint32
}

func (err *AccessError) Error() string {
	return fmt.Sprintf("%s of %d bytes at %#08x is not decoded", err.Op, err.Length, err.Addr)
}

// Read copies SRAM contents into p.
func (h *Hart) Read(addr uint32, p []byte) error {
	h.checkCancel()
	src, ok := h.m.ramAt(addr, uint32(len(p)))
	if !ok {
		return &AccessError{Op: "read", Addr: addr, Length: uint32(len(p))}
	}
	copy(p, src)
	return nil
}

// Write8 stores a byte to SRAM.
func (h *Hart) Write8(addr uint32, v byte) error {
	h.checkCancel()
	dst, ok := h.m.ramAt(addr, 1)
	if !ok {
		return &AccessError{Op: "write", Addr: addr, Length: 1}
	}
	dst[0] = v
	return nil
}

// Read32 loads a word from SRAM or a device register.
func (h *Hart) Read32(addr uint32) (uint32, error) {
	h.checkCancel()
	if addr%4 != 0 {
		return 0, &AccessError{Op: "misaligned read", Addr: addr, Length: 4}
	}
	if h.m.mm.UART.Contains(addr, 4) {
		return h.m.uart.read32(addr), nil
	}
	src, ok := h.m.ramAt(addr, 4)
	if !ok {
		return 0, &AccessError{Op: "read", Addr: addr, Length: 4}
	}
	return binary.LittleEndian.Uint32(src), nil
}

// Write32 stores a word to SRAM or a device register.
func (h *Hart) Write32(addr uint32, v uint32) error {
	h.checkCancel()
	if addr%4 != 0 {
		return &AccessError{Op: "misaligned write", Addr: addr, Length: 4}
	}
	if h.m.mm.UART.Contains(addr, 4) {
		h.m.uart.write32(addr, v)
		return nil
	}
	dst, ok := h.m.ramAt(addr, 4)
	if !ok {
		return &AccessError{Op: "write", Addr: addr, Length: 4}
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}

// FenceI makes all prior stores to the execution SRAM visible to
// instruction fetch.
func (h *Hart) FenceI() {
	h.checkCancel()
	copy(h.m.fetch, h.m.exec.mem)
	h.res.Fences++
	Debug("hart: fence.i")
}

// Jump fetches the entry word at entry and runs the program it selects.
// It returns if that program returns. Fetching outside the execution SRAM,
// or a word no program is registered for, traps.
func (h *Hart) Jump(entry uint32) {
	h.checkCancel()
	h.res.Jumps = append(h.res.Jumps, entry)
	if entry%4 != 0 {
		h.trap("instruction address misaligned", entry)
	}
	off, ok := h.m.exec.Offset(entry, 4)
	if !ok {
		h.trap("instruction access fault", entry)
	}
	w := binary.LittleEndian.Uint32(h.m.fetch[off:])
	p, ok := h.m.programs[w]
	if !ok {
		h.trap(fmt.Sprintf("illegal instruction %#08x", w), entry)
	}
	Debug("hart: jump to %#08x, entry word %#08x", entry, w)
	p(h)
}

// WFI parks the hart. No interrupt source is modelled, so it never wakes.
func (h *Hart) WFI() {
	h.res.Idle = true
	Debug("hart: wfi")
	runtime.Goexit()
}
