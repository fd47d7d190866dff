// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uart drives the transmit side of the SoC UART.
package uart

import (
	"errors"
)

// Register offsets from the UART base.
const (
	CtrlOff   = 0x10
	StatusOff = 0x14
	WDataOff  = 0x1C
)

// Register bits.
const (
	StatusTXFull = 1 << 0
	CtrlTXEnable = 1 << 0
	// NCO for 115200 baud from a 10 MHz clock.
	NCO115200 = 0x2F30
)

// ErrNotInitialized is returned when transmitting before Init.
var ErrNotInitialized = errors.New("uart: not initialized")

// Registers is 32-bit MMIO access.
type Registers interface {
	Read32(addr uint32) (uint32, error)
	Write32(addr uint32, v uint32) error
}

// UART is a transmit-only UART driver.
//
// Init must be called once by the startup sequence before the first
// transmit. The UART is never reset afterwards.
type UART struct {
	regs        Registers
	base        uint32
	initialized bool
}

// New returns a driver for the UART at base.
func New(regs Registers, base uint32) *UART {
	return &UART{regs: regs, base: base}
}

// Init enables the transmitter. Calling it again is a no-op.
func (u *UART) Init() error {
	if u.initialized {
		return nil
	}
	if err := u.regs.Write32(u.base+CtrlOff, NCO115200<<16|CtrlTXEnable); err != nil {
		return err
	}
	u.initialized = true
	return nil
}

// Putc transmits one byte, spinning while the TX FIFO is full.
func (u *UART) Putc(c byte) error {
	if !u.initialized {
		return ErrNotInitialized
	}
	for {
		status, err := u.regs.Read32(u.base + StatusOff)
		if err != nil {
			return err
		}
		if status&StatusTXFull == 0 {
			break
		}
	}
	return u.regs.Write32(u.base+WDataOff, uint32(c))
}

// Write implements io.Writer.
func (u *UART) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := u.Putc(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

const hexDigits = "0123456789ABCDEF"

// PutHex32 transmits v as eight upper case hex digits.
func (u *UART) PutHex32(v uint32) error {
	for shift := 28; shift >= 0; shift -= 4 {
		if err := u.Putc(hexDigits[(v>>uint(shift))&0xF]); err != nil {
			return err
		}
	}
	return nil
}

// PutHex8 transmits v as two upper case hex digits.
func (u *UART) PutHex8(v uint8) error {
	if err := u.Putc(hexDigits[v>>4]); err != nil {
		return err
	}
	return u.Putc(hexDigits[v&0xF])
}
