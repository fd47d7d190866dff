// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package soc

import (
	"bytes"

	"github.com/linuxboot/rvboot/pkg/uart"
)

// txFIFODepth is the number of bytes the transmitter accepts before it
// reports full. A status read that reports full empties the FIFO.
const txFIFODepth = 16

type uartDevice struct {
	base    uint32
	ctrl    uint32
	pending int
	tx      bytes.Buffer
}

func (u *uartDevice) reset() {
	u.ctrl = 0
	u.pending = 0
	u.tx.Reset()
}

func (u *uartDevice) read32(addr uint32) uint32 {
	switch addr - u.base {
	case uart.CtrlOff:
		return u.ctrl
	case uart.StatusOff:
		if u.pending >= txFIFODepth {
			u.pending = 0
			return uart.StatusTXFull
		}
		return 0
	}
	return 0
}

func (u *uartDevice) write32(addr uint32, v uint32) {
	switch addr - u.base {
	case uart.CtrlOff:
		u.ctrl = v
		Debug("uart: ctrl %#08x", v)
	case uart.WDataOff:
		if u.ctrl&uart.CtrlTXEnable == 0 {
			Debug("uart: dropped %#02x, transmitter disabled", v&0xff)
			return
		}
		u.pending++
		u.tx.WriteByte(byte(v))
	}
}
