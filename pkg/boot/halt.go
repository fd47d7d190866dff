// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boot

import (
	"errors"
	"fmt"

	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

// ErrReturnedFromEntry means the code the loader jumped to came back.
var ErrReturnedFromEntry = errors.New("returned from entry point")

// Code is the numeric diagnostic code of a failure. Header checks use the
// value of their bootimg.Check.
type Code uint8

// Failure codes other than header checks.
const (
	CodeSignature Code = 0x20
	CodeReturned  Code = 0x30
	CodeBusFault  Code = 0x40
	CodeUnknown   Code = 0xff
)

// CodeOf maps an error to its diagnostic code.
func CodeOf(err error) Code {
	var (
		herr *bootimg.HeaderError
		serr *sigverify.SignatureError
		berr *BusFaultError
	)
	switch {
	case errors.As(err, &herr):
		return Code(herr.Check)
	case errors.As(err, &serr):
		return CodeSignature
	case errors.Is(err, ErrReturnedFromEntry):
		return CodeReturned
	case errors.As(err, &berr):
		return CodeBusFault
	}
	return CodeUnknown
}

func reason(err error) string {
	var herr *bootimg.HeaderError
	switch code := CodeOf(err); {
	case errors.As(err, &herr):
		return herr.Check.String()
	case code == CodeSignature:
		return "SIG FAIL"
	case code == CodeReturned:
		return "RETURNED"
	case code == CodeBusFault:
		return "BUS FAULT"
	}
	return "FAIL"
}

// Diagnostic returns the one-line failure message of a stage, e.g.
// "ROM_EXT: BAD MAGIC (E01)".
func Diagnostic(stage string, err error) string {
	return fmt.Sprintf("%s: %s (E%02X)", stage, reason(err), uint8(CodeOf(err)))
}

// Halt emits the diagnostic of err and parks the hart for good.
func (l *Loader) Halt(st Stage, err error) {
	l.printf("%s\n", Diagnostic(st.Name, err))
	l.observe(Halted)
	for {
		l.Hart.WFI()
	}
}
