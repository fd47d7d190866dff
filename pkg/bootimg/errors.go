// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootimg

import (
	"fmt"
)

// Check identifies one of the header acceptance checks. The numeric value
// doubles as the diagnostic code emitted by a halting stage.
type Check uint8

// Header checks, in the order Validate performs them.
const (
	CheckMagic Check = iota + 1
	CheckVersion
	CheckHeaderLen
	CheckImageType
	CheckPayloadAlign
	CheckSigAlign
	CheckLoadAlign
	CheckEntryAlign
	CheckSigLen
	CheckPayloadOverlap
	CheckPayloadBounds
	CheckSigBounds
	CheckLoadBounds
	CheckEntryBounds
)

// Checks lists every header check in validation order.
var Checks = []Check{
	CheckMagic,
	CheckVersion,
	CheckHeaderLen,
	CheckImageType,
	CheckPayloadAlign,
	CheckSigAlign,
	CheckLoadAlign,
	CheckEntryAlign,
	CheckSigLen,
	CheckPayloadOverlap,
	CheckPayloadBounds,
	CheckSigBounds,
	CheckLoadBounds,
	CheckEntryBounds,
}

var checkText = map[Check]string{
	CheckMagic:          "BAD MAGIC",
	CheckVersion:        "BAD HDR VER",
	CheckHeaderLen:      "BAD HDR LEN",
	CheckImageType:      "BAD IMG TYPE",
	CheckPayloadAlign:   "PAYLOAD ALIGN",
	CheckSigAlign:       "SIG ALIGN",
	CheckLoadAlign:      "LOAD ALIGN",
	CheckEntryAlign:     "ENTRY ALIGN",
	CheckSigLen:         "SIG LEN",
	CheckPayloadOverlap: "PAYLOAD OVERLAP",
	CheckPayloadBounds:  "PAYLOAD OOB",
	CheckSigBounds:      "SIG OOB",
	CheckLoadBounds:     "LOAD OOB",
	CheckEntryBounds:    "ENTRY OOB",
}

// String returns the fixed diagnostic text of the check.
func (c Check) String() string {
	if s, ok := checkText[c]; ok {
		return s
	}
	return fmt.Sprintf("CHECK %d", uint8(c))
}

// HeaderError means the boot header failed Check. Value holds the
// offending field value.
type HeaderError struct {
	Check Check
	Value uint32
}

func (err *HeaderError) Error() string {
	return fmt.Sprintf("%s (value %#x)", err.Check, err.Value)
}

// Is matches any *HeaderError carrying the same Check, so that
// errors.Is(err, &HeaderError{Check: CheckMagic}) works regardless of Value.
func (err *HeaderError) Is(target error) bool {
	t, ok := target.(*HeaderError)
	if !ok {
		return false
	}
	return t.Check == err.Check
}
