// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bootimg implements the boot image container: the fixed 64-byte
// boot header, its validation, and the digest binding header metadata to
// the payload.
//
// A container is an addressing convention rather than a single structure:
//
//	header    = base
//	payload   = base + PayloadOff   (PayloadLen bytes)
//	signature = base + SigOff       (SignatureSize bytes, raw r||s)
package bootimg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// constants of the version 1 container format
const (
	// Magic is "IMG0" read as a little-endian word.
	Magic = 0x30474D49
	// Version is the only supported header version.
	Version = 1
	// HeaderSize is the size of the encoded Header.
	HeaderSize = 64
	// SignatureSize is the size of a raw ECDSA P-256 r||s signature.
	SignatureSize = 64
)

// ImageType identifies what kind of image a container holds.
type ImageType uint32

// Known image types.
const (
	TypeROMExt ImageType = 1
	TypeBL0    ImageType = 2
)

var imageTypeNames = map[ImageType]string{
	TypeROMExt: "ROM_EXT",
	TypeBL0:    "BL0",
}

func (t ImageType) String() string {
	if name, ok := imageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ImageType(%#x)", uint32(t))
}

// ParseImageType parses a type name (case insensitive) or a number.
func ParseImageType(s string) (ImageType, error) {
	for t, name := range imageTypeNames {
		if strings.EqualFold(name, s) || strings.EqualFold(strings.ReplaceAll(name, "_", ""), s) {
			return t, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown image type '%s'", s)
	}
	return ImageType(v), nil
}

// Header is the on-medium boot header. Field order and sizes are part of
// the format.
type Header struct {
	Magic      uint32
	Version    uint16
	HeaderLen  uint16
	ImageType  ImageType
	PayloadOff uint32
	PayloadLen uint32
	LoadAddr   uint32
	EntryAddr  uint32
	SigOff     uint32
	SigLen     uint32
	Reserved   [7]uint32
}

// NewHeader returns a header with the fixed fields filled in.
func NewHeader(t ImageType, payloadOff, payloadLen, loadAddr, entryAddr, sigOff uint32) *Header {
	return &Header{
		Magic:      Magic,
		Version:    Version,
		HeaderLen:  HeaderSize,
		ImageType:  t,
		PayloadOff: payloadOff,
		PayloadLen: payloadLen,
		LoadAddr:   loadAddr,
		EntryAddr:  entryAddr,
		SigOff:     sigOff,
		SigLen:     SignatureSize,
	}
}

// Parse decodes a Header from the first HeaderSize bytes of b. Only the
// layout is decoded; see Validate for the semantic checks.
func Parse(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("short boot header length %d; want at least %d", len(b), HeaderSize)
	}
	var hdr Header
	if err := binary.Read(bytes.NewReader(b[:HeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	return &hdr, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Summary prints a multi-line summary of the header's content.
func (h *Header) Summary() string {
	s := fmt.Sprintf("Magic          : %#08x\n", h.Magic)
	s += fmt.Sprintf("Header Version : %d\n", h.Version)
	s += fmt.Sprintf("Header Length  : %d\n", h.HeaderLen)
	s += fmt.Sprintf("Image Type     : %s\n", h.ImageType)
	s += fmt.Sprintf("Payload Offset : %#08x\n", h.PayloadOff)
	s += fmt.Sprintf("Payload Length : %#08x (%s)\n", h.PayloadLen, humanize.IBytes(uint64(h.PayloadLen)))
	s += fmt.Sprintf("Load Address   : %#08x\n", h.LoadAddr)
	s += fmt.Sprintf("Entry Address  : %#08x\n", h.EntryAddr)
	s += fmt.Sprintf("Sig Offset     : %#08x\n", h.SigOff)
	s += fmt.Sprintf("Sig Length     : %d\n", h.SigLen)
	if h.Reserved != [7]uint32{} {
		s += "Reserved       : not zeroed\n"
	}
	return s
}
