// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootimg

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

const (
	// BindingRecordSize is the size of the encoded BindingRecord.
	BindingRecordSize = 16
	// DigestSize is the size of the image digest.
	DigestSize = sha256.Size
)

// BindingRecord is the subset of header fields covered by the signature.
// Hashing it ahead of the payload ties the signature to where the payload
// is placed and where execution starts.
type BindingRecord struct {
	ImageType  ImageType
	PayloadLen uint32
	LoadAddr   uint32
	EntryAddr  uint32
}

// Binding returns the binding record of the header.
func (h *Header) Binding() BindingRecord {
	return BindingRecord{
		ImageType:  h.ImageType,
		PayloadLen: h.PayloadLen,
		LoadAddr:   h.LoadAddr,
		EntryAddr:  h.EntryAddr,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b BindingRecord) MarshalBinary() ([]byte, error) {
	return b.bytes(), nil
}

func (b BindingRecord) bytes() []byte {
	buf := make([]byte, BindingRecordSize)
	binary.LittleEndian.PutUint32(buf[0:], uint32(b.ImageType))
	binary.LittleEndian.PutUint32(buf[4:], b.PayloadLen)
	binary.LittleEndian.PutUint32(buf[8:], b.LoadAddr)
	binary.LittleEndian.PutUint32(buf[12:], b.EntryAddr)
	return buf
}

// NewDigest returns a SHA-256 state already fed with the binding record of
// h. The caller writes the payload and calls Sum.
func NewDigest(h *Header) hash.Hash {
	d := sha256.New()
	d.Write(h.Binding().bytes())
	return d
}

// Digest returns SHA-256(binding record || payload).
func Digest(h *Header, payload []byte) [DigestSize]byte {
	d := NewDigest(h)
	d.Write(payload)
	var out [DigestSize]byte
	copy(out[:], d.Sum(nil))
	return out
}
