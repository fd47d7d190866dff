// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootimg

import (
	"fmt"

	"github.com/linuxboot/rvboot/pkg/region"
)

// Signer produces a raw SignatureSize-byte signature over an image digest.
type Signer interface {
	Sign(digest [DigestSize]byte) ([]byte, error)
}

// Container is a decoded image container.
type Container struct {
	Header    Header
	Payload   []byte
	Signature []byte
}

// Build lays out a container the way the packing tool does: the payload
// right after the header and the signature at the next 4-byte boundary
// after the payload. A nil signer leaves a zeroed signature placeholder.
func Build(t ImageType, payload []byte, loadAddr, entryAddr uint32, signer Signer) (*Container, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if uint64(len(payload)) > 1<<32-1-HeaderSize-SignatureSize-3 {
		return nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}
	payloadLen := uint32(len(payload))
	sigOff := alignUp(HeaderSize + payloadLen)

	c := &Container{
		Header:    *NewHeader(t, HeaderSize, payloadLen, loadAddr, entryAddr, sigOff),
		Payload:   append([]byte(nil), payload...),
		Signature: make([]byte, SignatureSize),
	}
	if signer == nil {
		return c, nil
	}
	sig, err := signer.Sign(Digest(&c.Header, c.Payload))
	if err != nil {
		return nil, fmt.Errorf("unable to sign %s image: %w", t, err)
	}
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("signer returned %d bytes, expected %d", len(sig), SignatureSize)
	}
	copy(c.Signature, sig)
	return c, nil
}

func alignUp(v uint32) uint32 {
	return (v + 3) &^ 3
}

// Bytes encodes the container: header, payload at PayloadOff, signature at
// SigOff, with zero fill in between.
func (c *Container) Bytes() ([]byte, error) {
	hdr, err := c.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	size := uint64(len(hdr))
	for _, span := range []struct {
		off uint32
		n   int
	}{
		{c.Header.PayloadOff, len(c.Payload)},
		{c.Header.SigOff, len(c.Signature)},
	} {
		if end := uint64(span.off) + uint64(span.n); end > size {
			size = end
		}
	}
	if size > 1<<32 {
		return nil, fmt.Errorf("container size %#x exceeds the address space", size)
	}
	out := make([]byte, size)
	copy(out, hdr)
	copy(out[c.Header.PayloadOff:], c.Payload)
	copy(out[c.Header.SigOff:], c.Signature)
	return out, nil
}

// DecodeContainer parses a container from b, where b[0] is the container
// base. Payload and signature spans are bounds checked against b only; use
// Validate for the placement checks.
func DecodeContainer(b []byte) (*Container, error) {
	hdr, err := Parse(b)
	if err != nil {
		return nil, err
	}
	payload, err := span(b, hdr.PayloadOff, hdr.PayloadLen)
	if err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	sig, err := span(b, hdr.SigOff, hdr.SigLen)
	if err != nil {
		return nil, fmt.Errorf("signature: %w", err)
	}
	return &Container{
		Header:    *hdr,
		Payload:   append([]byte(nil), payload...),
		Signature: append([]byte(nil), sig...),
	}, nil
}

func span(b []byte, off, length uint32) ([]byte, error) {
	end, overflow := region.AddOverflow(off, length)
	if overflow || uint64(end) > uint64(len(b)) {
		return nil, fmt.Errorf("span [%#x, +%#x) is outside of the %#x byte buffer", off, length, len(b))
	}
	return b[off:end], nil
}
