// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootimg

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxboot/rvboot/pkg/memmap"
)

const testBase = 0x21000

func validHeader() *Header {
	return NewHeader(TypeROMExt, HeaderSize, 0x100, 0x10000, 0x10000, HeaderSize+0x100)
}

func TestHeaderLayout(t *testing.T) {
	b, err := validHeader().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, HeaderSize)
	assert.Equal(t, []byte("IMG0"), b[:4])
	assert.Equal(t, []byte{1, 0, 64, 0}, b[4:8])
	assert.Equal(t, []byte{0x40, 0x01, 0, 0}, b[28:32])
	assert.Equal(t, []byte{0x40, 0, 0, 0}, b[32:36])

	hdr, err := Parse(b)
	require.NoError(t, err)
	if diff := cmp.Diff(validHeader(), hdr); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShort(t *testing.T) {
	_, err := Parse(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestParseImageType(t *testing.T) {
	for in, want := range map[string]ImageType{
		"rom_ext": TypeROMExt,
		"ROMEXT":  TypeROMExt,
		"bl0":     TypeBL0,
		"0x3":     ImageType(3),
	} {
		got, err := ParseImageType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseImageType("kernel")
	assert.Error(t, err)
	assert.Equal(t, "ImageType(0x7)", ImageType(7).String())
}

func TestValidateAccepts(t *testing.T) {
	assert.NoError(t, Validate(validHeader(), testBase, TypeROMExt, memmap.Default()))
	assert.NoError(t, Audit(validHeader(), testBase, TypeROMExt, memmap.Default()))
}

func TestValidateRejects(t *testing.T) {
	for _, tt := range []struct {
		name   string
		modify func(h *Header)
		base   uint32
		want   Check
	}{
		{"magic_zero", func(h *Header) { h.Magic = 0 }, testBase, CheckMagic},
		{"version_2", func(h *Header) { h.Version = 2 }, testBase, CheckVersion},
		{"hdr_len_63", func(h *Header) { h.HeaderLen = 63 }, testBase, CheckHeaderLen},
		{"type_mismatch", func(h *Header) { h.ImageType = TypeBL0 }, testBase, CheckImageType},
		{"payload_off_odd", func(h *Header) { h.PayloadOff = 65 }, testBase, CheckPayloadAlign},
		{"sig_off_misaligned", func(h *Header) { h.SigOff = 0x142 }, testBase, CheckSigAlign},
		{"load_misaligned", func(h *Header) { h.LoadAddr = 0x10002 }, testBase, CheckLoadAlign},
		{"entry_misaligned", func(h *Header) { h.EntryAddr = 0x10002 }, testBase, CheckEntryAlign},
		{"sig_len_63", func(h *Header) { h.SigLen = 63 }, testBase, CheckSigLen},
		{"payload_overlaps_header", func(h *Header) { h.PayloadOff = 32 }, testBase, CheckPayloadOverlap},
		{"payload_past_data", func(h *Header) { h.PayloadLen = 0x10000 }, testBase, CheckPayloadBounds},
		{"payload_zero_length", func(h *Header) { h.PayloadLen = 0 }, testBase, CheckPayloadBounds},
		{"payload_off_wraps", func(h *Header) { h.PayloadOff = 0xfffff000 }, testBase, CheckPayloadBounds},
		{"container_base_wraps", func(h *Header) {}, 0xffffffc0, CheckPayloadBounds},
		{"sig_past_data", func(h *Header) { h.SigOff = 0x10000 }, testBase, CheckSigBounds},
		{"sig_off_wraps", func(h *Header) { h.SigOff = 0xffffeffc }, testBase, CheckSigBounds},
		{"load_past_exec", func(h *Header) { h.LoadAddr = 0x1ff80 }, testBase, CheckLoadBounds},
		{"load_below_exec", func(h *Header) { h.LoadAddr = 0xff80; h.EntryAddr = 0xff80 }, testBase, CheckLoadBounds},
		{"load_wraps", func(h *Header) { h.LoadAddr = 0xffffff80 }, testBase, CheckLoadBounds},
		{"entry_one_past_end", func(h *Header) { h.EntryAddr = 0x10100 }, testBase, CheckEntryBounds},
		{"entry_below_load", func(h *Header) { h.LoadAddr = 0x10100; h.EntryAddr = 0x10000 }, testBase, CheckEntryBounds},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			tt.modify(h)

			err := Validate(h, tt.base, TypeROMExt, memmap.Default())
			require.Error(t, err)

			var herr *HeaderError
			require.ErrorAs(t, err, &herr)
			assert.Equal(t, tt.want, herr.Check, "got %v", herr)
			assert.True(t, errors.Is(err, &HeaderError{Check: tt.want}))

			assert.Error(t, Audit(h, tt.base, TypeROMExt, memmap.Default()))
		})
	}
}

func TestValidateEntryLastWord(t *testing.T) {
	h := validHeader()
	h.EntryAddr = h.LoadAddr + h.PayloadLen - 4
	assert.NoError(t, Validate(h, testBase, TypeROMExt, memmap.Default()))
}

func TestValidateIdempotent(t *testing.T) {
	h := validHeader()
	h.SigLen = 63
	first := Validate(h, testBase, TypeROMExt, memmap.Default())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Validate(h, testBase, TypeROMExt, memmap.Default()))
	}
	assert.NoError(t, Validate(validHeader(), testBase, TypeROMExt, memmap.Default()))
}

func TestAuditCollectsAll(t *testing.T) {
	h := validHeader()
	h.Magic = 0
	h.SigLen = 63

	err := Audit(h, testBase, TypeROMExt, memmap.Default())
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 2)
	assert.True(t, errors.Is(merr.Errors[0], &HeaderError{Check: CheckMagic}))
	assert.True(t, errors.Is(merr.Errors[1], &HeaderError{Check: CheckSigLen}))

	// Validate stops at the first one.
	assert.True(t, errors.Is(Validate(h, testBase, TypeROMExt, memmap.Default()), &HeaderError{Check: CheckMagic}))
}

func TestCheckText(t *testing.T) {
	for _, c := range Checks {
		assert.NotContains(t, c.String(), "CHECK", "check %d has no diagnostic text", c)
	}
	assert.Equal(t, "PAYLOAD OOB", CheckPayloadBounds.String())
	assert.Equal(t, "BAD MAGIC (value 0x0)", (&HeaderError{Check: CheckMagic}).Error())
}

func TestBindingRecordLayout(t *testing.T) {
	b, err := validHeader().Binding().MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "01000000"+"00010000"+"00000100"+"00000100", hex.EncodeToString(b))
}

func TestDigest(t *testing.T) {
	h := validHeader()
	payload := bytes.Repeat([]byte{0xa5}, int(h.PayloadLen))

	binding, err := h.Binding().MarshalBinary()
	require.NoError(t, err)
	want := sha256.Sum256(append(binding, payload...))

	got := Digest(h, payload)
	assert.Equal(t, want, got)
	assert.Equal(t, got, Digest(h, payload), "digest must be deterministic")

	stream := NewDigest(h)
	stream.Write(payload[:10])
	stream.Write(payload[10:])
	assert.Equal(t, want[:], stream.Sum(nil))
}

func TestDigestCoversBinding(t *testing.T) {
	h := validHeader()
	payload := bytes.Repeat([]byte{0x13}, int(h.PayloadLen))
	orig := Digest(h, payload)

	for name, modify := range map[string]func(h *Header){
		"img_type":    func(h *Header) { h.ImageType = TypeBL0 },
		"payload_len": func(h *Header) { h.PayloadLen-- },
		"load_addr":   func(h *Header) { h.LoadAddr += 4 },
		"entry_addr":  func(h *Header) { h.EntryAddr += 4 },
	} {
		m := validHeader()
		modify(m)
		assert.NotEqual(t, orig, Digest(m, payload), name)
	}

	// Fields outside the binding record do not contribute.
	m := validHeader()
	m.SigOff += 4
	m.Reserved[0] = 1
	assert.Equal(t, orig, Digest(m, payload))

	for i := range payload {
		flipped := append([]byte(nil), payload...)
		flipped[i] ^= 0x01
		if Digest(h, flipped) == orig {
			t.Fatalf("flipping payload byte %d does not change the digest", i)
		}
	}
}

type recordingSigner struct {
	digests [][DigestSize]byte
	err     error
}

func (s *recordingSigner) Sign(digest [DigestSize]byte) ([]byte, error) {
	s.digests = append(s.digests, digest)
	if s.err != nil {
		return nil, s.err
	}
	sig := make([]byte, SignatureSize)
	copy(sig, digest[:])
	copy(sig[DigestSize:], digest[:])
	return sig, nil
}

func TestBuildAndDecode(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7}
	signer := &recordingSigner{}

	c, err := Build(TypeBL0, payload, 0x12000, 0x12000, signer)
	require.NoError(t, err)
	assert.Equal(t, uint32(HeaderSize), c.Header.PayloadOff)
	assert.Equal(t, uint32(HeaderSize+8), c.Header.SigOff)
	require.Len(t, signer.digests, 1)
	assert.Equal(t, Digest(&c.Header, payload), signer.digests[0])

	b, err := c.Bytes()
	require.NoError(t, err)
	assert.Len(t, b, HeaderSize+8+SignatureSize)
	assert.Equal(t, byte(0), b[HeaderSize+7], "padding must be zero")

	dec, err := DecodeContainer(b)
	require.NoError(t, err)
	if diff := cmp.Diff(c, dec); diff != "" {
		t.Errorf("DecodeContainer() mismatch (-want +got):\n%s", diff)
	}

	assert.NoError(t, Validate(&dec.Header, 0x23000, TypeBL0, memmap.Default()))
}

func TestBuildPlaceholder(t *testing.T) {
	c, err := Build(TypeROMExt, []byte{0xaa}, 0x10000, 0x10000, nil)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, SignatureSize), c.Signature)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(TypeROMExt, nil, 0x10000, 0x10000, nil)
	assert.Error(t, err)

	_, err = Build(TypeROMExt, []byte{1}, 0x10000, 0x10000, &recordingSigner{err: fmt.Errorf("no key")})
	assert.ErrorContains(t, err, "no key")
}

func TestDecodeContainerTruncated(t *testing.T) {
	c, err := Build(TypeROMExt, make([]byte, 32), 0x10000, 0x10000, nil)
	require.NoError(t, err)
	b, err := c.Bytes()
	require.NoError(t, err)

	_, err = DecodeContainer(b[:len(b)-1])
	assert.ErrorContains(t, err, "signature")
	_, err = DecodeContainer(b[:HeaderSize+16])
	assert.ErrorContains(t, err, "payload")

	c.Header.SigOff = 0xfffffff0
	hdr, err := c.Header.MarshalBinary()
	require.NoError(t, err)
	copy(b, hdr)
	_, err = DecodeContainer(b)
	assert.Error(t, err)
}

func TestSummaryAndTable(t *testing.T) {
	h := validHeader()
	s := h.Summary()
	assert.Contains(t, s, "Image Type     : ROM_EXT")
	assert.Contains(t, s, "(256 B)")
	assert.NotContains(t, s, "Reserved")

	out := h.Table("ROM_EXT header").Render()
	for _, label := range []string{"Payload Off", "Entry Addr", "Header Len", "Reserved", "ROM_EXT (1)", "0x20"} {
		assert.True(t, strings.Contains(out, label), "missing %q in\n%s", label, out)
	}
}
