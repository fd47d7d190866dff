// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sigverify

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/linuxboot/rvboot/pkg/bootimg"
)

// P256Signer signs image digests with a P-256 private key.
type P256Signer struct {
	Key *ecdsa.PrivateKey
	// Rand is the entropy source, crypto/rand if nil.
	Rand io.Reader
}

var _ bootimg.Signer = (*P256Signer)(nil)

// Sign implements bootimg.Signer and returns a raw r||s signature.
func (s *P256Signer) Sign(digest [bootimg.DigestSize]byte) ([]byte, error) {
	if s.Key == nil || s.Key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("signer needs a P-256 private key")
	}
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.Reader
	}
	der, err := ecdsa.SignASN1(rnd, s.Key, digest[:])
	if err != nil {
		return nil, err
	}
	return RawFromASN1(der, CoordinateSize)
}

// RawFromASN1 converts a DER encoded ECDSA-Sig-Value into fixed size r||s,
// each integer left padded to size bytes.
func RawFromASN1(der []byte, size int) ([]byte, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, fmt.Errorf("malformed ASN.1 signature")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return nil, fmt.Errorf("signature integers must be positive")
	}
	if r.BitLen() > size*8 || s.BitLen() > size*8 {
		return nil, fmt.Errorf("signature integer exceeds %d bytes", size)
	}
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])
	return out, nil
}

// ASN1FromRaw converts a raw r||s signature into DER.
func ASN1FromRaw(raw []byte) ([]byte, error) {
	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, fmt.Errorf("invalid raw signature length %d", len(raw))
	}
	half := len(raw) / 2
	r := new(big.Int).SetBytes(raw[:half])
	s := new(big.Int).SetBytes(raw[half:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}
