// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sigverify implements the signature gate of the boot chain: ECDSA
// P-256 verification of an image digest against a single trusted public
// key, plus the signing side used by the image tools.
//
// Keys and signatures use fixed-size raw encodings: a public key is X||Y
// and a signature is r||s, every coordinate 32 bytes big-endian.
package sigverify

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/linuxboot/rvboot/pkg/bootimg"
)

const (
	// CoordinateSize is the size of a P-256 field element or scalar.
	CoordinateSize = 32
	// PublicKeySize is the size of a raw X||Y public key.
	PublicKeySize = 2 * CoordinateSize
	// SignatureSize is the size of a raw r||s signature.
	SignatureSize = bootimg.SignatureSize
)

var (
	// ErrSignatureLength means the signature is not SignatureSize bytes.
	ErrSignatureLength = errors.New("invalid signature length")
	// ErrSignatureMismatch means the signature does not verify under the
	// trusted key.
	ErrSignatureMismatch = errors.New("signature does not match digest")
)

// SignatureError is returned by Verify for any rejected signature.
type SignatureError struct {
	Err error
}

func (err *SignatureError) Error() string {
	return fmt.Sprintf("signature verification failed: %v", err.Err)
}

func (err *SignatureError) Unwrap() error {
	return err.Err
}

// Verifier checks a raw signature over an image digest.
type Verifier interface {
	Verify(digest [bootimg.DigestSize]byte, sig []byte) error
}

// P256Verifier verifies against one build-time trusted P-256 key.
type P256Verifier struct {
	pub *ecdsa.PublicKey
}

var _ Verifier = (*P256Verifier)(nil)

// NewP256Verifier returns a verifier for the raw X||Y public key. The point
// must be on the curve.
func NewP256Verifier(raw []byte) (*P256Verifier, error) {
	pub, err := PublicKeyFromRaw(raw)
	if err != nil {
		return nil, err
	}
	return &P256Verifier{pub: pub}, nil
}

// PublicKey returns the trusted key.
func (v *P256Verifier) PublicKey() *ecdsa.PublicKey {
	return v.pub
}

// Verify implements Verifier. Any failure is a *SignatureError.
func (v *P256Verifier) Verify(digest [bootimg.DigestSize]byte, sig []byte) error {
	if len(sig) != SignatureSize {
		return &SignatureError{Err: fmt.Errorf("%w: %d", ErrSignatureLength, len(sig))}
	}
	r := new(big.Int).SetBytes(sig[:CoordinateSize])
	s := new(big.Int).SetBytes(sig[CoordinateSize:])
	if !ecdsa.Verify(v.pub, digest[:], r, s) {
		return &SignatureError{Err: ErrSignatureMismatch}
	}
	return nil
}

// PublicKeyFromRaw decodes a raw X||Y P-256 public key.
func PublicKeyFromRaw(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != PublicKeySize {
		return nil, fmt.Errorf("invalid public key length %d, expected %d", len(raw), PublicKeySize)
	}
	uncompressed := append([]byte{4}, raw...)
	if _, err := ecdh.P256().NewPublicKey(uncompressed); err != nil {
		return nil, fmt.Errorf("invalid P-256 public key: %w", err)
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(raw[:CoordinateSize]),
		Y:     new(big.Int).SetBytes(raw[CoordinateSize:]),
	}, nil
}

// RawPublicKey encodes a P-256 public key as X||Y.
func RawPublicKey(pub *ecdsa.PublicKey) ([]byte, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("not a P-256 public key")
	}
	k, err := pub.ECDH()
	if err != nil {
		return nil, err
	}
	return k.Bytes()[1:], nil
}
