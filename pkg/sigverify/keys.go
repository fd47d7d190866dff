// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sigverify

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strings"
)

// PEM block types
const (
	pemECPrivateKey = "EC PRIVATE KEY"
	pemPrivateKey   = "PRIVATE KEY"
	pemPublicKey    = "PUBLIC KEY"
)

// GenerateKey returns a new P-256 signing key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// MarshalPrivateKeyPEM encodes key as a SEC1 "EC PRIVATE KEY" PEM block.
func MarshalPrivateKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemECPrivateKey, Bytes: der}), nil
}

// ParsePrivateKeyPEM decodes a SEC1 or PKCS#8 P-256 private key.
func ParsePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	var key *ecdsa.PrivateKey
	switch block.Type {
	case pemECPrivateKey:
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("unable to parse EC private key: %w", err)
		}
		key = k
	case pemPrivateKey:
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("unable to parse PKCS#8 private key: %w", err)
		}
		ecKey, ok := k.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("expected ECDSA private key, got %T", k)
		}
		key = ecKey
	default:
		return nil, fmt.Errorf("unsupported PEM block type '%s'", block.Type)
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve %s, only P-256 is supported", key.Curve.Params().Name)
	}
	return key, nil
}

// MarshalPublicKeyPEM encodes pub as a PKIX "PUBLIC KEY" PEM block.
func MarshalPublicKeyPEM(pub *ecdsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// ParsePublicKeyPEM decodes a PKIX P-256 public key.
func ParsePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if block.Type != pemPublicKey {
		return nil, fmt.Errorf("unsupported PEM block type '%s'", block.Type)
	}
	k, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse public key: %w", err)
	}
	pub, ok := k.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected ECDSA public key, got %T", k)
	}
	if pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("unsupported curve %s, only P-256 is supported", pub.Curve.Params().Name)
	}
	return pub, nil
}

// hexDigits strips the decoration of a hex key: an optional 0x prefix, or
// a Go byte slice literal such as "[]byte{0x01, 0x02}".
func hexDigits(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[]byte{") && strings.HasSuffix(s, "}") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "[]byte{"), "}")
		var b strings.Builder
		for _, f := range strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
		}) {
			f = strings.TrimPrefix(f, "0x")
			if len(f) == 1 {
				f = "0" + f
			}
			b.WriteString(f)
		}
		return b.String()
	}
	return strings.TrimPrefix(s, "0x")
}

// LoadTrustedKey accepts a trusted key in any of the forms the tools emit:
// a PEM public key, a PEM private key (its public half is used), 64 raw
// bytes, 128 hex digits, or a Go byte slice literal. It returns the raw
// X||Y encoding.
func LoadTrustedKey(data []byte) ([]byte, error) {
	if bytes.Contains(data, []byte("-----BEGIN")) {
		if pub, err := ParsePublicKeyPEM(data); err == nil {
			return RawPublicKey(pub)
		}
		key, err := ParsePrivateKeyPEM(data)
		if err != nil {
			return nil, err
		}
		return RawPublicKey(&key.PublicKey)
	}
	if len(data) == PublicKeySize {
		return append([]byte(nil), data...), nil
	}
	raw, err := hex.DecodeString(hexDigits(string(data)))
	if err != nil || len(raw) != PublicKeySize {
		return nil, fmt.Errorf("unrecognized trusted key format (%d bytes)", len(data))
	}
	return raw, nil
}
