// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/linuxboot/rvboot/pkg/memh"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

// ReadBlob reads a binary or word hex file, decompressing it first if its
// extension says so.
func ReadBlob(path string) ([]byte, error) {
	return memh.ReadFile(path)
}

// WriteBlob is the counterpart of ReadBlob.
func WriteBlob(path string, blob []byte) error {
	return memh.WriteFile(path, blob, 0o644)
}

// LoadMap loads the memory map at path, or the default map if path is
// empty.
func LoadMap(path string) (memmap.MemoryMap, error) {
	if path == "" {
		return memmap.Default(), nil
	}
	return memmap.Load(path)
}

// LoadSigner loads a PEM private key.
func LoadSigner(path string) (*sigverify.P256Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read key '%s': %w", path, err)
	}
	key, err := sigverify.ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse key '%s': %w", path, err)
	}
	return &sigverify.P256Signer{Key: key}, nil
}

// ParseAddr parses a 32-bit address in any base strconv accepts.
func ParseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, ErrArgs{Err: fmt.Errorf("invalid address '%s'", s)}
	}
	return uint32(v), nil
}

// Stdout is where commands print their reports.
var Stdout io.Writer = os.Stdout
