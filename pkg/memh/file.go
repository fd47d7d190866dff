// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memh

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/linuxboot/rvboot/pkg/compression"
)

// IsHexPath reports whether path names a word hex file, possibly
// compressed (e.g. "dsram.hex.xz").
func IsHexPath(path string) bool {
	if compression.FromExtension(path) != nil {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return strings.EqualFold(filepath.Ext(path), ".hex")
}

// ReadFile reads a binary or word hex file, decompressing it first if its
// extension says so.
func ReadFile(path string) ([]byte, error) {
	data, err := compression.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	if !IsHexPath(path) {
		return data, nil
	}
	blob, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse hex file '%s': %w", path, err)
	}
	return blob, nil
}

// WriteFile is the counterpart of ReadFile.
func WriteFile(path string, blob []byte, perm os.FileMode) error {
	data := blob
	if IsHexPath(path) {
		var buf bytes.Buffer
		if err := Write(&buf, blob); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	if err := compression.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("unable to write '%s': %w", path, err)
	}
	return nil
}
