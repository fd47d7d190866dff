// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements reading and writing of compressed files.
//
// Image artifacts (hex files, D-SRAM images) may be stored compressed; the
// scheme is picked from the file extension.
package compression

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var xzPath = flag.String("xzPath", "", "Path to system xz command used for xz encoding. If unset, an internal xz implementation is used.")

// Compressor defines a single compression scheme (such as XZ).
type Compressor interface {
	// Name is typically the name of a class.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)
}

// FromName returns the Compressor called name (case insensitive).
func FromName(name string) (Compressor, error) {
	switch strings.ToLower(name) {
	case "lz4":
		return &LZ4{}, nil
	case "zstd", "zst":
		return &Zstd{}, nil
	case "xz":
		return xzCompressor(), nil
	}
	return nil, fmt.Errorf("unknown compression '%s'", name)
}

// FromExtension returns the Compressor for the extension of path, or nil if
// the file is not compressed.
func FromExtension(path string) Compressor {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return &LZ4{}
	case ".zst":
		return &Zstd{}
	case ".xz":
		return xzCompressor()
	}
	return nil
}

func xzCompressor() Compressor {
	if *xzPath != "" {
		return &SystemXZ{*xzPath}
	}
	return &XZ{}
}

// ReadFile reads path and decompresses it according to its extension.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := FromExtension(path)
	if c == nil {
		return data, nil
	}
	decoded, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decompress '%s' with %s: %w", path, c.Name(), err)
	}
	return decoded, nil
}

// WriteFile compresses data according to the extension of path and writes
// it.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if c := FromExtension(path); c != nil {
		encoded, err := c.Encode(data)
		if err != nil {
			return fmt.Errorf("unable to compress '%s' with %s: %w", path, c.Name(), err)
		}
		data = encoded
	}
	return os.WriteFile(path, data, perm)
}
