// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memh reads and writes word hex files as consumed by $readmemh:
// one 32-bit little-endian word per line, eight hex digits.
package memh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WordSize is the number of bytes per line.
const WordSize = 4

// Write writes blob as hex words. The last word is zero padded.
func Write(w io.Writer, blob []byte) error {
	bw := bufio.NewWriter(w)
	var word [WordSize]byte
	for i := 0; i < len(blob); i += WordSize {
		word = [WordSize]byte{}
		copy(word[:], blob[i:])
		if _, err := fmt.Fprintf(bw, "%08x\n", binary.LittleEndian.Uint32(word[:])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read parses hex words. Blank lines and // comments are skipped; address
// directives are not supported.
func Read(r io.Reader) ([]byte, error) {
	var out []byte
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		text := s.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "@") {
			return nil, fmt.Errorf("line %d: address directives are not supported", line)
		}
		v, err := strconv.ParseUint(text, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Overlay copies img into dst at offset, extending dst with zeros when img
// runs past its end. offset must be word aligned.
func Overlay(dst, img []byte, offset int) ([]byte, error) {
	if offset < 0 || offset%WordSize != 0 {
		return nil, fmt.Errorf("offset %#x is not word aligned", offset)
	}
	if end := offset + len(img); end > len(dst) {
		dst = append(dst, make([]byte, end-len(dst))...)
	}
	copy(dst[offset:], img)
	return dst, nil
}
