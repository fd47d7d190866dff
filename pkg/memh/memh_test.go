// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memh

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []byte("IMG0\x01\x00\x40")))
	assert.Equal(t, "30474d49\n00400001\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestRead(t *testing.T) {
	b, err := Read(strings.NewReader("30474d49\n\n// header\n00400001 // version, length\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("IMG0\x01\x00\x40\x00"), b)

	_, err = Read(strings.NewReader("@100\n"))
	assert.Error(t, err)
	_, err = Read(strings.NewReader("00000000\nzz\n"))
	assert.ErrorContains(t, err, "line 2")
	_, err = Read(strings.NewReader("123456789\n"))
	assert.Error(t, err, "more than 32 bits")
}

func TestWriteReadBlob(t *testing.T) {
	blob := make([]byte, 1024)
	for i := range blob {
		blob[i] = byte(i * 31)
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, blob))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestOverlay(t *testing.T) {
	dst := []byte{1, 1, 1, 1, 2, 2, 2, 2}

	out, err := Overlay(append([]byte(nil), dst...), []byte{9, 9, 9, 9}, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 1, 9, 9, 9, 9}, out)

	out, err = Overlay(append([]byte(nil), dst...), []byte{7, 7, 7, 7}, 12)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0, 7, 7, 7, 7}, out)

	_, err = Overlay(dst, []byte{1}, 2)
	assert.Error(t, err)
	_, err = Overlay(dst, []byte{1}, -4)
	assert.Error(t, err)
}

func TestIsHexPath(t *testing.T) {
	assert.True(t, IsHexPath("dsram.hex"))
	assert.True(t, IsHexPath("dsram.HEX.xz"))
	assert.True(t, IsHexPath("dir.d/dsram.hex.zst"))
	assert.False(t, IsHexPath("dsram.bin"))
	assert.False(t, IsHexPath("dsram.bin.lz4"))
	assert.False(t, IsHexPath("hex"))
}

func TestReadWriteFile(t *testing.T) {
	blob := []byte("IMG0\x01\x00\x40\x00payload!")
	dir := t.TempDir()
	for _, name := range []string{"image.bin", "image.hex", "image.hex.xz", "image.bin.zst", "image.hex.lz4"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, blob, 0o644), name)
		got, err := ReadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, blob, got, name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "image.hex"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "30474d49\n"))

	_, err = ReadFile(filepath.Join(dir, "missing.hex"))
	assert.Error(t, err)
}
