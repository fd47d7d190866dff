// Copyright 2018 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"bytes"
	"os/exec"
)

// SystemXZ implements Compression and calls out to the system's compressor
// (except for Decode which uses the Go-based decompressor). The sytem's
// compressor is typically faster than the Go-based implementation.
type SystemXZ struct {
	xzPath string
}

// Name returns the type of compression employed.
func (c *SystemXZ) Name() string {
	return "XZ"
}

// Decode decodes a byte slice of xz data.
func (c *SystemXZ) Decode(encodedData []byte) ([]byte, error) {
	return (&XZ{}).Decode(encodedData)
}

// Encode encodes a byte slice with xz.
func (c *SystemXZ) Encode(decodedData []byte) ([]byte, error) {
	cmd := exec.Command(c.xzPath, "--format=xz", "-7", "--stdout")
	cmd.Stdin = bytes.NewBuffer(decodedData)
	return cmd.Output()
}
