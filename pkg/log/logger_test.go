// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	saved := DefaultLogger
	defer func() { DefaultLogger = saved }()
	DefaultLogger = New(log.New(&buf, "", 0))

	Infof("loaded %d bytes", 64)
	Warnf("key %s", "missing")
	Errorf("halted")

	assert.Equal(t, "[rvboot][INFO] loaded 64 bytes\n[rvboot][WARN] key missing\n[rvboot][ERROR] halted\n", buf.String())
}
