// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build insecure_skip_verify
// +build insecure_skip_verify

package boot

// SkipSignature is set by the insecure_skip_verify tag. Verify only checks
// headers and never authenticates a payload.
const SkipSignature = true
