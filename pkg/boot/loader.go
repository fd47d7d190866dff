// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boot implements the chained stage loader: locate the next image
// container, validate its header, authenticate it, copy the payload into the
// execution region and transfer control. Every failure is fatal and ends in
// Halt.
package boot

import (
	"errors"
	"fmt"
	"io"

	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

// Hart is the hardware access capability of a boot stage. It is the only
// path by which the loader touches memory outside its own buffers.
type Hart interface {
	// Read copies len(p) bytes starting at addr.
	Read(addr uint32, p []byte) error
	// Write8 stores a single byte.
	Write8(addr uint32, v byte) error
	// FenceI makes prior stores visible to instruction fetch.
	FenceI()
	// Jump transfers control to entry. It returns only if the code
	// at entry returns.
	Jump(entry uint32)
	// WFI waits for an interrupt. A halted hart never resumes from it.
	WFI()
}

// State is a step of the load-and-jump sequence.
type State int

// States in the order a successful boot reaches them. Halted is reachable
// from every other state.
const (
	Start State = iota
	HeaderChecked
	DigestComputed
	SignatureVerified
	PayloadCopied
	Jumped
	Halted
)

var stateNames = []string{
	"START",
	"HEADER_CHECKED",
	"DIGEST_COMPUTED",
	"SIGNATURE_VERIFIED",
	"PAYLOAD_COPIED",
	"JUMPED",
	"HALTED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Stage describes what a running stage loads next.
type Stage struct {
	// Name of the running stage, used as diagnostic prefix.
	Name string
	// ImageBase is the address of the next image container.
	ImageBase uint32
	// Expect is the image type the container must declare.
	Expect bootimg.ImageType
}

// Image is a container that passed Verify. The buffers are owned copies.
type Image struct {
	Base      uint32
	Header    bootimg.Header
	Payload   []byte
	Signature []byte
	Digest    [bootimg.DigestSize]byte
}

// BusFaultError means the hart refused a memory access.
type BusFaultError struct {
	Op   string
	Addr uint32
	Err  error
}

func (err *BusFaultError) Error() string {
	return fmt.Sprintf("bus fault on %s at %#08x: %v", err.Op, err.Addr, err.Err)
}

func (err *BusFaultError) Unwrap() error {
	return err.Err
}

// ErrNoTrustedKey means the loader has no verifier configured.
var ErrNoTrustedKey = errors.New("no trusted key")

// Loader runs the load-and-jump sequence on a hart.
type Loader struct {
	Hart     Hart
	Map      memmap.MemoryMap
	Verifier sigverify.Verifier
	// Console receives the diagnostics. Writes are fire and forget.
	Console io.Writer
	// Observe, if set, is called on every state reached.
	Observe func(State)
}

func (l *Loader) observe(s State) {
	if l.Observe != nil {
		l.Observe(s)
	}
}

func (l *Loader) printf(format string, args ...interface{}) {
	if l.Console == nil {
		return
	}
	_, _ = fmt.Fprintf(l.Console, format, args...)
}

func (l *Loader) read(addr, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	if err := l.Hart.Read(addr, buf); err != nil {
		return nil, &BusFaultError{Op: "read", Addr: addr, Err: err}
	}
	return buf, nil
}

// Verify reads the container of st, validates its header and authenticates
// the payload. It only reads memory, so calling it again on unmodified
// memory yields the same result.
func (l *Loader) Verify(st Stage) (*Image, error) {
	l.observe(Start)

	raw, err := l.read(st.ImageBase, bootimg.HeaderSize)
	if err != nil {
		return nil, err
	}
	hdr, err := bootimg.Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := bootimg.Validate(hdr, st.ImageBase, st.Expect, l.Map); err != nil {
		return nil, err
	}
	l.observe(HeaderChecked)

	// Validate guarantees neither sum wraps.
	img := &Image{Base: st.ImageBase, Header: *hdr}
	if img.Payload, err = l.read(st.ImageBase+hdr.PayloadOff, hdr.PayloadLen); err != nil {
		return nil, err
	}
	if img.Signature, err = l.read(st.ImageBase+hdr.SigOff, hdr.SigLen); err != nil {
		return nil, err
	}

	if SkipSignature {
		l.printf("%s: SIG CHECK DISABLED\n", st.Name)
		return img, nil
	}

	img.Digest = bootimg.Digest(hdr, img.Payload)
	l.observe(DigestComputed)

	if l.Verifier == nil {
		return nil, &sigverify.SignatureError{Err: ErrNoTrustedKey}
	}
	if err := l.Verifier.Verify(img.Digest, img.Signature); err != nil {
		return nil, err
	}
	l.observe(SignatureVerified)
	return img, nil
}

// Boot verifies the next image, copies it to its load address one byte at
// a time, synchronizes instruction fetch and jumps to the entry point.
// It does not return: any failure, including the entry point returning,
// ends in Halt.
func (l *Loader) Boot(st Stage) {
	img, err := l.Verify(st)
	if err != nil {
		l.Halt(st, err)
	}
	l.printf("%s: %s OK\n", st.Name, st.Expect)

	for i, b := range img.Payload {
		addr := img.Header.LoadAddr + uint32(i)
		if err := l.Hart.Write8(addr, b); err != nil {
			l.Halt(st, &BusFaultError{Op: "write", Addr: addr, Err: err})
		}
	}
	l.observe(PayloadCopied)

	l.Hart.FenceI()
	l.observe(Jumped)
	l.Hart.Jump(img.Header.EntryAddr)

	l.Halt(st, ErrReturnedFromEntry)
}
