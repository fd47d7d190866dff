// Copyright 2026 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/linuxboot/rvboot/pkg/bootimg"
	"github.com/linuxboot/rvboot/pkg/memmap"
	"github.com/linuxboot/rvboot/pkg/sigverify"
)

// fakeHart is a flat memory with event recording. Jump and WFI end the
// calling goroutine unless returnFromJump is set.
type fakeHart struct {
	mm             memmap.MemoryMap
	mem            map[uint32]byte
	events         []string
	writes         int
	returnFromJump bool
	readOnly       bool
}

func newFakeHart(mm memmap.MemoryMap) *fakeHart {
	return &fakeHart{mm: mm, mem: map[uint32]byte{}}
}

func (h *fakeHart) load(addr uint32, b []byte) {
	for i, v := range b {
		h.mem[addr+uint32(i)] = v
	}
}

func (h *fakeHart) Read(addr uint32, p []byte) error {
	l := uint32(len(p))
	if !h.mm.Data.Contains(addr, l) && !h.mm.Exec.Contains(addr, l) {
		return fmt.Errorf("unmapped")
	}
	for i := range p {
		p[i] = h.mem[addr+uint32(i)]
	}
	return nil
}

func (h *fakeHart) Write8(addr uint32, v byte) error {
	if h.readOnly || !h.mm.Exec.ContainsAddr(addr) {
		return fmt.Errorf("store refused")
	}
	h.mem[addr] = v
	h.writes++
	if len(h.events) == 0 || h.events[len(h.events)-1] != "write" {
		h.events = append(h.events, "write")
	}
	return nil
}

func (h *fakeHart) FenceI() {
	h.events = append(h.events, "fence.i")
}

func (h *fakeHart) Jump(entry uint32) {
	h.events = append(h.events, fmt.Sprintf("jump %#x", entry))
	if !h.returnFromJump {
		runtime.Goexit()
	}
}

func (h *fakeHart) WFI() {
	h.events = append(h.events, "wfi")
	runtime.Goexit()
}

type LoaderSuite struct {
	suite.Suite

	mm      memmap.MemoryMap
	hart    *fakeHart
	console bytes.Buffer
	states  []State
	loader  *Loader
	stage   Stage
	image   *bootimg.Container
}

func (s *LoaderSuite) SetupTest() {
	s.mm = memmap.Default()
	s.hart = newFakeHart(s.mm)
	s.console.Reset()
	s.states = nil

	key, err := sigverify.GenerateKey()
	s.Require().NoError(err)
	raw, err := sigverify.RawPublicKey(&key.PublicKey)
	s.Require().NoError(err)
	verifier, err := sigverify.NewP256Verifier(raw)
	s.Require().NoError(err)

	payload := make([]byte, 0x42)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	s.image, err = bootimg.Build(bootimg.TypeBL0, payload, s.mm.BL0LoadAddr, s.mm.BL0LoadAddr, &sigverify.P256Signer{Key: key})
	s.Require().NoError(err)
	b, err := s.image.Bytes()
	s.Require().NoError(err)
	s.hart.load(s.mm.BL0ImageBase, b)

	s.stage = Stage{Name: "ROM_EXT", ImageBase: s.mm.BL0ImageBase, Expect: bootimg.TypeBL0}
	s.loader = &Loader{
		Hart:     s.hart,
		Map:      s.mm,
		Verifier: verifier,
		Console:  &s.console,
		Observe:  func(st State) { s.states = append(s.states, st) },
	}
}

func (s *LoaderSuite) boot() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loader.Boot(s.stage)
	}()
	<-done
}

func (s *LoaderSuite) execBytes(n int) []byte {
	out := make([]byte, n)
	s.Require().NoError(s.hart.Read(s.mm.BL0LoadAddr, out))
	return out
}

func (s *LoaderSuite) skipIfUnverified() {
	if SkipSignature {
		s.T().Skip("signature verification is disabled in this build")
	}
}

func (s *LoaderSuite) TestBootValidImage() {
	s.skipIfUnverified()
	s.boot()

	s.Equal([]State{Start, HeaderChecked, DigestComputed, SignatureVerified, PayloadCopied, Jumped}, s.states)
	s.Equal([]string{"write", "fence.i", "jump 0x12000"}, s.hart.events)
	s.Equal(len(s.image.Payload), s.hart.writes)
	s.Equal(s.image.Payload, s.execBytes(len(s.image.Payload)))
	s.Equal("ROM_EXT: BL0 OK\n", s.console.String())
}

func (s *LoaderSuite) TestBootFlippedSignatureBit() {
	s.skipIfUnverified()
	sigAddr := s.mm.BL0ImageBase + s.image.Header.SigOff + 17
	s.hart.mem[sigAddr] ^= 0x04

	s.boot()

	s.Equal([]State{Start, HeaderChecked, DigestComputed, Halted}, s.states)
	s.Equal([]string{"wfi"}, s.hart.events)
	s.Zero(s.hart.writes)
	s.Equal("ROM_EXT: SIG FAIL (E20)\n", s.console.String())
}

func (s *LoaderSuite) TestBootEntryAlteredAfterSigning() {
	s.skipIfUnverified()
	var entry [4]byte
	binary.LittleEndian.PutUint32(entry[:], s.image.Header.EntryAddr+4)
	s.hart.load(s.mm.BL0ImageBase+24, entry[:])

	s.boot()

	s.Equal([]State{Start, HeaderChecked, DigestComputed, Halted}, s.states)
	s.Zero(s.hart.writes)
	s.NotContains(strings.Join(s.hart.events, ","), "jump")
	s.Contains(s.console.String(), "SIG FAIL")
}

func (s *LoaderSuite) TestBootPayloadByteChanged() {
	s.skipIfUnverified()
	s.hart.mem[s.mm.BL0ImageBase+s.image.Header.PayloadOff+0x41] ^= 0xff

	s.boot()

	s.Equal(Halted, s.states[len(s.states)-1])
	s.Zero(s.hart.writes)
}

func (s *LoaderSuite) TestBootBadHeader() {
	s.hart.load(s.mm.BL0ImageBase, []byte{0, 0, 0, 0})

	s.boot()

	s.Equal([]State{Start, Halted}, s.states)
	s.Equal("ROM_EXT: BAD MAGIC (E01)\n", s.console.String())
	s.Zero(s.hart.writes)
}

func (s *LoaderSuite) TestBootWrongImageType() {
	s.stage.Expect = bootimg.TypeROMExt

	s.boot()

	s.Equal("ROM_EXT: BAD IMG TYPE (E04)\n", s.console.String())
}

func (s *LoaderSuite) TestBootReturnedFromEntry() {
	s.skipIfUnverified()
	s.hart.returnFromJump = true

	s.boot()

	s.Equal([]State{Start, HeaderChecked, DigestComputed, SignatureVerified, PayloadCopied, Jumped, Halted}, s.states)
	s.Equal([]string{"write", "fence.i", "jump 0x12000", "wfi"}, s.hart.events)
	s.Equal("ROM_EXT: BL0 OK\nROM_EXT: RETURNED (E30)\n", s.console.String())
}

func (s *LoaderSuite) TestBootUnmappedContainer() {
	s.stage.ImageBase = 0x50000

	s.boot()

	s.Equal([]State{Start, Halted}, s.states)
	s.Equal("ROM_EXT: BUS FAULT (E40)\n", s.console.String())
}

func (s *LoaderSuite) TestBootStoreRefused() {
	s.skipIfUnverified()
	s.hart.readOnly = true

	s.boot()

	s.Equal(Halted, s.states[len(s.states)-1])
	s.NotContains(s.states, PayloadCopied)
	s.Equal([]string{"wfi"}, s.hart.events)
	s.Contains(s.console.String(), "BUS FAULT (E40)")
}

func (s *LoaderSuite) TestBootWithoutVerifier() {
	s.skipIfUnverified()
	s.loader.Verifier = nil

	s.boot()

	s.Contains(s.console.String(), "SIG FAIL (E20)")
	s.Zero(s.hart.writes)
}

func (s *LoaderSuite) TestVerifyIdempotent() {
	s.skipIfUnverified()
	first, err := s.loader.Verify(s.stage)
	s.Require().NoError(err)
	s.Equal(s.image.Payload, first.Payload)
	s.Equal(s.image.Signature, first.Signature)
	s.Equal(bootimg.Digest(&s.image.Header, s.image.Payload), first.Digest)

	for i := 0; i < 5; i++ {
		img, err := s.loader.Verify(s.stage)
		s.Require().NoError(err)
		s.Equal(first, img)
	}
	s.Zero(s.hart.writes)
	s.Empty(s.hart.events)

	s.hart.mem[s.mm.BL0ImageBase] = 0
	for i := 0; i < 3; i++ {
		_, err := s.loader.Verify(s.stage)
		s.True(CodeOf(err) == Code(bootimg.CheckMagic))
	}
}

func TestLoader(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "SIGNATURE_VERIFIED", SignatureVerified.String())
	assert.Equal(t, "HALTED", Halted.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestDiagnostic(t *testing.T) {
	for _, tt := range []struct {
		err  error
		code Code
		want string
	}{
		{&bootimg.HeaderError{Check: bootimg.CheckMagic}, 0x01, "ROM: BAD MAGIC (E01)"},
		{fmt.Errorf("wrapped: %w", &bootimg.HeaderError{Check: bootimg.CheckEntryBounds}), 0x0e, "ROM: ENTRY OOB (E0E)"},
		{&sigverify.SignatureError{Err: sigverify.ErrSignatureMismatch}, CodeSignature, "ROM: SIG FAIL (E20)"},
		{ErrReturnedFromEntry, CodeReturned, "ROM: RETURNED (E30)"},
		{&BusFaultError{Op: "read", Addr: 4, Err: fmt.Errorf("x")}, CodeBusFault, "ROM: BUS FAULT (E40)"},
		{fmt.Errorf("something else"), CodeUnknown, "ROM: FAIL (EFF)"},
	} {
		require.Equal(t, tt.code, CodeOf(tt.err), tt.err.Error())
		assert.Equal(t, tt.want, Diagnostic("ROM", tt.err))
	}
}
