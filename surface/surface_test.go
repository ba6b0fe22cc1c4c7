// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/host/memhost"
	"github.com/gogpu/ddraw/pixfmt"
)

// fakeBackend keeps every surface in allocator memory and records what the
// manager asks of it.
type fakeBackend struct {
	display  host.Display
	fail     bool
	flips    int
	released []*fakeStorage
}

func newFakeBackend(cfg memhost.Config) *fakeBackend {
	return &fakeBackend{display: memhost.New(cfg)}
}

func (b *fakeBackend) Name() string          { return "fake" }
func (b *fakeBackend) Display() host.Display { return b.display }
func (b *fakeBackend) Close() error          { return nil }

func (b *fakeBackend) Flip(_, _ Storage) error {
	b.flips++
	return nil
}

func (b *fakeBackend) NewStorage(req StorageRequest) (Storage, error) {
	if b.fail {
		return nil, ErrOutOfMemory
	}
	pitch := req.Format.RowBytes(req.Width)
	pix, err := req.Allocator.Alloc(pitch*req.Height, true)
	if err != nil {
		return nil, err
	}
	return &fakeStorage{b: b, req: req, pix: pix, pitch: pitch}, nil
}

type fakeStorage struct {
	b        *fakeBackend
	req      StorageRequest
	pix      []byte
	pitch    int
	flushes  []pixfmt.Rect
	lut      []uint32
	waits    int
	released bool
}

func (s *fakeStorage) Pix() []byte { return s.pix }
func (s *fakeStorage) Pitch() int  { return s.pitch }
func (s *fakeStorage) Wait()       { s.waits++ }

func (s *fakeStorage) Flush(r pixfmt.Rect, lut []uint32) error {
	s.flushes = append(s.flushes, r)
	s.lut = lut
	return nil
}

func (s *fakeStorage) Release() error {
	s.released = true
	s.b.released = append(s.b.released, s)
	s.req.Allocator.Free(s.pix)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakeBackend) {
	t.Helper()
	b := newFakeBackend(memhost.Config{Width: 64, Height: 48})
	return NewManager(b), b
}

func storageOf(t *testing.T, m *Manager, h Handle) *fakeStorage {
	t.Helper()
	s, err := m.Get(h)
	if err != nil {
		t.Fatalf("Get(%v): %v", h, err)
	}
	return s.storage.(*fakeStorage)
}

// TestLockUnlockPreservesBytes tests that a lock and unlock without writes
// leaves a new surface zeroed.
func TestLockUnlockPreservesBytes(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Width: 64, Height: 64, Format: pixfmt.XRGB8888})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	lr, err := m.Lock(h, nil)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if lr.Pitch < 64*4 {
		t.Fatalf("pitch = %d, want at least %d", lr.Pitch, 64*4)
	}
	before := append([]byte(nil), lr.Pix...)
	if !bytes.Equal(before, make([]byte, len(before))) {
		t.Fatal("new surface is not zeroed")
	}
	if err := m.Unlock(h); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	lr, err = m.Lock(h, nil)
	if err != nil {
		t.Fatalf("re-Lock: %v", err)
	}
	if !bytes.Equal(lr.Pix, before) {
		t.Error("bytes changed across lock/unlock")
	}
}

// TestLockRect tests that a partial lock starts at the rectangle.
func TestLockRect(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Width: 8, Height: 8, Format: pixfmt.RGB565})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r := pixfmt.R(2, 3, 5, 6)
	lr, err := m.Lock(h, &r)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	lr.Pix[0] = 0xAB
	if err := m.Unlock(h); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	st := storageOf(t, m, h)
	if got := st.pix[3*st.pitch+2*2]; got != 0xAB {
		t.Errorf("byte at (2,3) = %#x, want 0xab", got)
	}
	if lr.Rect != r {
		t.Errorf("locked rect = %v, want %v", lr.Rect, r)
	}
}

// TestLockErrors tests lock state violations.
func TestLockErrors(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Width: 4, Height: 4, Format: pixfmt.Indexed8})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.Unlock(h); !errors.Is(err, ErrNotLocked) {
		t.Errorf("Unlock of unlocked surface: %v, want ErrNotLocked", err)
	}
	neg := pixfmt.R(-1, 0, 2, 2)
	if _, err := m.Lock(h, &neg); !errors.Is(err, pixfmt.ErrInvalidRect) {
		t.Errorf("Lock negative rect: %v, want ErrInvalidRect", err)
	}
	out := pixfmt.R(0, 0, 5, 4)
	if _, err := m.Lock(h, &out); !errors.Is(err, pixfmt.ErrInvalidRect) {
		t.Errorf("Lock rect outside: %v, want ErrInvalidRect", err)
	}
	if _, err := m.Lock(h, nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := m.Lock(h, nil); !errors.Is(err, ErrLocked) {
		t.Errorf("nested Lock: %v, want ErrLocked", err)
	}
	if _, err := m.Destroy(h); !errors.Is(err, ErrLocked) {
		t.Errorf("Destroy while locked: %v, want ErrLocked", err)
	}
	var opErr *OpError
	if _, err := m.Lock(h, nil); !errors.As(err, &opErr) || opErr.Op != "lock" || opErr.Handle != h {
		t.Errorf("error %v is not an OpError for lock of %v", err, h)
	}
}

// TestLockWaitsForStorage tests that Lock waits for pending transfers.
func TestLockWaitsForStorage(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Lock(h, nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if got := storageOf(t, m, h).waits; got != 1 {
		t.Errorf("waits = %d, want 1", got)
	}
}

// TestStaleHandle tests that destroyed handles stay invalid after their
// slot is reused.
func TestStaleHandle(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.Get(Handle{}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("zero handle: %v, want ErrInvalidHandle", err)
	}
	old, err := m.Create(Request{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n, err := m.Destroy(old); err != nil || n != 0 {
		t.Fatalf("Destroy = %d, %v", n, err)
	}
	h, err := m.Create(Request{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h == old {
		t.Fatalf("reused handle %v", h)
	}
	if _, err := m.Lock(old, nil); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Lock(stale): %v, want ErrInvalidHandle", err)
	}
	if _, err := m.Destroy(old); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Destroy(stale): %v, want ErrInvalidHandle", err)
	}
}

// TestRefCounting tests AddRef and Destroy counts.
func TestRefCounting(t *testing.T) {
	m, b := newTestManager(t)
	h, err := m.Create(Request{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n, _ := m.AddRef(h); n != 2 {
		t.Errorf("AddRef = %d, want 2", n)
	}
	if n, _ := m.Destroy(h); n != 1 {
		t.Errorf("Destroy = %d, want 1", n)
	}
	if len(b.released) != 0 {
		t.Error("storage released with a reference left")
	}
	if n, _ := m.Destroy(h); n != 0 {
		t.Errorf("Destroy = %d, want 0", n)
	}
	if len(b.released) != 1 || m.Len() != 0 {
		t.Errorf("released %d storages, %d surfaces left", len(b.released), m.Len())
	}
}

// TestCreate tests the caps and formats of new surfaces.
func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		wantCaps Caps
		wantFmt  pixfmt.PixelFormat
		wantW    int
		wantErr  error
	}{
		{"primary", Request{Caps: Primary}, Primary | Front | Visible, pixfmt.XRGB8888, 64, nil},
		{"offscreen default format", Request{Width: 5, Height: 5}, Offscreen, pixfmt.XRGB8888, 5, nil},
		{"alpha", Request{Width: 5, Height: 5, Format: pixfmt.ARGB8888}, Offscreen | HasAlpha, pixfmt.ARGB8888, 5, nil},
		{"zbuffer", Request{Width: 5, Height: 5, Format: pixfmt.ZBuffer16}, Offscreen | HasZBuffer, pixfmt.ZBuffer16, 5, nil},
		{"empty", Request{Width: 0, Height: 5}, 0, pixfmt.PixelFormat{}, 0, ErrIncompatible},
		{"bad format", Request{Width: 5, Height: 5, Format: pixfmt.PixelFormat{BitsPerPixel: 12}}, 0, pixfmt.PixelFormat{}, 0, pixfmt.ErrUnsupportedBpp},
		{"negative back buffers", Request{Width: 5, Height: 5, BackBufferCount: -1}, 0, pixfmt.PixelFormat{}, 0, ErrIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t)
			h, err := m.Create(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			s, _ := m.Get(h)
			if s.Caps() != tt.wantCaps {
				t.Errorf("caps = %v, want %v", s.Caps(), tt.wantCaps)
			}
			if s.Format() != tt.wantFmt {
				t.Errorf("format = %v, want %v", s.Format(), tt.wantFmt)
			}
			if w, _ := s.Size(); w != tt.wantW {
				t.Errorf("width = %d, want %d", w, tt.wantW)
			}
		})
	}
}

// TestSinglePrimary tests that only one primary surface may exist and that
// the mode cannot change under it.
func TestSinglePrimary(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(Request{Caps: Primary}); !errors.Is(err, ErrIncompatible) {
		t.Errorf("second primary: %v, want ErrIncompatible", err)
	}
	if err := m.SetMode(m.Mode()); !errors.Is(err, ErrIncompatible) {
		t.Errorf("SetMode with primary: %v, want ErrIncompatible", err)
	}
	if _, err := m.Destroy(h); err != nil {
		t.Fatal(err)
	}
	if err := m.SetMode(m.Mode()); err != nil {
		t.Errorf("SetMode: %v", err)
	}
}

// TestCreateFailureReleasesMembers tests that a failed chain creation
// leaves nothing behind.
func TestCreateFailureReleasesMembers(t *testing.T) {
	m, b := newTestManager(t)
	b.fail = true
	if _, err := m.Create(Request{Caps: Primary, BackBufferCount: 2}); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Create: %v, want ErrOutOfMemory", err)
	}
	if m.Len() != 0 {
		t.Errorf("%d surfaces left after failed Create", m.Len())
	}
}

// TestUnlockFlushesVisible tests that only visible surfaces reach the
// display, and only with the locked rectangle.
func TestUnlockFlushesVisible(t *testing.T) {
	m, _ := newTestManager(t)
	primary, err := m.Create(Request{Caps: Primary})
	if err != nil {
		t.Fatal(err)
	}
	off, err := m.Create(Request{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	r := pixfmt.R(1, 2, 3, 4)
	for _, h := range []Handle{primary, off} {
		if _, err := m.Lock(h, &r); err != nil {
			t.Fatal(err)
		}
		if err := m.Unlock(h); err != nil {
			t.Fatal(err)
		}
	}
	if got := storageOf(t, m, primary).flushes; len(got) != 1 || got[0] != r {
		t.Errorf("primary flushes = %v, want [%v]", got, r)
	}
	if got := storageOf(t, m, off).flushes; len(got) != 0 {
		t.Errorf("offscreen flushes = %v, want none", got)
	}
}

// TestCloseReverseOrder tests that Close releases every surface, newest
// first, whatever the reference counts.
func TestCloseReverseOrder(t *testing.T) {
	m, b := newTestManager(t)
	var handles []Handle
	for i := 0; i < 3; i++ {
		h, err := m.Create(Request{Width: 4 + i, Height: 4})
		if err != nil {
			t.Fatal(err)
		}
		handles = append(handles, h)
	}
	if _, err := m.AddRef(handles[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Lock(handles[1], nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(b.released) != 3 {
		t.Fatalf("released %d storages, want 3", len(b.released))
	}
	for i, st := range b.released {
		if want := 4 + 2 - i; st.req.Width != want {
			t.Errorf("release %d was the %d-wide surface, want %d", i, st.req.Width, want)
		}
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after Close", m.Len())
	}
}

// TestColorKey tests setting and clearing color keys.
func TestColorKey(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	key := &ColorKey{Low: 1, High: 2}
	if err := m.SetColorKey(h, SrcKey, key); err != nil {
		t.Fatal(err)
	}
	key.High = 9
	s, _ := m.Get(h)
	if got := s.ColorKey(SrcKey); got == nil || *got != (ColorKey{Low: 1, High: 2}) {
		t.Errorf("source key = %v, want copy of {1 2}", got)
	}
	if s.ColorKey(DstKey) != nil {
		t.Error("destination key set")
	}
	if err := m.SetColorKey(h, SrcKey, nil); err != nil {
		t.Fatal(err)
	}
	if s.ColorKey(SrcKey) != nil {
		t.Error("source key not cleared")
	}
}

// TestSetMemory tests replacing offscreen storage with client memory.
func TestSetMemory(t *testing.T) {
	m, b := newTestManager(t)
	h, err := m.Create(Request{Width: 4, Height: 4, Format: pixfmt.Indexed8})
	if err != nil {
		t.Fatal(err)
	}
	pix := make([]byte, 16*2)
	if err := m.SetMemory(h, pix, 16, 10, 2, pixfmt.RGB565); !errors.Is(err, ErrIncompatible) {
		t.Errorf("format change: %v, want ErrIncompatible", err)
	}
	if err := m.SetMemory(h, pix[:10], 16, 10, 2, pixfmt.Indexed8); !errors.Is(err, ErrIncompatible) {
		t.Errorf("short memory: %v, want ErrIncompatible", err)
	}
	if err := m.SetMemory(h, pix, 16, 10, 2, pixfmt.Indexed8); err != nil {
		t.Fatalf("SetMemory: %v", err)
	}
	if len(b.released) != 1 {
		t.Errorf("old storage not released")
	}
	lr, err := m.Lock(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	lr.Pix[16] = 7
	if pix[16] != 7 || lr.Pitch != 16 {
		t.Errorf("lock does not expose client memory")
	}
	s, _ := m.Get(h)
	if w, hh := s.Size(); w != 10 || hh != 2 {
		t.Errorf("size = %dx%d, want 10x2", w, hh)
	}
}

// TestCapsString tests capability names.
func TestCapsString(t *testing.T) {
	if got := (Primary | Front | Visible).String(); got != "primary|front|visible" {
		t.Errorf("String() = %q", got)
	}
	if got := Caps(0).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
	if !(Primary | Front).Has(Front) || Front.Has(Primary|Front) {
		t.Error("Has mismatch")
	}
}
