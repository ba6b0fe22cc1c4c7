// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"
)

func mustGet(t *testing.T, m *Manager, h Handle) *Surface {
	t.Helper()
	s, err := m.Get(h)
	if err != nil {
		t.Fatalf("Get(%v): %v", h, err)
	}
	return s
}

func countFront(c *FlipChain) int {
	n := 0
	for _, s := range c.members {
		if s.caps&Front != 0 {
			n++
		}
	}
	return n
}

// TestFlipSwapsFrontAndBack tests a two-member chain flipped once.
func TestFlipSwapsFrontAndBack(t *testing.T) {
	m, b := newTestManager(t)
	front, err := m.Create(Request{Caps: Primary, BackBufferCount: 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	attached, err := m.Attached(front)
	if err != nil || len(attached) != 1 {
		t.Fatalf("Attached = %v, %v", attached, err)
	}
	back := attached[0]
	if !mustGet(t, m, front).Caps().Has(Primary|Front|Visible|Flippable|Complex) {
		t.Errorf("front caps = %v", mustGet(t, m, front).Caps())
	}
	if !mustGet(t, m, back).Caps().Has(Back | Flippable) {
		t.Errorf("back caps = %v", mustGet(t, m, back).Caps())
	}

	if err := m.Flip(front, Handle{}); err != nil {
		t.Fatalf("Flip: %v", err)
	}
	if c := mustGet(t, m, back).Caps(); !c.Has(Front|Visible) || c&Back != 0 {
		t.Errorf("former back caps = %v, want front and visible", c)
	}
	if c := mustGet(t, m, front).Caps(); !c.Has(Back) || c&(Front|Visible) != 0 {
		t.Errorf("former front caps = %v, want back", c)
	}
	if b.flips != 1 {
		t.Errorf("backend flips = %d, want 1", b.flips)
	}
	if got := storageOf(t, m, back).flushes; len(got) != 1 {
		t.Errorf("new front flushed %d times, want 1", len(got))
	}
}

// TestFlipKeepsOneFront tests that repeated flips keep exactly one front
// member and the chain length.
func TestFlipKeepsOneFront(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 3})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c := mustGet(t, m, h).Chain()
	members := c.Members()
	for i := 0; i < 9; i++ {
		if err := m.Flip(h, Handle{}); err != nil {
			t.Fatalf("Flip %d: %v", i, err)
		}
		if n := countFront(c); n != 1 {
			t.Fatalf("flip %d: %d front members", i, n)
		}
		if c.Len() != 4 {
			t.Fatalf("flip %d: chain length %d", i, c.Len())
		}
		if want := members[(i+1)%4]; c.Front() != want {
			t.Errorf("flip %d: front = %v, want %v", i, c.Front(), want)
		}
	}
}

// TestFlipTarget tests flipping to a named member.
func TestFlipTarget(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	members := mustGet(t, m, h).Chain().Members()
	if err := m.Flip(h, members[2]); err != nil {
		t.Fatalf("Flip to last member: %v", err)
	}
	c := mustGet(t, m, h).Chain()
	if c.Front() != members[2] {
		t.Errorf("front = %v, want %v", c.Front(), members[2])
	}
	if !mustGet(t, m, members[0]).Caps().Has(Back) {
		t.Errorf("member after the front is not tagged back")
	}
	if err := m.Flip(h, members[2]); !errors.Is(err, ErrNotFlippable) {
		t.Errorf("Flip to current front: %v, want ErrNotFlippable", err)
	}
	other, _ := m.Create(Request{Width: 4, Height: 4})
	if err := m.Flip(h, other); !errors.Is(err, ErrNotFlippable) {
		t.Errorf("Flip to a stranger: %v, want ErrNotFlippable", err)
	}
}

// TestFlipErrors tests surfaces that cannot flip.
func TestFlipErrors(t *testing.T) {
	m, _ := newTestManager(t)
	single, _ := m.Create(Request{Width: 4, Height: 4})
	if err := m.Flip(single, Handle{}); !errors.Is(err, ErrNotFlippable) {
		t.Errorf("Flip of single surface: %v, want ErrNotFlippable", err)
	}
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	back := mustGet(t, m, h).Chain().Members()[1]
	if _, err := m.Lock(back, nil); err != nil {
		t.Fatal(err)
	}
	if err := m.Flip(h, Handle{}); !errors.Is(err, ErrLocked) {
		t.Errorf("Flip with locked member: %v, want ErrLocked", err)
	}
}

// TestDestroyComplexRoot tests that destroying the surface that created a
// chain releases its back buffers.
func TestDestroyComplexRoot(t *testing.T) {
	m, b := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	if n, err := m.Destroy(h); err != nil || n != 0 {
		t.Fatalf("Destroy = %d, %v", n, err)
	}
	if m.Len() != 0 || len(b.released) != 3 {
		t.Errorf("Len() = %d, released %d; want 0 and 3", m.Len(), len(b.released))
	}
}

// TestDestroyKeepsReferencedBackBuffer tests that a back buffer the caller
// holds outlives the chain.
func TestDestroyKeepsReferencedBackBuffer(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	back := mustGet(t, m, h).Chain().Members()[1]
	if _, err := m.AddRef(back); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Destroy(h); err != nil {
		t.Fatal(err)
	}
	s := mustGet(t, m, back)
	if s.Chain() != nil || s.Refs() != 1 {
		t.Errorf("back buffer chain = %v, refs = %d; want none and 1", s.Chain(), s.Refs())
	}
	if s.Caps()&(Primary|Flippable|Back) != 0 {
		t.Errorf("back buffer keeps caps %v", s.Caps())
	}
}

// TestAttachDetach tests building and dismantling a chain by hand.
func TestAttachDetach(t *testing.T) {
	m, _ := newTestManager(t)
	var hs [3]Handle
	for i := range hs {
		h, err := m.Create(Request{Width: 8, Height: 8})
		if err != nil {
			t.Fatal(err)
		}
		hs[i] = h
	}
	a, b, c := hs[0], hs[1], hs[2]
	if err := m.Attach(a, b); err != nil {
		t.Fatalf("Attach(a, b): %v", err)
	}
	if err := m.Attach(a, c); err != nil {
		t.Fatalf("Attach(a, c): %v", err)
	}
	chain := mustGet(t, m, a).Chain()
	if chain == nil || chain.Len() != 3 || chain.Owner() != a {
		t.Fatalf("chain = %+v", chain)
	}
	if n := mustGet(t, m, b).Refs(); n != 2 {
		t.Errorf("attached refs = %d, want 2", n)
	}
	got, _ := m.Attached(b)
	if len(got) != 2 || got[0] != c || got[1] != a {
		t.Errorf("Attached(b) = %v, want [c a]", got)
	}

	if err := m.Attach(a, b); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach: %v, want ErrAlreadyAttached", err)
	}

	if err := m.Detach(a, b); err != nil {
		t.Fatalf("Detach(a, b): %v", err)
	}
	if n := mustGet(t, m, b).Refs(); n != 1 {
		t.Errorf("detached refs = %d, want 1", n)
	}
	if chain.Len() != 2 {
		t.Errorf("chain length = %d, want 2", chain.Len())
	}
	if err := m.Detach(a, b); !errors.Is(err, ErrNotAttached) {
		t.Errorf("second Detach: %v, want ErrNotAttached", err)
	}
	if err := m.Detach(a, c); err != nil {
		t.Fatalf("Detach(a, c): %v", err)
	}
	if mustGet(t, m, a).Chain() != nil {
		t.Error("chain with one member not dissolved")
	}
	if c := mustGet(t, m, a).Caps(); c&Flippable != 0 || c&Front == 0 {
		t.Errorf("last member caps = %v, want front only", c)
	}
}

// TestDetachFrontPromotesPrevious tests that detaching the front member
// moves the front to the member before it.
func TestDetachFrontPromotesPrevious(t *testing.T) {
	m, _ := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 2})
	if err != nil {
		t.Fatal(err)
	}
	members := mustGet(t, m, h).Chain().Members()
	if err := m.Flip(h, members[1]); err != nil {
		t.Fatal(err)
	}
	before := len(storageOf(t, m, h).flushes)
	if err := m.Detach(h, members[1]); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	c := mustGet(t, m, h).Chain()
	if c.Front() != h {
		t.Errorf("front = %v, want %v", c.Front(), h)
	}
	if n := countFront(c); n != 1 {
		t.Errorf("%d front members", n)
	}
	if !mustGet(t, m, h).Caps().Has(Visible) {
		t.Error("promoted primary is not visible")
	}
	if len(storageOf(t, m, h).flushes) != before+1 {
		t.Error("promoted front not flushed")
	}
	if _, err := m.Get(members[1]); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("detached back buffer still alive: %v", err)
	}
}

// TestDestroyFrontShowsPromoted tests that destroying the front member
// hands the display to the promoted member before the storage goes away.
func TestDestroyFrontShowsPromoted(t *testing.T) {
	m, b := newTestManager(t)
	h, err := m.Create(Request{Caps: Primary, BackBufferCount: 1})
	if err != nil {
		t.Fatal(err)
	}
	back := mustGet(t, m, h).Chain().Members()[1]
	if err := m.Flip(h, Handle{}); err != nil {
		t.Fatal(err)
	}
	flips := b.flips
	before := len(storageOf(t, m, h).flushes)
	backStorage := storageOf(t, m, back)

	if n, err := m.Destroy(back); err != nil || n != 0 {
		t.Fatalf("Destroy = %d, %v", n, err)
	}
	if !backStorage.released {
		t.Error("destroyed front storage not released")
	}
	if b.flips != flips+1 {
		t.Errorf("backend flips = %d, want %d", b.flips, flips+1)
	}
	if !mustGet(t, m, h).Caps().Has(Primary | Front | Visible) {
		t.Errorf("promoted caps = %v", mustGet(t, m, h).Caps())
	}
	if len(storageOf(t, m, h).flushes) != before+1 {
		t.Error("promoted front not flushed")
	}
}

// TestAttachIncompatible tests the attach preconditions.
func TestAttachIncompatible(t *testing.T) {
	m, _ := newTestManager(t)
	a, _ := m.Create(Request{Width: 8, Height: 8})
	small, _ := m.Create(Request{Width: 4, Height: 8})
	primary, _ := m.Create(Request{Caps: Primary})

	tests := []struct {
		name          string
		parent, child Handle
		wantErr       error
	}{
		{"self", a, a, ErrIncompatible},
		{"size", a, small, ErrIncompatible},
		{"primary child", a, primary, ErrIncompatible},
		{"stale", a, Handle{index: 9, gen: 1}, ErrInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Attach(tt.parent, tt.child); !errors.Is(err, tt.wantErr) {
				t.Errorf("Attach() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
