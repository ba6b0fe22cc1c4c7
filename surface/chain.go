// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"

	"github.com/gogpu/ddraw/internal/dlog"
	"github.com/gogpu/ddraw/pixfmt"
)

// FlipChain is an ordered ring of surfaces. Exactly one member is tagged
// Front; the member after it is tagged Back.
//
// The chain holds one reference on every member except its owner, the
// surface it was created for. Members point back to the chain without
// owning it.
type FlipChain struct {
	owner   *Surface
	members []*Surface
	front   int
}

// Len returns the number of members.
func (c *FlipChain) Len() int { return len(c.members) }

// Members returns the member handles in ring order.
func (c *FlipChain) Members() []Handle {
	out := make([]Handle, len(c.members))
	for i, s := range c.members {
		out[i] = s.handle
	}
	return out
}

// Front returns the handle of the front member.
func (c *FlipChain) Front() Handle { return c.members[c.front].handle }

// Owner returns the handle of the surface owning the chain.
func (c *FlipChain) Owner() Handle { return c.owner.handle }

func (c *FlipChain) index(s *Surface) int {
	for i, m := range c.members {
		if m == s {
			return i
		}
	}
	return -1
}

// retag moves the Front, Back and Visible flags to match c.front.
func (c *FlipChain) retag() {
	n := len(c.members)
	for i, s := range c.members {
		s.caps &^= Front | Back | Visible
		switch {
		case i == c.front:
			s.caps |= Front
			if s.caps&Primary != 0 {
				s.caps |= Visible
			}
		case n > 1 && i == (c.front+1)%n:
			s.caps |= Back
		}
	}
}

// remove takes s out of the ring, promoting the previous member when s was
// in front. It returns the promoted member, or nil when s was not in front
// or nothing is left. It does not touch reference counts.
func (c *FlipChain) remove(s *Surface) *Surface {
	i := c.index(s)
	if i < 0 {
		return nil
	}
	wasFront := i == c.front
	c.members = append(c.members[:i], c.members[i+1:]...)
	s.chain = nil
	s.caps &^= Front | Back | Visible | Flippable | Complex
	if s != c.owner {
		s.caps &^= Primary
	}
	if len(c.members) == 0 {
		return nil
	}
	switch {
	case wasFront:
		c.front = (i - 1 + len(c.members)) % len(c.members)
	case i < c.front:
		c.front--
	}
	front := c.members[c.front]
	if len(c.members) == 1 {
		front.chain = nil
		front.caps &^= Flippable | Complex | Back
		front.caps |= Front
		if front.caps&Primary != 0 {
			front.caps |= Visible
		}
		c.members = nil
		c.front = 0
	} else {
		c.retag()
	}
	if !wasFront {
		return nil
	}
	return front
}

// show puts front on the display after old left the front position. It
// runs before the storage of old is released.
func (m *Manager) show(front, old *Surface) error {
	if f, ok := m.backend.(Flipper); ok {
		if err := f.Flip(front.storage, old.storage); err != nil {
			return err
		}
	}
	if front.visible() && !front.locked {
		return m.flush(front, pixfmt.Full(front.width, front.height))
	}
	return nil
}

// dissolve breaks up the chain of its owner and drops the chain's
// reference on every other member.
func (m *Manager) dissolve(c *FlipChain) {
	members := append([]*Surface(nil), c.members...)
	for _, s := range members {
		s.chain = nil
		s.caps &^= Front | Back | Visible | Flippable | Complex
	}
	c.members = nil
	for _, s := range members {
		if s != c.owner && s.refs > 0 {
			s.caps &^= Primary
			m.release(s)
		}
	}
}

// Chain returns the flip chain of the surface, or nil.
func (m *Manager) Chain(h Handle) (*FlipChain, error) {
	s, err := m.Get(h)
	if err != nil {
		return nil, err
	}
	return s.chain, nil
}

// Attached returns the chain members following the surface in ring order.
func (m *Manager) Attached(h Handle) ([]Handle, error) {
	s, err := m.Get(h)
	if err != nil {
		return nil, opErr("attached", h, err)
	}
	c := s.chain
	if c == nil {
		return nil, nil
	}
	i := c.index(s)
	out := make([]Handle, 0, len(c.members)-1)
	for k := 1; k < len(c.members); k++ {
		out = append(out, c.members[(i+k)%len(c.members)].handle)
	}
	return out, nil
}

// Attach appends child to the flip chain of parent, creating the chain
// when parent has none. The chain takes a reference on child.
func (m *Manager) Attach(parent, child Handle) error {
	p, err := m.Get(parent)
	if err != nil {
		return opErr("attach", parent, err)
	}
	ch, err := m.Get(child)
	if err != nil {
		return opErr("attach", child, err)
	}
	switch {
	case p == ch:
		return opErr("attach", child, fmt.Errorf("%w: surface attached to itself", ErrIncompatible))
	case ch.chain != nil:
		return opErr("attach", child, ErrAlreadyAttached)
	case ch.caps&Primary != 0:
		return opErr("attach", child, fmt.Errorf("%w: primary surface cannot be attached", ErrIncompatible))
	case ch.width != p.width || ch.height != p.height || !ch.format.Equal(p.format):
		return opErr("attach", child, fmt.Errorf("%w: %dx%d %v to %dx%d %v", ErrIncompatible,
			ch.width, ch.height, ch.format, p.width, p.height, p.format))
	case ch.conv != p.conv:
		return opErr("attach", child, fmt.Errorf("%w: depth emulation differs", ErrIncompatible))
	case p.locked || ch.locked:
		return opErr("attach", child, ErrLocked)
	}

	c := p.chain
	if c == nil {
		c = &FlipChain{owner: p, members: []*Surface{p}}
		p.chain = c
		p.caps |= Flippable
	}
	c.members = append(c.members, ch)
	ch.chain = c
	ch.caps |= Flippable
	ch.caps |= p.caps & Primary
	ch.refs++
	c.retag()
	return nil
}

// Detach removes child from the flip chain of parent and drops the
// chain's reference on it. A chain left with one member is dissolved.
func (m *Manager) Detach(parent, child Handle) error {
	p, err := m.Get(parent)
	if err != nil {
		return opErr("detach", parent, err)
	}
	ch, err := m.Get(child)
	if err != nil {
		return opErr("detach", child, err)
	}
	c := p.chain
	if c == nil || ch.chain != c || ch == c.owner {
		return opErr("detach", child, ErrNotAttached)
	}
	if ch.locked {
		return opErr("detach", child, ErrLocked)
	}
	if front := c.remove(ch); front != nil {
		err = m.show(front, ch)
	}
	m.release(ch)
	if err != nil {
		return opErr("detach", child, err)
	}
	return nil
}

// Flip makes target the front member of the chain of h and flushes it.
// With a zero target the member tagged Back is used. Flags move; every
// member keeps its storage.
func (m *Manager) Flip(h Handle, target Handle) error {
	s, err := m.Get(h)
	if err != nil {
		return opErr("flip", h, err)
	}
	c := s.chain
	if c == nil || s.caps&Flippable == 0 || len(c.members) < 2 {
		return opErr("flip", h, ErrNotFlippable)
	}
	for _, mem := range c.members {
		if mem.locked {
			return opErr("flip", mem.handle, ErrLocked)
		}
	}

	next, err := m.flipTarget(c, target)
	if err != nil {
		return opErr("flip", h, err)
	}
	old := c.members[c.front]
	c.front = next
	c.retag()
	front := c.members[next]

	if f, ok := m.backend.(Flipper); ok {
		if err := f.Flip(front.storage, old.storage); err != nil {
			return opErr("flip", h, err)
		}
	}
	if front.visible() {
		if err := m.flush(front, pixfmt.Full(front.width, front.height)); err != nil {
			return opErr("flip", h, err)
		}
	}
	dlog.Logger().Debug("surface: flipped", "front", front.handle.String(), "back", old.handle.String())
	return nil
}

func (m *Manager) flipTarget(c *FlipChain, target Handle) (int, error) {
	if !target.IsZero() {
		t, err := m.Get(target)
		if err != nil {
			return 0, err
		}
		i := c.index(t)
		if i < 0 || t.caps&Flippable == 0 || i == c.front {
			return 0, fmt.Errorf("%w: target %v", ErrNotFlippable, target)
		}
		return i, nil
	}
	front, back := -1, -1
	for i, mem := range c.members {
		if mem.caps&Front != 0 && front < 0 {
			front = i
		}
		if mem.caps&Back != 0 && back < 0 {
			back = i
		}
	}
	if front < 0 {
		// Nothing tagged: start over with the first member in front.
		c.front = 0
		c.retag()
		return 1, nil
	}
	if back < 0 || back == front {
		c.front = front
		c.retag()
		back = (front + 1) % len(c.members)
	}
	return back, nil
}
