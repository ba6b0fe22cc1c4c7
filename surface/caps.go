// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import "strings"

// Caps is the capability flag set of a surface.
type Caps uint32

// Capability flags.
const (
	Primary Caps = 1 << iota
	Front
	Back
	Flippable
	Visible
	Offscreen
	HasAlpha
	HasZBuffer

	// SystemMemory surfaces live in plain memory even when the backend
	// has display memory.
	SystemMemory

	// Complex marks the surface that created its flip chain together with
	// its back buffers. Destroying it destroys the chain.
	Complex
)

var capNames = []string{
	"primary", "front", "back", "flippable", "visible", "offscreen",
	"has-alpha", "has-zbuffer", "system-memory", "complex",
}

// Has reports whether every flag of f is set.
func (c Caps) Has(f Caps) bool {
	return c&f == f
}

// String lists the set flags, e.g. "primary|front|visible".
func (c Caps) String() string {
	var parts []string
	for i, name := range capNames {
		if c&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
