// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package probe detects which display-access mechanisms a host offers.
//
// Probes never fail: a missing, unusable or erroring mechanism reports
// None. Results are cached per display after the first successful probe,
// so repeated calls cost nothing and have no side effects.
package probe

import (
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/internal/dlog"
)

// Level ranks display-access mechanisms, best last.
type Level int

const (
	// None means no acceleration; only plain image puts are possible.
	None Level = iota

	// Direct is basic direct framebuffer access.
	Direct

	// Direct2 is direct framebuffer access with page flipping.
	Direct2

	// SharedImage is the shared-memory image transport.
	SharedImage
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Direct:
		return "direct"
	case Direct2:
		return "direct2"
	case SharedImage:
		return "shared-image"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Family is a group of mechanisms where a newer version supersedes an
// older one.
type Family int

const (
	// FamilyDirect covers Direct and Direct2.
	FamilyDirect Family = iota

	// FamilySharedImage covers SharedImage.
	FamilySharedImage
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyDirect:
		return "direct"
	case FamilySharedImage:
		return "shared-image"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Func probes one family on one display.
type Func func(d host.Display) Level

// ProbeDirect reports Direct2 when the direct-access extension is version
// 2 or later, Direct for version 1 and None otherwise.
func ProbeDirect(d host.Display) Level {
	dh, ok := d.(host.DirectHost)
	if !ok {
		return None
	}
	major, _, ok := dh.DirectVersion()
	switch {
	case !ok:
		return None
	case major >= 2:
		return Direct2
	case major == 1:
		return Direct
	}
	return None
}

// ProbeSharedImage reports SharedImage when the shared-memory transport is
// present.
func ProbeSharedImage(d host.Display) Level {
	sh, ok := d.(host.ShmHost)
	if !ok {
		return None
	}
	if _, _, ok := sh.ShmVersion(); !ok {
		return None
	}
	return SharedImage
}

// Prober caches probe results per display and family.
type Prober struct {
	mu     sync.Mutex
	cache  map[cacheKey]Level
	group  singleflight.Group
	probes map[Family]Func

	// ids numbers displays for in-flight probe keys.
	ids    map[host.Display]uint64
	nextID uint64
}

type cacheKey struct {
	display host.Display
	family  Family
}

// New returns a prober using ProbeDirect and ProbeSharedImage.
func New() *Prober {
	return &Prober{
		cache: make(map[cacheKey]Level),
		ids:   make(map[host.Display]uint64),
		probes: map[Family]Func{
			FamilyDirect:      ProbeDirect,
			FamilySharedImage: ProbeSharedImage,
		},
	}
}

// SetFunc replaces the probe of a family and drops cached results for it.
func (p *Prober) SetFunc(f Family, fn Func) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes[f] = fn
	for k := range p.cache {
		if k.family == f {
			delete(p.cache, k)
		}
	}
}

// Family probes one family on d.
func (p *Prober) Family(d host.Display, f Family) Level {
	key := cacheKey{d, f}
	p.mu.Lock()
	if l, ok := p.cache[key]; ok {
		p.mu.Unlock()
		return l
	}
	fn := p.probes[f]
	id := p.idLocked(d)
	p.mu.Unlock()
	if fn == nil {
		return None
	}

	v, _, _ := p.group.Do(strconv.FormatUint(id, 10)+"/"+strconv.Itoa(int(f)), func() (any, error) {
		return safeProbe(fn, d), nil
	})
	l := v.(Level)
	dlog.Logger().Debug("probe: family probed", "display", d.Name(), "family", f.String(), "level", l.String())
	if l != None {
		p.mu.Lock()
		p.cache[key] = l
		p.mu.Unlock()
	}
	return l
}

// Probe returns the best level any family reaches on d.
func (p *Prober) Probe(d host.Display) Level {
	best := None
	for _, f := range []Family{FamilyDirect, FamilySharedImage} {
		if l := p.Family(d, f); l > best {
			best = l
		}
	}
	return best
}

// Forget drops every cached result for d.
func (p *Prober) Forget(d host.Display) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.cache {
		if k.display == d {
			delete(p.cache, k)
		}
	}
	delete(p.ids, d)
}

func (p *Prober) idLocked(d host.Display) uint64 {
	id, ok := p.ids[d]
	if !ok {
		p.nextID++
		id = p.nextID
		p.ids[d] = id
	}
	return id
}

// safeProbe runs fn and turns a panic in a host query into None.
func safeProbe(fn Func, d host.Display) (l Level) {
	defer func() {
		if r := recover(); r != nil {
			dlog.Logger().Warn("probe: host query panicked", "display", d.Name(), "panic", r)
			l = None
		}
	}()
	return fn(d)
}

var (
	defaultOnce   sync.Once
	defaultProber *Prober
)

// Default returns the process-wide prober.
func Default() *Prober {
	defaultOnce.Do(func() { defaultProber = New() })
	return defaultProber
}
