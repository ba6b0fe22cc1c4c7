// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package probe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/host/memhost"
)

func TestProbeLevels(t *testing.T) {
	tests := []struct {
		name string
		cfg  memhost.Config
		want Level
	}{
		{"plain", memhost.Config{}, None},
		{"direct1", memhost.Config{DirectMajor: 1}, Direct},
		{"direct2", memhost.Config{DirectMajor: 2}, Direct2},
		{"shm", memhost.Config{ShmMajor: 1, ShmMinor: 2}, SharedImage},
		{"all", memhost.Config{DirectMajor: 2, ShmMajor: 1}, SharedImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New().Probe(memhost.New(tt.cfg)); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHigherVersionSupersedes(t *testing.T) {
	d := memhost.New(memhost.Config{DirectMajor: 3})
	if got := New().Family(d, FamilyDirect); got != Direct2 {
		t.Errorf("Family(direct) = %v, want direct2", got)
	}
}

func TestProbeCachesSuccess(t *testing.T) {
	var calls atomic.Int32
	p := New()
	p.SetFunc(FamilyDirect, func(host.Display) Level {
		calls.Add(1)
		return Direct
	})
	d := memhost.New(memhost.Config{})
	for i := 0; i < 5; i++ {
		if got := p.Family(d, FamilyDirect); got != Direct {
			t.Fatalf("Family() = %v", got)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("probe ran %d times, want 1", n)
	}
}

func TestProbeDoesNotCacheNone(t *testing.T) {
	var calls atomic.Int32
	p := New()
	p.SetFunc(FamilySharedImage, func(host.Display) Level {
		calls.Add(1)
		return None
	})
	d := memhost.New(memhost.Config{})
	p.Family(d, FamilySharedImage)
	p.Family(d, FamilySharedImage)
	if n := calls.Load(); n != 2 {
		t.Errorf("probe ran %d times, want 2", n)
	}
}

func TestProbePanicYieldsNone(t *testing.T) {
	p := New()
	p.SetFunc(FamilyDirect, func(host.Display) Level { panic("boom") })
	if got := p.Family(memhost.New(memhost.Config{}), FamilyDirect); got != None {
		t.Errorf("Family() = %v, want none", got)
	}
}

func TestProbeConcurrent(t *testing.T) {
	p := New()
	d := memhost.New(memhost.Config{ShmMajor: 1})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := p.Probe(d); got != SharedImage {
				t.Errorf("Probe() = %v", got)
			}
		}()
	}
	wg.Wait()
}

// TestConcurrentProbesKeepDisplaysApart tests that probes running at the
// same time on different displays are not merged, even when the displays
// share a name.
func TestConcurrentProbesKeepDisplaysApart(t *testing.T) {
	var calls atomic.Int32
	var started sync.WaitGroup
	started.Add(2)
	p := New()
	p.SetFunc(FamilyDirect, func(d host.Display) Level {
		calls.Add(1)
		started.Done()
		ready := make(chan struct{})
		go func() {
			started.Wait()
			close(ready)
		}()
		select {
		case <-ready:
		case <-time.After(time.Second):
		}
		return ProbeDirect(d)
	})

	displays := []host.Display{
		memhost.New(memhost.Config{DirectMajor: 1}),
		memhost.New(memhost.Config{DirectMajor: 2}),
	}
	want := []Level{Direct, Direct2}
	got := make([]Level, len(displays))
	var wg sync.WaitGroup
	for i, d := range displays {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = p.Family(d, FamilyDirect)
		}()
	}
	wg.Wait()

	for i := range displays {
		if got[i] != want[i] {
			t.Errorf("display %d: Family() = %v, want %v", i, got[i], want[i])
		}
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("probe ran %d times, want 2", n)
	}
}
