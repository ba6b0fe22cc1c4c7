// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/gogpu/ddraw/host"
	"github.com/gogpu/ddraw/host/memhost"
	"github.com/gogpu/ddraw/host/x11host"
)

// hostEnv is an opened display and the way the demo runs on it.
type hostEnv struct {
	display host.Display

	// run runs the demo. Hosts owning the main goroutine run it elsewhere.
	run func(demo func() error) error

	// pace is called after each flip. Nil means no pacing.
	pace func()
}

var hosts = map[string]func(width, height int) (hostEnv, error){
	"mem": openMem,
	"x11": openX11,
}

func direct(demo func() error) error { return demo() }

func openMem(width, height int) (hostEnv, error) {
	d := memhost.New(memhost.Config{Width: width, Height: height})
	return hostEnv{display: d, run: direct}, nil
}

func openX11(width, height int) (hostEnv, error) {
	d, err := x11host.Open(x11host.Config{Width: width, Height: height, Title: "ddrawdemo"})
	if err != nil {
		return hostEnv{}, err
	}
	return hostEnv{display: d, run: direct}, nil
}
