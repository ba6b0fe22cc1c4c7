// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !headless

package main

import (
	"errors"
	"time"

	"github.com/gogpu/ddraw/host/ebitenhost"
)

func init() {
	hosts["ebiten"] = openEbiten
}

// openEbiten runs the window on the main goroutine and the demo beside
// it, one flip per drawn frame.
func openEbiten(width, height int) (hostEnv, error) {
	d := ebitenhost.New(ebitenhost.Config{Title: "ddrawdemo", Width: width, Height: height, Scale: 1})
	run := func(demo func() error) error {
		done := make(chan error, 1)
		go func() {
			err := demo()
			_ = d.Close()
			done <- err
		}()
		if err := d.Run(); err != nil {
			return err
		}
		select {
		case err := <-done:
			return err
		case <-time.After(time.Second):
			return errors.New("window closed before the demo finished")
		}
	}
	return hostEnv{display: d, run: run, pace: d.WaitFrame}, nil
}
