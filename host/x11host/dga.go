// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11host

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

const dgaExtension = "XFree86-DGA"

// XFree86-DGA minor opcodes.
const (
	dgaQueryVersion = 0
	dgaGetVideoLL   = 1
	dgaDirectVideo  = 2
	dgaSetViewPort  = 5
)

// dgaDirectGraphics enables direct framebuffer access in DirectVideo.
const dgaDirectGraphics = 0x2

func (d *Display) queryDGA() {
	r, err := xproto.QueryExtension(d.conn, uint16(len(dgaExtension)), dgaExtension).Reply()
	if err != nil || !r.Present {
		return
	}
	d.dgaOpcode = r.MajorOpcode
	reply, err := d.dgaRequest(dgaQueryVersion, nil, true)
	if err != nil || len(reply) < 12 {
		d.dgaOpcode = 0
		return
	}
	d.dgaMajor = int(xgb.Get16(reply[8:]))
	d.dgaMinor = int(xgb.Get16(reply[10:]))
}

// DirectVersion reports the DGA version. Mapping is only available on
// Linux.
func (d *Display) DirectVersion() (int, int, bool) {
	return d.dgaMajor, d.dgaMinor, d.dgaOpcode != 0 && dgaMapping
}

// dgaRequest sends a DGA request with the given body, padded to a multiple
// of four bytes, and waits for the reply or the error.
func (d *Display) dgaRequest(minor byte, body []byte, reply bool) ([]byte, error) {
	if d.dgaOpcode == 0 {
		return nil, fmt.Errorf("x11host: %s not present", dgaExtension)
	}
	if d.isClosed() {
		return nil, ErrClosed
	}
	size := xgb.Pad(4 + len(body))
	buf := make([]byte, size)
	buf[0] = d.dgaOpcode
	buf[1] = minor
	xgb.Put16(buf[2:], uint16(size/4))
	copy(buf[4:], body)

	cookie := d.conn.NewCookie(true, reply)
	d.conn.NewRequest(buf, cookie)
	if !reply {
		return nil, cookie.Check()
	}
	return cookie.Reply()
}

// screenBody encodes the screen number followed by a 16-bit value.
func (d *Display) screenBody(v uint16) []byte {
	b := make([]byte, 4)
	xgb.Put16(b, uint16(d.screenNum()))
	xgb.Put16(b[2:], v)
	return b
}
