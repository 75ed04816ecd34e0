// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xserver locates nested X server binaries and keeps track
// of display numbers and screen geometry.
package xserver

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DefaultServers lists nested X server binaries in preference order.
// Xephyr is the maintained one; Xnest is kept for systems that still
// ship it.
var DefaultServers = []string{"Xephyr", "Xnest"}

var v = func(string, ...interface{}) {}

// SetVerbose sets the package debug print function.
func SetVerbose(f func(string, ...interface{})) {
	v = f
}

// Find resolves the first of names found on PATH, verifying that the
// result is in fact executable. If names is empty, DefaultServers is
// used. The returned path is non-empty exactly when err is nil.
func Find(names ...string) (string, error) {
	if len(names) == 0 {
		names = DefaultServers
	}
	var tried []string
	for _, n := range names {
		p, err := exec.LookPath(n)
		if err != nil {
			v("xserver: LookPath(%q): %v", n, err)
			tried = append(tried, n)
			continue
		}
		if err := unix.Access(p, unix.X_OK); err != nil {
			v("xserver: %q at %q is not executable: %v", n, p, err)
			tried = append(tried, n)
			continue
		}
		v("xserver: using %q", p)
		return p, nil
	}
	return "", fmt.Errorf("no nested X server on PATH: tried %s", strings.Join(tried, ", "))
}

// A Geometry is a screen size in pixels, rendered as WxH for the
// server's -screen argument.
type Geometry struct {
	Width  int
	Height int
}

// ParseGeometry parses a geometry of the form "800x600".
func ParseGeometry(s string) (Geometry, error) {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return Geometry{}, fmt.Errorf("bad geometry %q: want WxH", s)
	}
	wi, werr := strconv.Atoi(w)
	hi, herr := strconv.Atoi(h)
	if werr != nil || herr != nil || wi <= 0 || hi <= 0 {
		return Geometry{}, fmt.Errorf("bad geometry %q: want WxH", s)
	}
	return Geometry{Width: wi, Height: hi}, nil
}

// String renders g the way -screen wants it.
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}
