// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/process"
)

// A Display is an X display number, rendered as ":N".
type Display int

// Well-known X server rendezvous locations. Variables so tests can
// point them at a scratch directory.
var (
	lockDir   = "/tmp"
	socketDir = "/tmp/.X11-unix"
)

// maxProbe bounds the Free scan. Display numbers past a few hundred
// mean something else is wrong with the machine.
const maxProbe = 128

// ParseDisplay parses a display of the form ":N"; a bare "N" and a
// trailing screen (":N.0") are also accepted. Hostname-qualified
// displays are rejected, a nested server is always local.
func ParseDisplay(s string) (Display, error) {
	t := strings.TrimPrefix(s, ":")
	if strings.Contains(t, ":") {
		return 0, fmt.Errorf("bad display %q: want \":N\"", s)
	}
	if i := strings.IndexByte(t, '.'); i >= 0 {
		t = t[:i]
	}
	n, err := strconv.Atoi(t)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad display %q: want \":N\"", s)
	}
	return Display(n), nil
}

// String renders d the way X tools expect it.
func (d Display) String() string {
	return fmt.Sprintf(":%d", int(d))
}

// LockFile returns the server lock file path for d.
func (d Display) LockFile() string {
	return filepath.Join(lockDir, fmt.Sprintf(".X%d-lock", int(d)))
}

// Socket returns the listening socket path for d.
func (d Display) Socket() string {
	return filepath.Join(socketDir, fmt.Sprintf("X%d", int(d)))
}

// Busy reports whether d appears to be in use, judged by its lock
// file and socket. A stale lock still counts as busy here; use
// LockOwner to find out whether the owner is alive.
func (d Display) Busy() bool {
	if _, err := os.Stat(d.LockFile()); err == nil {
		return true
	}
	if _, err := os.Stat(d.Socket()); err == nil {
		return true
	}
	return false
}

// Free returns the first unused display at or above start, probing
// the same way xinit does before picking a display.
func Free(start Display) (Display, error) {
	for d := start; d < start+maxProbe; d++ {
		if !d.Busy() {
			v("xserver: display %v is free", d)
			return d, nil
		}
		v("xserver: display %v busy", d)
	}
	return 0, fmt.Errorf("no free display in [%v, %v)", start, start+maxProbe)
}

// LockOwner reads the owning PID from d's lock file and names the
// process, for use in "display busy" diagnostics. X servers write
// the PID in decimal, space padded to ten columns. The returned
// name is empty if the owner is gone (a stale lock).
func LockOwner(d Display) (int32, string, error) {
	b, err := os.ReadFile(d.LockFile())
	if err != nil {
		return 0, "", err
	}
	pid64, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("lock file %s: %v", d.LockFile(), err)
	}
	pid := int32(pid64)
	p, err := process.NewProcess(pid)
	if err != nil {
		return pid, "", nil
	}
	name, err := p.Name()
	if err != nil {
		return pid, "", nil
	}
	return pid, name, nil
}
