// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWaitReady(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "X1")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	s := New(1, "Xfake", nil, "")
	s.socket = sock
	s.Timeout = time.Second
	if err := s.waitReady(); err != nil {
		t.Fatalf("waitReady with a listener: %v != nil", err)
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	s := New(1, "Xfake", nil, "")
	s.socket = filepath.Join(t.TempDir(), "X1")
	s.Timeout = 200 * time.Millisecond
	if err := s.waitReady(); err == nil {
		t.Fatal("waitReady with no listener: nil != err")
	}
}

func TestClientCommandDefault(t *testing.T) {
	s := New(1, "Xfake", nil, filepath.Join(t.TempDir(), "xinitrc"))
	c := s.clientCommand()
	if c.Args[0] != "xterm" {
		t.Errorf("client without an xinitrc = %q, want xterm", c.Args)
	}
}

func TestClientCommandXinitrc(t *testing.T) {
	rc := filepath.Join(t.TempDir(), "xinitrc")
	if err := os.WriteFile(rc, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	s := New(1, "Xfake", nil, rc)
	c := s.clientCommand()
	if c.Args[0] != "/bin/sh" || len(c.Args) != 2 || c.Args[1] != rc {
		t.Errorf("client with an xinitrc = %q, want [/bin/sh %s]", c.Args, rc)
	}
}

// TestRun drives a whole session with a stand-in server: the
// readiness socket is served by the test, the server is a sleep that
// Run must terminate, and the xinitrc asserts DISPLAY was set.
func TestRun(t *testing.T) {
	d := t.TempDir()
	sock := filepath.Join(d, "X2")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	rc := filepath.Join(d, "xinitrc")
	if err := os.WriteFile(rc, []byte("#!/bin/sh\ntest -n \"$DISPLAY\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := New(2, "sleep", []string{"30"}, rc)
	s.socket = sock
	s.Stdout, s.Stderr = io.Discard, io.Discard
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v != nil", err)
	}
}

func TestRunClientFailure(t *testing.T) {
	d := t.TempDir()
	sock := filepath.Join(d, "X3")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	rc := filepath.Join(d, "xinitrc")
	if err := os.WriteFile(rc, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	s := New(3, "sleep", []string{"30"}, rc)
	s.socket = sock
	s.Stdout, s.Stderr = io.Discard, io.Discard
	if err := s.Run(); err == nil {
		t.Fatal("Run with a failing client: nil != err")
	}
}

func TestRunBadServer(t *testing.T) {
	s := New(4, filepath.Join(t.TempDir(), "Xmissing"), nil, "")
	if err := s.Run(); err == nil {
		t.Fatal("Run with a missing server: nil != err")
	}
}
