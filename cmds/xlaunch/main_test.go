// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func noConfig(t *testing.T) {
	t.Helper()
	old := *configPath
	*configPath = ""
	t.Cleanup(func() { *configPath = old })
}

func TestNewCmdCommandLine(t *testing.T) {
	noConfig(t)
	d := t.TempDir()
	stub := filepath.Join(d, "Xephyr")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", d)

	c, err := newCmd(nil)
	if err != nil {
		t.Fatalf("newCmd: %v != nil", err)
	}
	want := []string{"xinit", c.Xinitrc, "--", stub, ":100", "-ac", "-screen", "800x600", "-host-cursor"}
	if got := c.CommandLine(); !reflect.DeepEqual(got, want) {
		t.Errorf("CommandLine() = %q, want %q", got, want)
	}
}

// A server missing from PATH must not stop the hand-off; the
// initializer owns that failure.
func TestNewCmdServerAbsent(t *testing.T) {
	noConfig(t)
	t.Setenv("PATH", t.TempDir())

	c, err := newCmd(nil)
	if err != nil {
		t.Fatalf("newCmd with no server on PATH: %v != nil", err)
	}
	if c.Server != "" {
		t.Errorf("Server = %q, want empty", c.Server)
	}
	if got := c.CommandLine(); got[0] != "xinit" {
		t.Errorf("CommandLine() = %q, want an xinit hand-off regardless", got)
	}
}

func TestNewCmdExtraArgs(t *testing.T) {
	noConfig(t)
	d := t.TempDir()
	stub := filepath.Join(d, "Xephyr")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", d)

	c, err := newCmd([]string{"-retro", "-fullscreen"})
	if err != nil {
		t.Fatalf("newCmd: %v != nil", err)
	}
	argv := c.ServerCommandLine()
	if n := len(argv); n < 2 || argv[n-2] != "-retro" || argv[n-1] != "-fullscreen" {
		t.Errorf("ServerCommandLine() = %q, want extra args at the end", argv)
	}
}
