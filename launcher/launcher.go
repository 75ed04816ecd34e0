// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package launcher starts a nested X session: a session initializer
// driving a nested X server, configured by a companion xinitrc.
//
// The zero-option path is exactly what the old run script did: find
// Xephyr on PATH, find the xinitrc next to the running executable,
// and hand off to
//
//	xinit <dir>/xinitrc -- <Xephyr> :100 -ac -screen 800x600 -host-cursor
package launcher

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/nerdwm/xlaunch/xserver"
	"golang.org/x/sys/unix"
)

const (
	// DefaultInitializer is the session initializer handed the
	// session command line.
	DefaultInitializer = "xinit"
	// DefaultXinitrc is the companion file name expected next to
	// the running executable.
	DefaultXinitrc = "xinitrc"
)

var (
	// DefaultDisplay is the display the run script always used.
	DefaultDisplay = xserver.Display(100)
	// DefaultGeometry is the run script's fixed screen size.
	DefaultGeometry = xserver.Geometry{Width: 800, Height: 600}
)

// V allows debug printing.
var V = func(string, ...interface{}) {}

// Cmd is a nested X session launcher.
// It implements as much of exec.Command as makes sense.
type Cmd struct {
	// Initializer is the program run to bring the session up,
	// xinit unless changed.
	Initializer string
	// Xinitrc is the session file handed to the initializer. It is
	// deliberately not checked for existence: the initializer has
	// its own fallback client and its own diagnostics.
	Xinitrc string
	// Server is the nested X server path or name. It may be empty;
	// an unresolvable server is the initializer's failure to
	// report, not ours.
	Server string
	// Display is the display the nested server will serve.
	Display xserver.Display
	// Geometry is the nested screen size.
	Geometry xserver.Geometry
	// AccessControl keeps the server's host access list enabled.
	// The run script always disabled it: the session hosts a window
	// manager under test, nothing shared.
	AccessControl bool
	// HostCursor makes the nested server reuse the host cursor
	// instead of rendering its own.
	HostCursor bool
	// ExtraArgs are appended to the server argument list.
	ExtraArgs []string
	Env       []string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer

	cmd     *exec.Cmd
	closers []func() error
}

// Command returns a Cmd with the defaults the run script used.
// server may be an absolute path, a bare name, or empty; extra args
// are appended to the server command line.
func Command(server string, extra ...string) *Cmd {
	c := &Cmd{
		Initializer: DefaultInitializer,
		Server:      server,
		Display:     DefaultDisplay,
		Geometry:    DefaultGeometry,
		HostCursor:  true,
		ExtraArgs:   extra,
		Env:         os.Environ(),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
	if dir, err := SelfDir(); err == nil {
		c.Xinitrc = filepath.Join(dir, DefaultXinitrc)
	} else {
		V("launcher: SelfDir: %v", err)
		c.Xinitrc = DefaultXinitrc
	}
	return c
}

// A Set is an option for SetOptions.
type Set func(*Cmd) error

// SetOptions applies opts to c, stopping at the first error.
func (c *Cmd) SetOptions(opts ...Set) error {
	for _, o := range opts {
		if err := o(c); err != nil {
			return err
		}
	}
	return nil
}

// WithDisplay sets the display, given as ":N".
func WithDisplay(s string) Set {
	return func(c *Cmd) error {
		d, err := xserver.ParseDisplay(s)
		if err != nil {
			return err
		}
		c.Display = d
		return nil
	}
}

// WithGeometry sets the nested screen geometry, given as "WxH".
func WithGeometry(s string) Set {
	return func(c *Cmd) error {
		g, err := xserver.ParseGeometry(s)
		if err != nil {
			return err
		}
		c.Geometry = g
		return nil
	}
}

// WithXinitrc sets the session file path.
func WithXinitrc(path string) Set {
	return func(c *Cmd) error {
		c.Xinitrc = path
		return nil
	}
}

// WithInitializer sets the session initializer.
func WithInitializer(name string) Set {
	return func(c *Cmd) error {
		c.Initializer = name
		return nil
	}
}

// WithAccessControl keeps or drops the server's host access list.
func WithAccessControl(on bool) Set {
	return func(c *Cmd) error {
		c.AccessControl = on
		return nil
	}
}

// WithHostCursor enables or disables host cursor passthrough.
func WithHostCursor(on bool) Set {
	return func(c *Cmd) error {
		c.HostCursor = on
		return nil
	}
}

// WithServerArgs replaces the extra server arguments.
func WithServerArgs(args ...string) Set {
	return func(c *Cmd) error {
		c.ExtraArgs = args
		return nil
	}
}

// ServerCommandLine is the nested server argument vector, in the
// order the initializer expects after its -- separator: path,
// display, -ac, -screen WxH, -host-cursor, extras.
func (c *Cmd) ServerCommandLine() []string {
	args := []string{c.Server, c.Display.String()}
	if !c.AccessControl {
		args = append(args, "-ac")
	}
	args = append(args, "-screen", c.Geometry.String())
	if c.HostCursor {
		args = append(args, "-host-cursor")
	}
	return append(args, c.ExtraArgs...)
}

// CommandLine is the full initializer argument vector, argv[0]
// included.
func (c *Cmd) CommandLine() []string {
	return append([]string{c.Initializer, c.Xinitrc, "--"}, c.ServerCommandLine()...)
}

// Start starts the initializer. Like the run script, nothing about
// the session is validated first; a missing xinitrc or server
// surfaces as the child's own diagnostic.
func (c *Cmd) Start() error {
	if c.cmd != nil {
		return errors.New("launcher: already started")
	}
	argv := c.CommandLine()
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return err
	}
	V("launcher: start %q", argv)
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = c.Env
	cmd.Stdin, cmd.Stdout, cmd.Stderr = c.Stdin, c.Stdout, c.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	c.cmd = cmd
	c.closers = append(c.closers, func() error {
		if cmd.ProcessState == nil {
			return cmd.Process.Kill()
		}
		return nil
	})
	return nil
}

// Wait waits for the initializer to finish. The error, if any, is
// the child's, untranslated.
func (c *Cmd) Wait() error {
	if c.cmd == nil {
		return errors.New("launcher: not started")
	}
	err := c.cmd.Wait()
	V("launcher: wait: %v", err)
	return err
}

// Run starts the session and waits for it to finish.
func (c *Cmd) Run() error {
	if err := c.Start(); err != nil {
		return err
	}
	return c.Wait()
}

// Close releases whatever Start set up.
func (c *Cmd) Close() error {
	var err error
	for _, f := range c.closers {
		if e := f(); e != nil {
			err = multierror.Append(err, e)
		}
	}
	c.closers = nil
	return err
}

// Exec replaces the current process with the initializer, the exact
// hand-off the run script performed. The exit status seen by our
// caller becomes the initializer's own. Exec only returns on
// failure.
func (c *Cmd) Exec() error {
	argv := c.CommandLine()
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return err
	}
	V("launcher: exec %q %q", path, argv)
	return unix.Exec(path, argv, c.Env)
}
