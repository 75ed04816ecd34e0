// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/nerdwm/xlaunch/xserver"
	"golang.org/x/sys/unix"
)

const (
	// defaultTimeout bounds the wait for the server socket. Nested
	// servers come up in well under a second on anything modern;
	// ten seconds means it is not coming up at all.
	defaultTimeout = 10 * time.Second

	// stopGrace is how long the server gets to exit on SIGTERM
	// before we insist.
	stopGrace = 3 * time.Second
)

var v = func(string, ...interface{}) {}

// SetVerbose sets the package debug print function.
func SetVerbose(f func(string, ...interface{})) {
	v = f
}

// Session is one nested X session run without xinit.
type Session struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Timeout bounds the wait for the server to accept connections.
	Timeout time.Duration

	display    xserver.Display
	server     string
	serverArgs []string
	xinitrc    string
	// socket is the path polled for readiness, the display socket
	// unless a test overrides it.
	socket string
}

// New returns a Session with defaults set. serverArgs is the full
// server argument list after the binary itself, display included.
func New(display xserver.Display, server string, serverArgs []string, xinitrc string) *Session {
	return &Session{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Timeout:    defaultTimeout,
		display:    display,
		server:     server,
		serverArgs: serverArgs,
		xinitrc:    xinitrc,
		socket:     display.Socket(),
	}
}

// Run brings up the session and returns once the client has exited
// and the server is gone. Setup and teardown errors accumulate; the
// client's own exit error is included untranslated.
func (s *Session) Run() error {
	srv := exec.Command(s.server, s.serverArgs...)
	srv.Stdout, srv.Stderr = s.Stdout, s.Stderr
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.server, err)
	}
	v("session: server %s started, pid %d", s.server, srv.Process.Pid)

	if err := s.waitReady(); err != nil {
		srv.Process.Kill() //nolint
		srv.Wait()         //nolint
		return err
	}
	v("session: display %v ready", s.display)

	var errs error
	client := s.clientCommand()
	client.Env = append(os.Environ(), "DISPLAY="+s.display.String())
	client.Stdin, client.Stdout, client.Stderr = s.Stdin, s.Stdout, s.Stderr
	v("session: client is %q", client.Args)
	cerr := client.Run()
	v("session: client done: %v", cerr)
	if cerr != nil {
		errs = multierror.Append(errs, cerr)
	}

	if err := stop(srv); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

// waitReady polls the display socket until the server accepts a
// connection. Polling the socket is the portable readiness check;
// the SIGUSR1 handshake xinit uses needs a signal disposition we
// cannot hand a child.
func (s *Session) waitReady() error {
	deadline := time.Now().Add(s.Timeout)
	for time.Now().Before(deadline) {
		c, err := net.Dial("unix", s.socket)
		if err == nil {
			c.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("%s: server not accepting connections after %v", s.socket, s.Timeout)
}

// clientCommand picks the session client: the xinitrc run through
// /bin/sh if it exists, else the same default client xinit falls
// back to.
func (s *Session) clientCommand() *exec.Cmd {
	if s.xinitrc != "" {
		if _, err := os.Stat(s.xinitrc); err == nil {
			return exec.Command("/bin/sh", s.xinitrc)
		}
		v("session: no xinitrc at %q, using default client", s.xinitrc)
	}
	return exec.Command("xterm", "-geometry", "+1+1", "-n", "login")
}

// stop terminates the server the way xinit does: ask nicely, then
// insist. Dying on SIGTERM is the expected outcome, so the reaped
// status is not an error.
func stop(cmd *exec.Cmd) error {
	if err := cmd.Process.Signal(unix.SIGTERM); err != nil {
		return cmd.Process.Kill()
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
		return nil
	case <-time.After(stopGrace):
		cmd.Process.Kill() //nolint
		<-done
		return fmt.Errorf("server ignored SIGTERM, killed")
	}
}
