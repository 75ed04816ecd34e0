// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// xlaunch starts a nested X session for window manager development.
//
// Synopsis:
//
//	xlaunch [options] [extra server args]
//
// With no options it does what the old run script did: resolve
// Xephyr on PATH, resolve the xinitrc sitting next to this binary,
// and replace itself with
//
//	xinit <dir>/xinitrc -- <Xephyr> :100 -ac -screen 800x600 -host-cursor
//
// Nothing is validated on that path; a missing server or xinitrc is
// reported by xinit, as it always was.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/nerdwm/xlaunch/launcher"
	"github.com/nerdwm/xlaunch/session"
	"github.com/nerdwm/xlaunch/xserver"
	"github.com/u-root/u-root/pkg/ulog"
)

var (
	ac         = flag.Bool("access-control", false, "keep the server's host access list enabled")
	configPath = flag.String("config", launcher.DefaultConfigPath(), "config file; set empty to skip")
	debug      = flag.Bool("d", false, "enable debug prints")
	display    = flag.String("display", "", "display for the nested server, e.g. :100")
	dryRun     = flag.Bool("dry-run", false, "print the constructed command line and exit")
	dump       = flag.Bool("dump", false, "Dump copious output to a temp file at exit")
	geometry   = flag.String("geometry", "", "nested screen geometry, e.g. 800x600")
	hostCursor = flag.Bool("host-cursor", true, "pass the host cursor through to the nested server")
	noExec     = flag.Bool("no-exec", false, "fork and wait instead of replacing this process")
	noXinit    = flag.Bool("no-xinit", false, "use the built-in session initializer instead of xinit")
	probe      = flag.Bool("probe", false, "probe upward for a free display if the chosen one is busy")
	server     = flag.String("server", "", "nested X server; default is the first of "+strings.Join(xserver.DefaultServers, ", ")+" found on PATH")
	xinitrc    = flag.String("xinitrc", "", "session file; default is the xinitrc next to this binary")

	v          = func(string, ...interface{}) {}
	dumpWriter *os.File
)

func flags() []string {
	flag.Parse()
	if *dump && *debug {
		log.Fatalf("You can only set either dump OR debug")
	}
	if *debug {
		v = log.Printf
		launcher.V = log.Printf
		xserver.SetVerbose(log.Printf)
		session.SetVerbose(log.Printf)
	}
	if *dump {
		var err error
		dumpWriter, err = os.CreateTemp("", "xlaunch")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Logging to %s", dumpWriter.Name())
		ulog.Log = log.New(dumpWriter, "", log.Ltime|log.Lmicroseconds)
		v = ulog.Log.Printf
		launcher.V = v
		xserver.SetVerbose(v)
		session.SetVerbose(v)
	}
	return flag.Args()
}

// newCmd assembles the launcher from config, flags, and extra server
// args, in that order of increasing precedence.
func newCmd(extra []string) (*launcher.Cmd, error) {
	cfg := &launcher.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = launcher.LoadConfig(*configPath); err != nil {
			return nil, err
		}
	}

	candidates := cfg.Servers
	if *server != "" {
		candidates = []string{*server}
	}
	srv, err := xserver.Find(candidates...)
	if err != nil {
		// The old script did not check either: hand off anyway and
		// let the initializer report the failure.
		log.Printf("warning: %v", err)
		if *server != "" {
			srv = *server
		}
	}

	c := launcher.Command(srv)
	if err := cfg.Apply(c); err != nil {
		return nil, err
	}

	var opts []launcher.Set
	if *display != "" {
		opts = append(opts, launcher.WithDisplay(*display))
	}
	if *geometry != "" {
		opts = append(opts, launcher.WithGeometry(*geometry))
	}
	if *xinitrc != "" {
		opts = append(opts, launcher.WithXinitrc(*xinitrc))
	}
	opts = append(opts, launcher.WithAccessControl(*ac), launcher.WithHostCursor(*hostCursor))
	if err := c.SetOptions(opts...); err != nil {
		return nil, err
	}
	c.ExtraArgs = append(c.ExtraArgs, extra...)

	if c.Display.Busy() {
		if *probe {
			d, err := xserver.Free(c.Display)
			if err != nil {
				return nil, err
			}
			v("display %v busy, using %v", c.Display, d)
			c.Display = d
		} else if pid, name, lerr := xserver.LockOwner(c.Display); lerr == nil && name != "" {
			log.Printf("warning: display %v is busy (pid %d, %s)", c.Display, pid, name)
		} else {
			log.Printf("warning: display %v is busy", c.Display)
		}
	}
	return c, nil
}

// useBuiltin reports whether to run the built-in initializer: asked
// for outright, or the real one is nowhere to be found.
func useBuiltin(c *launcher.Cmd) bool {
	if *noXinit {
		return true
	}
	if _, err := exec.LookPath(c.Initializer); err != nil {
		v("%s not on PATH: %v; using built-in initializer", c.Initializer, err)
		return true
	}
	return false
}

func main() {
	extra := flags()
	c, err := newCmd(extra)
	if err != nil {
		log.Fatal(err)
	}

	if *dryRun {
		fmt.Println(strings.Join(c.CommandLine(), " "))
		return
	}

	if useBuiltin(c) {
		s := session.New(c.Display, c.Server, c.ServerCommandLine()[1:], c.Xinitrc)
		if err := s.Run(); err != nil {
			log.Fatalf("xlaunch: %v", err)
		}
		return
	}

	if *noExec {
		err := c.Run()
		if cerr := c.Close(); cerr != nil {
			v("close: %v", cerr)
		}
		if err != nil {
			e := 1
			var x *exec.ExitError
			if errors.As(err, &x) {
				e = x.ExitCode()
			}
			log.Printf("xlaunch: %v", err)
			os.Exit(e)
		}
		return
	}

	// Only returns on failure.
	log.Fatalf("xlaunch: %v", c.Exec())
}
