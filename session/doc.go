// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session is a built-in session initializer, used when
// xinit is not installed.
//
// New(display, server, serverArgs, xinitrc) creates a Session.
// Sessions are similar to exec.Command, providing access to Stdin,
// Stdout and Stderr for the session client.
//
// Run brings the session up the way xinit does: it starts the
// nested server, waits for the display socket to accept
// connections, runs the xinitrc (or the default client if there is
// none) with DISPLAY pointing at the new server, and tears the
// server down once the client exits. Run returns when the client
// and server are both gone. It does not wait for the client's
// children.
package session
