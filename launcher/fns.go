// Copyright 2021-2024 the xlaunch Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package launcher

import (
	"os"
	"path/filepath"
)

// SelfDir returns the canonical directory containing the running
// executable. The result does not depend on the caller's working
// directory: the executable path is resolved and symlinks are
// followed, so the companion xinitrc is found even when the binary
// is run through a symlink.
func SelfDir() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", err
	}
	p, err = filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}
