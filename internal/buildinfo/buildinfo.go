// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version   = "0.0.0-dev"
	Commit    = ""
	Date      = ""
	UserAgent = ""
)

func init() {
	UserAgent = fmt.Sprintf("rtorrent-exporter/%s (%s %s)", Version, runtime.GOOS, runtime.GOARCH)
}

func String() string {
	return fmt.Sprintf("Version: %v\nCommit: %v\nBuild date: %s\n", Version, Commit, Date)
}
