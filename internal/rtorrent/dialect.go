// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package rtorrent

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Dialect selects the command names and argument layout a client version understands.
type Dialect struct {
	Name      string
	DownTotal string
	UpTotal   string
	Multicall string
	// Target prepends the empty target argument required since 0.9.7.
	Target bool
}

var (
	ModernDialect = Dialect{
		Name:      "multicall2",
		DownTotal: "throttle.global_down.total",
		UpTotal:   "throttle.global_up.total",
		Multicall: "d.multicall2",
		Target:    true,
	}
	LegacyDialect = Dialect{
		Name:      "multicall",
		DownTotal: "throttle.global_down.total",
		UpTotal:   "throttle.global_up.total",
		Multicall: "d.multicall",
		Target:    false,
	}
)

var multicall2Constraint = mustConstraint(">= 0.9.7")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// DialectFor picks the dialect for a reported client version such as "0.9.8".
func DialectFor(version string) (Dialect, error) {
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return ModernDialect, errors.Wrapf(err, "parse client version %q", version)
	}
	if multicall2Constraint.Check(v) {
		return ModernDialect, nil
	}
	return LegacyDialect, nil
}

func (d Dialect) args(rest ...any) []any {
	if !d.Target {
		return rest
	}
	return append([]any{""}, rest...)
}

// Detect asks the client for its version and returns a copy of c using the matching
// dialect. On failure c is returned unchanged alongside the error.
func Detect(ctx context.Context, c *Client) (*Client, string, error) {
	version, err := c.ClientVersion(ctx)
	if err != nil {
		return c, "", err
	}

	dialect, err := DialectFor(version)
	if err != nil {
		return c, version, err
	}

	return c.WithDialect(dialect), version, nil
}
