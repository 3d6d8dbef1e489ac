// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package rtorrent

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrMalformedRow     = errors.New("malformed multicall row")
)

// QueryError is returned for every failed remote call. Transport, HTTP and
// XML-RPC fault errors are not distinguished beyond the wrapped cause.
type QueryError struct {
	Method string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("rtorrent %s: %v", e.Method, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err came from a failed remote call.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
