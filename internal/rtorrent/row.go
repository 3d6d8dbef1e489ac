// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package rtorrent

import (
	"strconv"

	"github.com/pkg/errors"
)

// Field is a per-torrent command passed to a multicall.
type Field string

const (
	FieldIsActive   Field = "d.is_active="
	FieldIsOpen     Field = "d.is_open="
	FieldState      Field = "d.state="
	FieldComplete   Field = "d.complete="
	FieldIncomplete Field = "d.incomplete="
	FieldLeftBytes  Field = "d.left_bytes="
)

// DefaultView is the view holding every loaded torrent.
const DefaultView = "default"

// Row holds one torrent's multicall values, positioned like the requested fields.
// rTorrent reports flags as 0/1 integers.
type Row []any

// Bool reads position i as a flag.
func (r Row) Bool(i int) (bool, error) {
	v, err := r.at(i)
	if err != nil {
		return false, err
	}

	switch t := v.(type) {
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return false, errors.Wrapf(ErrMalformedRow, "field %d: %q is not a flag", i, t)
		}
		return n != 0, nil
	default:
		return false, errors.Wrapf(ErrMalformedRow, "field %d: unexpected type %T", i, v)
	}
}

// Int reads position i as a signed integer.
func (r Row) Int(i int) (int64, error) {
	v, err := r.at(i)
	if err != nil {
		return 0, err
	}

	n, err := asInt64(v)
	if err != nil {
		return 0, errors.Wrapf(err, "field %d", i)
	}
	return n, nil
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrMalformedRow, "%q is not an integer", t)
		}
		return n, nil
	default:
		return 0, errors.Wrapf(ErrMalformedRow, "unexpected type %T", v)
	}
}

func (r Row) at(i int) (any, error) {
	if i < 0 || i >= len(r) {
		return nil, errors.Wrapf(ErrMalformedRow, "field %d out of range (row has %d)", i, len(r))
	}
	return r[i], nil
}
