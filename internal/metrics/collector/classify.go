// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"github.com/autobrr/rtorrent-exporter/internal/rtorrent"
)

// TorrentState holds the three independent flags rTorrent uses instead of a
// single state enum: scheduled to run, files open, and target state reached.
type TorrentState struct {
	Active   bool
	Open     bool
	HasState bool
}

var stateFields = []rtorrent.Field{rtorrent.FieldIsActive, rtorrent.FieldIsOpen, rtorrent.FieldState}

// IsActive reports a started torrent with open files.
func (s TorrentState) IsActive() bool {
	return s.Active && s.Open && s.HasState
}

// IsPaused reports a started torrent whose transfer is suspended.
func (s TorrentState) IsPaused() bool {
	return !s.Active && s.Open && s.HasState
}

// IsStopped depends on HasState alone; Active and Open are ignored.
func (s TorrentState) IsStopped() bool {
	return !s.HasState
}

// stateFromRow decodes a row fetched with stateFields.
func stateFromRow(row rtorrent.Row) (TorrentState, error) {
	var (
		s   TorrentState
		err error
	)
	if s.Active, err = row.Bool(0); err != nil {
		return s, err
	}
	if s.Open, err = row.Bool(1); err != nil {
		return s, err
	}
	if s.HasState, err = row.Bool(2); err != nil {
		return s, err
	}
	return s, nil
}
