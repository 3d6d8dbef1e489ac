// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rtorrenttest provides an in-memory rTorrent for tests.
package rtorrenttest

import (
	"context"
	"fmt"
	"sync"

	"github.com/autobrr/rtorrent-exporter/internal/rtorrent"
)

type Torrent struct {
	Active     bool
	Open       bool
	State      bool
	Complete   bool
	Incomplete bool
	LeftBytes  int64
}

// Source answers queries from its fields. FailMethod ("DownTotal", "UpTotal",
// "Multicall" or "*") selects which calls return Err.
type Source struct {
	mu         sync.Mutex
	Down       int64
	Up         int64
	Torrents   []Torrent
	Err        error
	FailMethod string

	calls map[string]int
}

func (s *Source) DownTotal(ctx context.Context) (int64, error) {
	if err := s.record("DownTotal"); err != nil {
		return 0, err
	}
	return s.Down, nil
}

func (s *Source) UpTotal(ctx context.Context) (int64, error) {
	if err := s.record("UpTotal"); err != nil {
		return 0, err
	}
	return s.Up, nil
}

func (s *Source) Multicall(ctx context.Context, view string, fields ...rtorrent.Field) ([]rtorrent.Row, error) {
	if err := s.record("Multicall"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]rtorrent.Row, 0, len(s.Torrents))
	for _, t := range s.Torrents {
		row := make(rtorrent.Row, 0, len(fields))
		for _, f := range fields {
			switch f {
			case rtorrent.FieldIsActive:
				row = append(row, flag(t.Active))
			case rtorrent.FieldIsOpen:
				row = append(row, flag(t.Open))
			case rtorrent.FieldState:
				row = append(row, flag(t.State))
			case rtorrent.FieldComplete:
				row = append(row, flag(t.Complete))
			case rtorrent.FieldIncomplete:
				row = append(row, flag(t.Incomplete))
			case rtorrent.FieldLeftBytes:
				row = append(row, t.LeftBytes)
			default:
				return nil, &rtorrent.QueryError{Method: "d.multicall2", Err: fmt.Errorf("unknown field %q", f)}
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Calls returns how often method was invoked.
func (s *Source) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *Source) record(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[method]++

	if s.Err != nil && (s.FailMethod == "*" || s.FailMethod == method) {
		return &rtorrent.QueryError{Method: method, Err: s.Err}
	}
	return nil
}

func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
