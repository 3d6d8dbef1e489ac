// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/rtorrent-exporter/internal/rtorrent"
	"github.com/autobrr/rtorrent-exporter/internal/rtorrent/rtorrenttest"
)

func valueOf(t *testing.T, p Provider, src StatSource) int64 {
	t.Helper()
	v, err := p.Value(context.Background(), src)
	require.NoError(t, err)
	return v
}

func TestProviders_Scenario(t *testing.T) {
	src := &rtorrenttest.Source{
		Down: 1_500_000,
		Up:   42,
		Torrents: []rtorrenttest.Torrent{
			{Active: true, Open: true, State: true, Complete: true},
			{Active: false, Open: true, State: true, Incomplete: true, LeftBytes: 100},
			{Active: false, Open: false, State: false, Incomplete: true, LeftBytes: 50},
		},
	}

	assert.Equal(t, int64(1_500_000), valueOf(t, DownloadedBytes(), src))
	assert.Equal(t, int64(42), valueOf(t, UploadedBytes(), src))
	assert.Equal(t, int64(1), valueOf(t, ActiveTorrents(""), src))
	assert.Equal(t, int64(1), valueOf(t, PausedTorrents(""), src))
	assert.Equal(t, int64(1), valueOf(t, StoppedTorrents(""), src))
	assert.Equal(t, int64(1), valueOf(t, CompleteTorrents(""), src))
	assert.Equal(t, int64(2), valueOf(t, IncompleteTorrents(""), src))
	assert.Equal(t, int64(150), valueOf(t, TotalLeftBytes(""), src))
}

func TestProviders_EmptyClient(t *testing.T) {
	src := &rtorrenttest.Source{}

	for _, p := range Build(rtorrent.DefaultView).Entries() {
		assert.Equal(t, int64(0), valueOf(t, p, src), p.Name)
	}
}

func TestProviders_CompletionFlagsAreIndependent(t *testing.T) {
	src := &rtorrenttest.Source{
		Torrents: []rtorrenttest.Torrent{
			{Complete: true, Incomplete: true},
			{Complete: true},
			{},
		},
	}

	assert.Equal(t, int64(2), valueOf(t, CompleteTorrents(""), src))
	assert.Equal(t, int64(1), valueOf(t, IncompleteTorrents(""), src))
}

func TestTotalLeftBytes_SignedSum(t *testing.T) {
	src := &rtorrenttest.Source{
		Torrents: []rtorrenttest.Torrent{
			{LeftBytes: 10},
			{LeftBytes: -30},
		},
	}

	assert.Equal(t, int64(-20), valueOf(t, TotalLeftBytes(""), src))
}

func TestStoppedTorrents_IgnoresOtherFlags(t *testing.T) {
	src := &rtorrenttest.Source{
		Torrents: []rtorrenttest.Torrent{
			{Active: true, Open: true, State: false},
			{Active: true, Open: false, State: false},
			{Active: true, Open: true, State: true},
		},
	}

	assert.Equal(t, int64(2), valueOf(t, StoppedTorrents(""), src))
	assert.Equal(t, int64(1), valueOf(t, ActiveTorrents(""), src))
}

func TestProviders_PropagateQueryErrors(t *testing.T) {
	src := &rtorrenttest.Source{
		FailMethod: "Multicall",
		Err:        errors.New("connection refused"),
		Torrents:   []rtorrenttest.Torrent{{State: true}},
	}

	_, err := PausedTorrents("").Value(context.Background(), src)
	require.Error(t, err)
	assert.True(t, rtorrent.IsQueryError(err))

	// scalar queries are unaffected
	assert.Equal(t, int64(0), valueOf(t, DownloadedBytes(), src))
}

type rowSource struct {
	rtorrenttest.Source
	rows []rtorrent.Row
}

func (s *rowSource) Multicall(context.Context, string, ...rtorrent.Field) ([]rtorrent.Row, error) {
	return s.rows, nil
}

func TestProviders_RejectUndecodableRows(t *testing.T) {
	src := &rowSource{rows: []rtorrent.Row{{"not a number"}}}

	_, err := TotalLeftBytes("").Value(context.Background(), src)
	assert.Error(t, err)

	_, err = CompleteTorrents("").Value(context.Background(), src)
	assert.Error(t, err)
}

func TestProviders_PassView(t *testing.T) {
	var gotView string
	src := &viewSource{view: &gotView}

	_, err := ActiveTorrents("seeding").Value(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "seeding", gotView)
}

type viewSource struct {
	rtorrenttest.Source
	view *string
}

func (s *viewSource) Multicall(_ context.Context, view string, _ ...rtorrent.Field) ([]rtorrent.Row, error) {
	*s.view = view
	return nil, nil
}
