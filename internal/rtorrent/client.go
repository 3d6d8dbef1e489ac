// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rtorrent is a small XML-RPC client for the statistics rTorrent exposes.
package rtorrent

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kolo/xmlrpc"
	"github.com/pkg/errors"

	"github.com/autobrr/rtorrent-exporter/internal/buildinfo"
	"github.com/autobrr/rtorrent-exporter/pkg/redact"
)

// Client issues XML-RPC calls against one rTorrent endpoint. It holds no
// per-call state and is safe for concurrent use.
type Client struct {
	url        string
	httpClient *http.Client
	dialect    Dialect
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every remote call. Zero leaves calls unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Transport: c.httpClient.Transport,
			Timeout:   timeout,
		}
	}
}

// NewClient creates a client for an http(s) XML-RPC endpoint such as
// http://127.0.0.1:5000/RPC2. Credentials in the URL are sent as basic auth.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(redact.URLError(err), "invalid rtorrent url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported rtorrent url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("rtorrent url has no host")
	}

	c := &Client{
		url:        u.String(),
		httpClient: &http.Client{},
		dialect:    ModernDialect,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// WithDialect returns a copy of c that speaks d.
func (c *Client) WithDialect(d Dialect) *Client {
	clone := *c
	clone.dialect = d
	return &clone
}

func (c *Client) Dialect() Dialect {
	return c.dialect
}

// URL returns the endpoint with credentials redacted.
func (c *Client) URL() string {
	return redact.URLString(c.url)
}

// ClientVersion returns the version string reported by system.client_version.
func (c *Client) ClientVersion(ctx context.Context) (string, error) {
	const method = "system.client_version"
	v, err := c.call(ctx, method, nil)
	if err != nil {
		return "", err
	}
	version, ok := v.(string)
	if !ok {
		return "", &QueryError{Method: method, Err: errors.Errorf("unexpected reply type %T", v)}
	}
	return version, nil
}

// DownTotal returns the bytes downloaded since rTorrent started.
func (c *Client) DownTotal(ctx context.Context) (int64, error) {
	return c.scalar(ctx, c.dialect.DownTotal)
}

// UpTotal returns the bytes uploaded since rTorrent started.
func (c *Client) UpTotal(ctx context.Context) (int64, error) {
	return c.scalar(ctx, c.dialect.UpTotal)
}

func (c *Client) scalar(ctx context.Context, method string) (int64, error) {
	v, err := c.call(ctx, method, c.dialect.args())
	if err != nil {
		return 0, err
	}
	n, err := asInt64(v)
	if err != nil {
		return 0, &QueryError{Method: method, Err: err}
	}
	return n, nil
}

// Multicall fetches fields for every torrent in view in a single round trip.
// Every returned row has exactly len(fields) values.
func (c *Client) Multicall(ctx context.Context, view string, fields ...Field) ([]Row, error) {
	if view == "" {
		view = DefaultView
	}

	params := make([]any, 0, len(fields)+1)
	params = append(params, view)
	for _, f := range fields {
		params = append(params, string(f))
	}

	method := c.dialect.Multicall
	v, err := c.call(ctx, method, c.dialect.args(params...))
	if err != nil {
		return nil, err
	}

	if v == nil {
		// an empty <array> can decode to a nil interface
		return []Row{}, nil
	}

	reply, ok := v.([]any)
	if !ok {
		return nil, &QueryError{Method: method, Err: errors.Errorf("unexpected reply type %T", v)}
	}

	rows := make([]Row, 0, len(reply))
	for i, item := range reply {
		values, ok := item.([]any)
		if !ok || len(values) != len(fields) {
			return nil, &QueryError{
				Method: method,
				Err:    errors.Wrapf(ErrMalformedRow, "row %d has %d values, requested %d", i, len(values), len(fields)),
			}
		}
		rows = append(rows, Row(values))
	}

	return rows, nil
}

// call decodes the reply into its dynamic form: integers as int64, arrays as []any.
func (c *Client) call(ctx context.Context, method string, args []any) (any, error) {
	var reply any
	if err := c.roundTrip(ctx, method, args, &reply); err != nil {
		return nil, &QueryError{Method: method, Err: err}
	}
	return reply, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, args []any, reply *any) error {
	body, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(redact.URLError(err), "build request")
	}
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return redact.URLError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return errors.Wrapf(ErrUnexpectedStatus, "%s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	response := xmlrpc.Response(data)
	if err := response.Err(); err != nil {
		return err
	}
	if err := response.Unmarshal(reply); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}
