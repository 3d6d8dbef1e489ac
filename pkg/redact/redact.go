// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package redact strips credentials from rTorrent endpoint URLs and errors before they reach logs.
package redact

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const placeholder = "REDACTED"

// sensitiveParams lists query parameter names that are redacted (case-insensitive).
// Reverse proxies in front of rTorrent commonly authenticate with one of these.
var sensitiveParams = []string{"apikey", "api_key", "token", "password", "auth"}

var sensitiveParamRegex = regexp.MustCompile(`(?i)\b(apikey|api_key|token|password|auth)=([^&\s]*)`)

var userinfoPasswordRegex = regexp.MustCompile(`(://[^/:@\s]+):([^@\s]+)@`)

// URLString redacts the userinfo password and sensitive query values of raw.
// Unparseable input falls back to String.
func URLString(raw string) string {
	if raw == "" {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return String(raw)
	}

	modified := false

	if parsed.User != nil {
		if _, hasPass := parsed.User.Password(); hasPass {
			parsed.User = url.UserPassword(parsed.User.Username(), placeholder)
			modified = true
		}
	}

	query := parsed.Query()
	for key := range query {
		for _, param := range sensitiveParams {
			if strings.EqualFold(key, param) {
				query[key] = []string{placeholder}
				modified = true
			}
		}
	}

	if !modified {
		return raw
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// URLError returns err with the URL of a wrapped *url.Error redacted.
// Any other error is returned unchanged.
func URLError(err error) error {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{
			Op:  urlErr.Op,
			URL: URLString(urlErr.URL),
			Err: urlErr.Err,
		}
	}

	return err
}

// String redacts credentials embedded anywhere in s, such as URLs quoted in error messages.
func String(s string) string {
	if s == "" {
		return s
	}
	result := sensitiveParamRegex.ReplaceAllString(s, "${1}="+placeholder)
	return userinfoPasswordRegex.ReplaceAllString(result, "${1}:"+placeholder+"@")
}

// BasicAuthUser turns "user:password" into "user:REDACTED".
func BasicAuthUser(cred string) string {
	idx := strings.Index(cred, ":")
	if idx < 0 {
		return cred
	}
	return cred[:idx+1] + placeholder
}
