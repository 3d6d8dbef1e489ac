// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/rtorrent-exporter/pkg/redact"
)

// ParseBasicAuthUsers reads comma separated user:password pairs. Malformed
// entries are skipped with a warning that does not include the password.
func ParseBasicAuthUsers(config string) map[string]string {
	users := make(map[string]string)
	if strings.TrimSpace(config) == "" {
		return users
	}

	for _, cred := range strings.Split(config, ",") {
		cred = strings.TrimSpace(cred)
		if cred == "" {
			continue
		}
		user, pass, ok := strings.Cut(cred, ":")
		if !ok || user == "" || pass == "" {
			log.Warn().Msgf("Invalid metrics basic auth credentials: %s", redact.BasicAuthUser(cred))
			continue
		}
		users[user] = pass
	}

	return users
}
