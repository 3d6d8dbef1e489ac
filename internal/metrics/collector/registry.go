// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package collector

import (
	"regexp"
	"slices"

	"github.com/pkg/errors"
)

var (
	ErrInvalidName   = errors.New("invalid metric name")
	ErrDuplicateName = errors.New("duplicate metric name")
)

var metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// Registry is an ordered set of providers keyed by metric name. It is not
// modified after construction and may be shared between goroutines.
type Registry struct {
	providers []Provider
	index     map[string]int
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make([]Provider, 0, len(providers)),
		index:     make(map[string]int, len(providers)),
	}

	for _, p := range providers {
		if !metricNameRE.MatchString(p.Name) {
			return nil, errors.Wrapf(ErrInvalidName, "%q", p.Name)
		}
		if _, ok := r.index[p.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateName, "%q", p.Name)
		}
		if p.Kind != KindCounter && p.Kind != KindGauge {
			return nil, errors.Errorf("metric %q: unsupported kind %d", p.Name, p.Kind)
		}
		if p.Value == nil {
			return nil, errors.Errorf("metric %q has no value function", p.Name)
		}

		r.index[p.Name] = len(r.providers)
		r.providers = append(r.providers, p)
	}

	return r, nil
}

// Entries returns the providers in output order.
func (r *Registry) Entries() []Provider {
	return slices.Clone(r.providers)
}

func (r *Registry) Len() int {
	return len(r.providers)
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	i, ok := r.index[name]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}
