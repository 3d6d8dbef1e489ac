// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package swagger

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/rtorrent-exporter/internal/buildinfo"
)

//go:embed openapi.yaml
var openapiYAML []byte

type Handler struct {
	spec map[string]interface{}
}

func NewHandler() (*Handler, error) {
	var spec map[string]interface{}
	if err := yaml.Unmarshal(openapiYAML, &spec); err != nil {
		return nil, errors.Wrap(err, "parse openapi spec")
	}

	// report the running build instead of the placeholder
	if info, ok := spec["info"].(map[string]interface{}); ok {
		info["version"] = buildinfo.Version
	}

	return &Handler{
		spec: spec,
	}, nil
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/openapi.json", h.ServeOpenAPISpec)
}

func GetOpenAPISpec() ([]byte, error) {
	if len(openapiYAML) == 0 {
		return nil, errors.New("openapi spec is not embedded")
	}
	return openapiYAML, nil
}

func (h *Handler) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.spec); err != nil {
		log.Error().Err(err).Msg("Failed to encode OpenAPI spec")
	}
}
