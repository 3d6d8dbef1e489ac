// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package swagger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/autobrr/rtorrent-exporter/internal/buildinfo"
)

func TestOpenAPISpec(t *testing.T) {
	require.NotEmpty(t, openapiYAML, "OpenAPI spec is empty")

	var spec map[string]interface{}
	require.NoError(t, yaml.Unmarshal(openapiYAML, &spec))

	assert.NotNil(t, spec["openapi"], "Missing 'openapi' field")
	assert.NotNil(t, spec["info"], "Missing 'info' field")

	paths, ok := spec["paths"].(map[string]interface{})
	require.True(t, ok, "'paths' is not a map")

	for _, path := range []string{"/metrics", "/health", "/api/openapi.json"} {
		assert.Contains(t, paths, path)
	}

	components, ok := spec["components"].(map[string]interface{})
	require.True(t, ok, "Missing or invalid 'components' section")

	schemas, ok := components["schemas"].(map[string]interface{})
	require.True(t, ok, "Missing or invalid 'schemas' section")
	assert.NotNil(t, schemas["HealthStatus"])

	securitySchemes, ok := components["securitySchemes"].(map[string]interface{})
	require.True(t, ok, "Missing or invalid 'securitySchemes' section")
	assert.NotNil(t, securitySchemes["MetricsBasicAuth"])
}

func TestHandler_ServeOpenAPISpec(t *testing.T) {
	h, err := NewHandler()
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))

	info, ok := doc["info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, buildinfo.Version, info["version"])
}
