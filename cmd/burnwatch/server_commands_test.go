package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCommand_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"program":   "PROG",
			"cacheSize": 7,
		})
	}))
	defer server.Close()

	out, err := runApp(t, "--server-url", server.URL, "server", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is healthy")
	assert.Contains(t, out, "Cache size: 7")
}

func TestHealthCommand_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := runApp(t, "--server-url", server.URL, "server", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestHealthCommand_MissingServerURL(t *testing.T) {
	_, err := runApp(t, "--server-url", "", "server", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server-url is required")
}

func TestInfoCommand_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"burnwatch","version":"1.2.3","status":"running","endpoints":{"health":"/health"}}`))
	}))
	defer server.Close()

	out, err := runApp(t, "--server-url", server.URL, "--json", "server", "info")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "1.2.3"`)
}

func TestVersionCommand(t *testing.T) {
	version = "1.0.0"
	commit = "abc123"
	date = "2025-10-10"

	out, err := runApp(t, "server", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.0.0")
	assert.Contains(t, out, "abc123")
}
