package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/installer"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
)

// TestList tests the list command against a stub daemon
func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/plugins", r.URL.Path)
		json.NewEncoder(w).Encode([]plugins.Metadata{
			{ID: "alpha", Name: "Alpha", Category: "Other", Badge: "native", Order: 100},
		})
	}))
	defer srv.Close()

	assert.NoError(t, runList([]string{"--server", srv.URL}))
}

// TestInstall_ReportsFailure tests that a failed result becomes an error
func TestInstall_ReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/plugins/ghost/install", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(installer.Result{
			Success: false,
			Message: "Could not resolve plugin ghost",
		})
	}))
	defer srv.Close()

	err := runInstall([]string{"--server", srv.URL, "ghost"})
	assert.Error(t, err)
}

// TestInstall_Success tests the happy path
func TestInstall_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(installer.Result{Success: true, Message: "Installed"})
	}))
	defer srv.Close()

	assert.NoError(t, runInstall([]string{"--server", srv.URL, "fresh"}))
}

// TestUpdate_Check tests the check-only path
func TestUpdate_Check(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(installer.Result{
			Success: true,
			Message: "Update available for alpha: v1.0.0 -> v2.0.0",
			Data:    map[string]any{"update_available": true},
		})
	}))
	defer srv.Close()

	assert.NoError(t, runUpdate([]string{"--server", srv.URL, "alpha"}))
}
