package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brojonat/burnwatch/service/helius"
	"github.com/brojonat/burnwatch/service/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWebhookCommand_Signed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, sig1Payload, string(body))
		if !signing.Verify(body, r.Header.Get(signing.DefaultHeader), "s3cret") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	path := writeTemp(t, "delivery.json", sig1Payload)
	out, err := runApp(t, "--server-url", server.URL, "webhook", "send", "--file", path, "--secret", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "signed: true")
}

func TestSendWebhookCommand_AuthToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !signing.VerifyToken(r.Header.Get(signing.AuthorizationHeader), "tok-123") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	path := writeTemp(t, "delivery.json", sig1Payload)
	out, err := runApp(t, "--server-url", server.URL, "webhook", "send", "--file", path, "--auth-token", "tok-123")
	require.NoError(t, err)
	assert.Contains(t, out, "signed: false, token: true")
}

func TestSendWebhookCommand_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid signature"})
	}))
	defer server.Close()

	path := writeTemp(t, "delivery.json", `[]`)
	_, err := runApp(t, "--server-url", server.URL, "webhook", "send", "--file", path, "--secret", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid signature")
}

func TestHeliusListCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/webhooks", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api-key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]helius.Webhook{{
			WebhookID:        "wh-1",
			WebhookURL:       "https://burns.example.com/webhook",
			WebhookType:      "enhanced",
			AccountAddresses: []string{"PROG"},
		}})
	}))
	defer server.Close()

	out, err := runApp(t, "--helius-api-url", server.URL, "--helius-api-key", "key", "helius", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "wh-1")
	assert.Contains(t, out, "https://burns.example.com/webhook")
}

func TestHeliusRegisterCommand_Creates(t *testing.T) {
	var created helius.Webhook
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`[]`))
		case http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			created.WebhookID = "wh-new"
			json.NewEncoder(w).Encode(created)
		}
	}))
	defer server.Close()

	out, err := runApp(t, "--helius-api-url", server.URL, "--helius-api-key", "key",
		"helius", "register", "--url", "https://burns.example.com/webhook", "--program", "PROG", "--auth-token", "tok-123")
	require.NoError(t, err)
	assert.Contains(t, out, "Webhook created")
	assert.Contains(t, out, "wh-new")
	assert.Equal(t, []string{"PROG"}, created.AccountAddresses)
	assert.Equal(t, "tok-123", created.AuthHeader)
	assert.Contains(t, out, "Auth:     true")
	assert.Equal(t, "enhanced", created.WebhookType)
}

func TestHeliusCommands_RequireAPIKey(t *testing.T) {
	_, err := runApp(t, "--helius-api-key", "", "helius", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "helius-api-key is required")
}
