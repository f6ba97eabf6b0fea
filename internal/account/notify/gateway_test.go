package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendApproval(t *testing.T) {
	var got message
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, time.Second, nil)
	err := g.SendApproval(context.Background(), ApprovalEmail{
		To:              "ana@example.com",
		Name:            "Ana Gómez",
		NationalID:      "12345678",
		RegistrationURL: "http://localhost/completar-registro?token=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "approval", got.Type)
	assert.Equal(t, "ana@example.com", got.To)
	assert.Equal(t, approvalSubject, got.Subject)
	assert.Equal(t, "12345678", got.TemplateVars["dni"])
	assert.Equal(t, "http://localhost/completar-registro?token=abc", got.TemplateVars["registration_url"])
}

func TestSendApprovalWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewGateway(srv.URL, time.Second, nil).SendApproval(context.Background(), ApprovalEmail{To: "ana@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDisabledGatewayLogsOnly(t *testing.T) {
	g := NewGateway("", 0, nil)
	assert.False(t, g.Enabled())
	assert.NoError(t, g.SendApproval(context.Background(), ApprovalEmail{To: "ana@example.com"}))
}

func TestRegistrationURL(t *testing.T) {
	u, err := RegistrationURL("http://localhost:3000/completar-registro", "a+b/c")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/completar-registro?token=a%2Bb%2Fc", u)

	_, err = RegistrationURL("://bad", "x")
	assert.Error(t, err)
}
