// Package notify sends account emails through an HTTP webhook.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const approvalSubject = "Tu solicitud fue aprobada - Completa tu registro"

// ApprovalEmail tells an approved applicant where to set their password.
type ApprovalEmail struct {
	To              string
	Name            string
	NationalID      string
	RegistrationURL string
}

type message struct {
	Type         string            `json:"type"`
	To           string            `json:"to"`
	Subject      string            `json:"subject"`
	TemplateVars map[string]string `json:"template_vars"`
}

// Gateway posts JSON messages to a webhook. With no URL configured it only logs.
type Gateway struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

func NewGateway(webhookURL string, timeout time.Duration, logger *slog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		webhookURL: webhookURL,
		logger:     logger,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (g *Gateway) Enabled() bool {
	return g.webhookURL != ""
}

func (g *Gateway) SendApproval(ctx context.Context, email ApprovalEmail) error {
	return g.send(ctx, message{
		Type:    "approval",
		To:      email.To,
		Subject: approvalSubject,
		TemplateVars: map[string]string{
			"name":             email.Name,
			"dni":              email.NationalID,
			"registration_url": email.RegistrationURL,
		},
	})
}

func (g *Gateway) send(ctx context.Context, msg message) error {
	if !g.Enabled() {
		g.logger.InfoContext(ctx, "email webhook not configured, skipping send",
			"type", msg.Type,
			"to", msg.To,
		)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s email: %w", msg.Type, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s email request: %w", msg.Type, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s email: %w", msg.Type, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send %s email: webhook returned %s", msg.Type, resp.Status)
	}
	return nil
}

// RegistrationURL appends the token to base as a query parameter.
func RegistrationURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse registration base url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
