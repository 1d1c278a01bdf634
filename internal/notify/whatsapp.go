// Package notify delivers WhatsApp messages about new transactions and
// budget alerts.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartsave/internal/core"
	"smartsave/internal/log"
)

var (
	ErrInvalidNumber = errors.New("invalid phone number format")
	ErrBadResponse   = errors.New("unreadable gateway response")
)

// Sender delivers a text message to a phone number and returns the
// provider's message ID.
type Sender interface {
	Send(ctx context.Context, to, text string) (string, error)
}

// Client sends messages through an HTTP WhatsApp gateway:
// POST {baseURL}/messages with {"to": ..., "text": ...}.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    newHTTPClientWithPooling(),
	}
}

type sendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

func (c *Client) Send(ctx context.Context, to, text string) (string, error) {
	if !core.ValidWhatsAppNumber(to) {
		return "", ErrInvalidNumber
	}
	body, err := json.Marshal(sendRequest{To: to, Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out sendResponse
	decodeErr := readErr
	if decodeErr == nil {
		decodeErr = json.Unmarshal(data, &out)
	}
	if resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return "", fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %w", ErrBadResponse, decodeErr)
	}
	return out.MessageID, nil
}

// LogSender only logs messages. It is used when no gateway is configured.
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) Send(ctx context.Context, to, text string) (string, error) {
	if !core.ValidWhatsAppNumber(to) {
		return "", ErrInvalidNumber
	}
	id := "whatsapp_msg_" + uuid.NewString()
	logger := s.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger.WithComponent(log.ComponentNotify).InfoContext(ctx, "WhatsApp message (no gateway configured)",
		log.FieldMessageID, id,
		"to", maskNumber(to),
		"length", len(text))
	return id, nil
}

// New returns a gateway client when baseURL is set, otherwise a LogSender.
func New(baseURL, token string, logger *log.Logger) Sender {
	if strings.TrimSpace(baseURL) == "" {
		slog.Info("WhatsApp gateway not configured, messages will only be logged", log.FieldComponent, log.ComponentNotify)
		return LogSender{Logger: logger}
	}
	return NewClient(baseURL, token)
}

func maskNumber(n string) string {
	if len(n) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling,
// proper timeouts and keep-alive settings.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}
