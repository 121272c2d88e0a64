// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the client for the Fintra assistant backend.
//
// The backend is an opaque collaborator: this client speaks its JSON
// request/response contracts and never interprets payloads beyond the
// type/data tag the view uses to pick a rendering template.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retry attempts for transient errors.
	DefaultMaxRetries = 3

	// retryBaseDelay is the base delay for exponential backoff.
	retryBaseDelay = 500 * time.Millisecond

	// MaxResponseSize caps response bodies to prevent memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared HTTP client serves all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// Error variables for common backend errors.
var (
	// ErrValidation indicates malformed input rejected before any network
	// call (empty message, empty required field, unknown export format).
	ErrValidation = errors.New("validation failed")

	// ErrCollaborator indicates the backend call failed after retries.
	ErrCollaborator = errors.New("assistant backend unavailable")

	// ErrNotFound indicates the referenced resource is absent on the backend.
	ErrNotFound = errors.New("not found")
)

// ExportFormats lists the formats the history-export endpoint accepts.
var ExportFormats = map[string]bool{
	"txt":  true,
	"json": true,
	"html": true,
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Fintra backend. The zero value is not usable; create
// one with NewClient.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient creates a backend client. sessionID tags every outbound request
// so the backend can correlate the conversation.
func NewClient(baseURL, sessionID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionID:  sessionID,
		httpClient: sharedHTTPClient,
		maxRetries: DefaultMaxRetries,
		// Soft client-side cap; the backend does its own throttling.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
	}
}

// SessionID returns the identifier sent with outbound requests.
func (c *Client) SessionID() string {
	return c.sessionID
}

// WithTimeout gives the client its own HTTP client with the given timeout.
// The shared transport is kept so connection pooling still applies.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient = &http.Client{
			Transport: sharedHTTPClient.Transport,
			Timeout:   d,
		}
	}
	return c
}

// WithRetries overrides the attempt count for retryable failures.
func (c *Client) WithRetries(n int) *Client {
	if n > 0 {
		c.maxRetries = n
	}
	return c
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a user message and returns the assistant reply.
//
// There is deliberately no in-flight dedupe guard: two rapid sends can race
// and the later-arriving response is appended later, which may interleave
// out of send order. That matches the original client's behavior.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: empty message", ErrValidation)
	}

	body, err := json.Marshal(ChatRequest{Message: message, SessionID: c.sessionID})
	if err != nil {
		return nil, err
	}

	data, err := c.doJSON(ctx, http.MethodPost, "/api/chat", body)
	if err != nil {
		return nil, err
	}

	var resp ChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCollaborator, err)
	}
	return &resp, nil
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// UploadDocument sends a file to the document endpoint as multipart data.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: empty filename", ErrValidation)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.WriteField("session_id", c.sessionID); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/add_document", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCollaborator, err)
	}
	return &resp, nil
}

// =============================================================================
// HISTORY EXPORT
// =============================================================================

// ExportHistory downloads the server-rendered chat history in the given
// format (txt, json or html) as a raw byte stream.
func (c *Client) ExportHistory(ctx context.Context, format string) ([]byte, error) {
	if !ExportFormats[format] {
		return nil, fmt.Errorf("%w: unknown export format %q", ErrValidation, format)
	}

	q := url.Values{}
	q.Set("format", format)
	q.Set("session_id", c.sessionID)
	return c.doJSON(ctx, http.MethodGet, "/api/chat_history?"+q.Encode(), nil)
}

// =============================================================================
// PORTFOLIO / CALENDAR / ALERTS
// =============================================================================

// GetPortfolio fetches the portfolio holdings.
func (c *Client) GetPortfolio(ctx context.Context) (*Envelope, error) {
	return c.getEnvelope(ctx, "/api/portfolio")
}

// AddHolding adds a stock position to the portfolio.
func (c *Client) AddHolding(ctx context.Context, h Holding) (*Envelope, error) {
	if h.Symbol == "" || h.Quantity <= 0 {
		return nil, fmt.Errorf("%w: symbol and positive quantity required", ErrValidation)
	}
	return c.postEnvelope(ctx, "/api/portfolio/add", h)
}

// RemoveHolding removes a stock position from the portfolio.
func (c *Client) RemoveHolding(ctx context.Context, symbol string) (*Envelope, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", ErrValidation)
	}
	return c.postEnvelope(ctx, "/api/portfolio/remove", map[string]string{
		"symbol":     symbol,
		"session_id": c.sessionID,
	})
}

// PortfolioValue fetches the computed portfolio valuation.
func (c *Client) PortfolioValue(ctx context.Context) (*Envelope, error) {
	return c.getEnvelope(ctx, "/api/portfolio/calculate")
}

// GetCalendar fetches upcoming financial-calendar events.
func (c *Client) GetCalendar(ctx context.Context) (*Envelope, error) {
	return c.getEnvelope(ctx, "/api/calendar")
}

// AddCalendarEvent creates a calendar event.
func (c *Client) AddCalendarEvent(ctx context.Context, ev CalendarEvent) (*Envelope, error) {
	if ev.Title == "" || ev.Date == "" {
		return nil, fmt.Errorf("%w: title and date required", ErrValidation)
	}
	return c.postEnvelope(ctx, "/api/calendar", ev)
}

// GetAlerts fetches alerts, optionally filtered by status
// (active, triggered, cancelled; empty for all).
func (c *Client) GetAlerts(ctx context.Context, status string) (*Envelope, error) {
	q := url.Values{}
	q.Set("session_id", c.sessionID)
	if status != "" {
		q.Set("status", status)
	}
	return c.getEnvelope(ctx, "/api/alerts?"+q.Encode())
}

// CreateAlert registers a price alert.
func (c *Client) CreateAlert(ctx context.Context, a Alert) (*Envelope, error) {
	if a.Symbol == "" || a.TargetPrice <= 0 {
		return nil, fmt.Errorf("%w: symbol and positive target price required", ErrValidation)
	}
	return c.postEnvelope(ctx, "/api/alerts", a)
}

// CancelAlert cancels an alert by ID.
func (c *Client) CancelAlert(ctx context.Context, alertID string) (*Envelope, error) {
	if alertID == "" {
		return nil, fmt.Errorf("%w: alert id required", ErrValidation)
	}
	return c.postEnvelope(ctx, "/api/alerts/cancel", map[string]string{
		"alert_id":   alertID,
		"session_id": c.sessionID,
	})
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) getEnvelope(ctx context.Context, path string) (*Envelope, error) {
	if !strings.Contains(path, "session_id=") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "session_id=" + url.QueryEscape(c.sessionID)
	}

	data, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(data)
}

func (c *Client) postEnvelope(ctx context.Context, path string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	data, err := c.doJSON(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(data)
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrCollaborator, err)
	}
	return &env, nil
}

// doJSON issues a request with retry and returns the raw response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			log.Printf("api: retrying %s %s in %v (attempt %d/%d)", method, path, delay, attempt, c.maxRetries)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		data, retryable, err := c.attempt(req)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, lastErr
}

// send issues a prepared request (no retry; used for multipart uploads,
// which carry a consumed body).
func (c *Client) send(req *http.Request) ([]byte, error) {
	data, _, err := c.attempt(req)
	return data, err
}

// attempt executes one request. The second return reports whether a retry
// could help (transport errors and 5xx responses).
func (c *Client) attempt(req *http.Request) ([]byte, bool, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read response: %v", ErrCollaborator, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", ErrCollaborator, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrCollaborator, resp.StatusCode, firstLine(data))
	}

	return data, false, nil
}

func firstLine(data []byte) string {
	s := string(data)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
