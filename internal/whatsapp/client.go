// Package whatsapp is a small client for an Evolution API instance: it sends
// text messages, reports the connection state and parses inbound webhooks.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const contentTypeJSON = "application/json"

// ErrStatus is wrapped by errors caused by an unexpected HTTP status.
var ErrStatus = errors.New("unexpected status code")

// Options configures a Client.
type Options struct {
	BaseURL  string
	APIKey   string
	Instance string
	// RatePerSecond limits outbound calls; zero or less disables limiting.
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to one Evolution API instance.
type Client struct {
	baseURL  string
	apiKey   string
	instance string
	http     *http.Client
	limiter  *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		instance: opts.Instance,
		http:     hc,
		limiter:  rate.NewLimiter(limit, burst),
	}
}

// Instance returns the configured instance name.
func (c *Client) Instance() string { return c.instance }

type textMessage struct {
	Text string `json:"text"`
}

type sendOptions struct {
	Delay       int    `json:"delay"`
	Presence    string `json:"presence"`
	LinkPreview bool   `json:"linkPreview"`
}

type sendTextPayload struct {
	Number      string      `json:"number"`
	TextMessage textMessage `json:"textMessage"`
	Options     sendOptions `json:"options"`
}

// MessageKey identifies a message on the WhatsApp network.
type MessageKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

// SendResult is the provider's answer to a send call.
type SendResult struct {
	Key    MessageKey `json:"key"`
	Status string     `json:"status"`
}

// SendText sends text to phone. The phone is normalised with FormatPhone.
func (c *Client) SendText(ctx context.Context, phone, text string) (*SendResult, error) {
	body := sendTextPayload{
		Number:      FormatPhone(phone),
		TextMessage: textMessage{Text: text},
		Options: sendOptions{
			Presence:    "composing",
			LinkPreview: true,
		},
	}
	var out SendResult
	if err := c.do(ctx, http.MethodPost, "/message/sendText/"+c.instance, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConnectionState is the state of the instance's WhatsApp session.
type ConnectionState struct {
	Instance string `json:"instance"`
	State    string `json:"state"`
}

// Connected reports whether the session is open.
func (s *ConnectionState) Connected() bool {
	return s.State == "open"
}

// ConnectionState queries the instance's session state.
func (c *Client) ConnectionState(ctx context.Context) (*ConnectionState, error) {
	var raw struct {
		Instance struct {
			InstanceName string `json:"instanceName"`
			State        string `json:"state"`
		} `json:"instance"`
	}
	if err := c.do(ctx, http.MethodGet, "/instance/connectionState/"+c.instance, nil, &raw); err != nil {
		return nil, err
	}
	name := raw.Instance.InstanceName
	if name == "" {
		name = c.instance
	}
	return &ConnectionState{Instance: name, State: raw.Instance.State}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp: rate limit: %w", err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("whatsapp: marshal payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("whatsapp: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("whatsapp: %w: %d", ErrStatus, resp.StatusCode)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	return nil
}

// FormatPhone keeps only the digits of phone and drops a JID suffix such as
// "@s.whatsapp.net".
func FormatPhone(phone string) string {
	if i := strings.IndexByte(phone, '@'); i >= 0 {
		phone = phone[:i]
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
