// Package whatsapp talks to the Meta Graph API: outbound text sends and the
// inbound webhook payload shapes.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com"

// Config for the Graph API client.
type Config struct {
	AccessToken   string
	PhoneNumberID string
	GraphVersion  string
	// BaseURL overrides the Graph endpoint, for tests.
	BaseURL string
}

// Client sends text messages through the WhatsApp Cloud API.
type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.GraphVersion == "" {
		cfg.GraphVersion = "v22.0"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// SendText delivers one text message. Any status >= 400 means failure; the
// caller logs it for retry and audit, no retries happen here. Transport
// errors are reported as status 500 with the error text as body, so callers
// have a single failure signal.
func (c *Client) SendText(ctx context.Context, to, text string) (int, string) {
	url := fmt.Sprintf("%s/%s/%s/messages", c.cfg.BaseURL, c.cfg.GraphVersion, c.cfg.PhoneNumberID)
	payload, err := json.Marshal(textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: text},
	})
	if err != nil {
		return http.StatusInternalServerError, err.Error()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return http.StatusInternalServerError, err.Error()
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		log.Printf("[send_text] error: %v", err)
		return http.StatusInternalServerError, err.Error()
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(res.Body, 16<<10))
	log.Printf("[send_text] %d %s", res.StatusCode, string(body))
	return res.StatusCode, string(body)
}
