package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const DefaultEndpoint = "https://fcm.googleapis.com/fcm/send"

type Options struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
}

// Client delivers push notifications through the FCM HTTP API.
type Client struct {
	endpoint  string
	serverKey string
	http      *http.Client
}

func NewClient(opts Options) *Client {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:  endpoint,
		serverKey: opts.ServerKey,
		http:      &http.Client{Timeout: timeout},
	}
}

type message struct {
	To           string       `json:"to"`
	Notification notification `json:"notification"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type response struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (c *Client) Send(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(message{
		To:           token,
		Notification: notification{Title: title, Body: body},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push: unexpected status %d", resp.StatusCode)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("push: decode response: %w", err)
	}
	if result.Failure > 0 {
		reason := "unknown error"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return fmt.Errorf("push: %s", reason)
	}
	return nil
}
