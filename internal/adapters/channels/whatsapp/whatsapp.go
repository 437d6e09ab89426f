package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.twilio.com/2010-04-01"
	addressPrefix  = "whatsapp:"
)

type Options struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string // sender number, with or without the whatsapp: prefix
	Timeout    time.Duration
}

// Client sends WhatsApp messages through the Twilio Messages API.
type Client struct {
	endpoint   string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimSuffix(baseURL, "/"), opts.AccountSID),
		accountSID: opts.AccountSID,
		authToken:  opts.AuthToken,
		from:       address(opts.From),
		http:       &http.Client{Timeout: timeout},
	}
}

func address(number string) string {
	if strings.HasPrefix(number, addressPrefix) {
		return number
	}
	return addressPrefix + number
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Send(ctx context.Context, to, text string) error {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", address(to))
	form.Set("Body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("whatsapp: unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("whatsapp: %s (code %d)", apiErr.Message, apiErr.Code)
}
