// Package services provides external integrations for SMS, email, and quotas
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/config"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioClient sends SMS through the Twilio Messages API and implements
// businessflow.SMSSender
type TwilioClient struct {
	cfg        config.TwilioConfig
	httpClient *http.Client
	apiBase    string
}

func NewTwilioClient(cfg config.TwilioConfig) *TwilioClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = twilioAPIBase
	}
	return &TwilioClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    strings.TrimRight(apiBase, "/"),
	}
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// Send posts one outbound message. Semantic 4xx rejections come back as
// *businessflow.ProviderError so the dispatcher can treat them as
// terminal; rate limits, provider outages, and transport errors stay
// plain so the queue retries them with backoff.
func (c *TwilioClient) Send(ctx context.Context, msg businessflow.SMSMessage) (string, error) {
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("Body", msg.Body)
	switch {
	case msg.MessagingServiceSID != nil && *msg.MessagingServiceSID != "":
		form.Set("MessagingServiceSid", *msg.MessagingServiceSID)
	case msg.From != nil && *msg.From != "":
		form.Set("From", *msg.From)
	default:
		form.Set("MessagingServiceSid", c.cfg.MessagingServiceSID)
	}
	if c.cfg.StatusCallbackURL != "" {
		form.Set("StatusCallback", c.cfg.StatusCallbackURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiBase, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	var out twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := ""
		if out.Code != nil {
			code = strconv.Itoa(*out.Code)
		}
		message := out.Message
		if message == "" {
			message = fmt.Sprintf("http status %d", resp.StatusCode)
		}
		// 429 and 5xx are transient provider conditions, not verdicts on
		// the message itself
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", fmt.Errorf("twilio unavailable (status %d, code %s): %s", resp.StatusCode, code, message)
		}
		return "", &businessflow.ProviderError{
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    message,
		}
	}

	if out.SID == "" {
		return "", fmt.Errorf("twilio returned empty message sid")
	}
	return out.SID, nil
}
