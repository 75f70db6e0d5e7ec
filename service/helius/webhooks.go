package helius

import (
	"context"
	"errors"
	"fmt"
)

// Webhook is a registered provider webhook.
type Webhook struct {
	WebhookID        string   `json:"webhookID,omitempty"`
	Wallet           string   `json:"wallet,omitempty"`
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
	TxnStatus        string   `json:"txnStatus,omitempty"`
	AuthHeader       string   `json:"authHeader,omitempty"`
}

// NewEnhancedWebhook describes a webhook delivering every successful
// enhanced transaction touching programID to url.
func NewEnhancedWebhook(url, programID, authHeader string) Webhook {
	return Webhook{
		WebhookURL:       url,
		TransactionTypes: []string{"Any"},
		AccountAddresses: []string{programID},
		WebhookType:      "enhanced",
		TxnStatus:        "success",
		AuthHeader:       authHeader,
	}
}

// ListWebhooks returns every webhook registered for the API key.
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var out []Webhook
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v0/webhooks")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return out, nil
}

// CreateWebhook registers wh and returns it with its assigned ID.
func (c *Client) CreateWebhook(ctx context.Context, wh Webhook) (*Webhook, error) {
	if wh.WebhookURL == "" {
		return nil, errors.New("create webhook: webhook URL is required")
	}

	var out Webhook
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(wh).
		SetResult(&out).
		Post("/v0/webhooks")
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	if out.WebhookID == "" {
		return nil, errors.New("create webhook: response missing webhookID")
	}
	return &out, nil
}

// EnsureWebhook returns the existing webhook pointing at wh.WebhookURL, or
// registers wh when there is none. The bool reports whether one was created.
func (c *Client) EnsureWebhook(ctx context.Context, wh Webhook) (*Webhook, bool, error) {
	existing, err := c.ListWebhooks(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range existing {
		if existing[i].WebhookURL == wh.WebhookURL {
			c.logger.InfoContext(ctx, "reusing registered webhook",
				"webhook_id", existing[i].WebhookID,
				"url", wh.WebhookURL,
			)
			return &existing[i], false, nil
		}
	}

	created, err := c.CreateWebhook(ctx, wh)
	if err != nil {
		return nil, false, err
	}
	c.logger.InfoContext(ctx, "registered webhook",
		"webhook_id", created.WebhookID,
		"url", created.WebhookURL,
	)
	return created, true, nil
}
