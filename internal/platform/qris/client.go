// Package qris talks to the QRIS payment processor. A purchase registers a
// charge here; the processor later reports the result through the signed
// webhook.
package qris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/pkg/config"
)

type Gateway interface {
	// CreatePayment registers a charge and returns a redeemable payment URL.
	// Single attempt; a failure here must abort the purchase flow.
	CreatePayment(ctx context.Context, amount int64, orderID string) (*Payment, error)
}

type Payment struct {
	QrisURL string `json:"qris_url"`
}

type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
	log       *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) Gateway {
	return &Client{
		baseURL:   cfg.Qris.BaseURL,
		apiKey:    cfg.Qris.APIKey,
		apiSecret: cfg.Qris.APISecret,
		http:      &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

type createPaymentRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (c *Client) CreatePayment(ctx context.Context, amount int64, orderID string) (*Payment, error) {
	body, err := json.Marshal(createPaymentRequest{Amount: amount, Description: orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/create-payment.php", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-API-Secret", c.apiSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var p Payment
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}
	if p.QrisURL == "" {
		return nil, fmt.Errorf("payment gateway returned no payment url")
	}
	c.log.Infow("payment_created", "order_id", orderID, "amount", amount)
	return &p, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
