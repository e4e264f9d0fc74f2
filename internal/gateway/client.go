// Package gateway предоставляет клиент внешнего шлюза списаний с банковских карт.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/giftcard-system/internal/metrics"
)

// ErrDeclined возвращается, если шлюз отклонил списание. Локальных побочных
// эффектов отклонение не имеет.
var ErrDeclined = errors.New("charge declined")

// Client инкапсулирует HTTP-взаимодействие с платёжным шлюзом.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент для обращения к платёжному шлюзу по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type chargeRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	CustomerRef string `json:"customer_ref,omitempty"`
}

type chargeResponse struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Charge проводит списание указанной суммы и возвращает ссылку на успешное
// списание. Каждый вызов отправляет свой Idempotency-Key: повтор решает
// вызывающий, автоматических ретраев нет.
func (c *Client) Charge(ctx context.Context, amountCents int64, currency, customerRef string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("charge gateway client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(chargeRequest{
		Amount:      amountCents,
		Currency:    currency,
		CustomerRef: customerRef,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := base + "/api/charges"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.Charges.WithLabelValues("error").Inc()
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Charges.WithLabelValues("error").Inc()
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.Charges.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}

	if !result.Success {
		metrics.Charges.WithLabelValues("declined").Inc()
		return "", fmt.Errorf("%w: %s", ErrDeclined, result.Reason)
	}

	if result.Reference == "" {
		metrics.Charges.WithLabelValues("error").Inc()
		return "", fmt.Errorf("gateway returned success without charge reference")
	}

	metrics.Charges.WithLabelValues("ok").Inc()
	return result.Reference, nil
}
