package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turfbook/turf-booking/internal/model"
)

// OrderRequest asks a gateway for a new order.
type OrderRequest struct {
	AmountCents uint32
	Currency    string
	Receipt     string
}

// Gateway creates payment orders with an external provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*model.PaymentOrder, error)
}

// RazorpayGateway creates orders through a Razorpay-compatible REST API
// authenticated with the key id and secret.
type RazorpayGateway struct {
	baseURL string
	keyID   string
	secret  string
	client  *http.Client
}

func NewRazorpayGateway(baseURL, keyID, secret string) *RazorpayGateway {
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &RazorpayGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		keyID:   keyID,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   uint32 `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*model.PaymentOrder, error) {
	payload, err := json.Marshal(map[string]any{
		"amount":   req.AmountCents,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.keyID, g.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out razorpayOrder
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("gateway order without id")
	}
	return &model.PaymentOrder{
		ID:          out.ID,
		AmountCents: out.Amount,
		Currency:    out.Currency,
		Receipt:     out.Receipt,
	}, nil
}

// LocalGateway synthesizes orders when no gateway credentials are
// configured.  Useful for development and tests.
type LocalGateway struct{}

func (LocalGateway) CreateOrder(_ context.Context, req OrderRequest) (*model.PaymentOrder, error) {
	return &model.PaymentOrder{
		ID:          "order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Synthetic:   true,
	}, nil
}
