package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/HSouheill/teamboard_backend/models"
)

// WhishConfig holds the Whish merchant credentials.
type WhishConfig struct {
	BaseURL    string
	Channel    string
	Secret     string
	WebsiteURL string
	Debug      bool
}

// WhishService handles interactions with the Whish API
type WhishService struct {
	cfg    WhishConfig
	client *http.Client
}

// NewWhishService creates a new Whish service instance
func NewWhishService(cfg WhishConfig) *WhishService {
	if cfg.Channel == "" || cfg.Secret == "" || cfg.WebsiteURL == "" {
		log.Warn().
			Bool("channel_set", cfg.Channel != "").
			Bool("secret_set", cfg.Secret != "").
			Bool("website_set", cfg.WebsiteURL != "").
			Msg("Whish credentials not fully configured, checkout disabled")
	} else {
		log.Info().Str("base_url", cfg.BaseURL).Str("channel", cfg.Channel).Msg("Whish service configured")
	}
	return &WhishService{cfg: cfg, client: &http.Client{Timeout: 30 * time.Second}}
}

// Configured reports whether all credentials are present.
func (s *WhishService) Configured() bool {
	return s.cfg.Channel != "" && s.cfg.Secret != "" && s.cfg.WebsiteURL != ""
}

// makeRequest performs an HTTP request to the Whish API
func (s *WhishService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*models.WhishResponse, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("missing Whish credentials")
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("channel", s.cfg.Channel)
	req.Header.Set("secret", s.cfg.Secret)
	req.Header.Set("websiteurl", s.cfg.WebsiteURL)

	if s.cfg.Debug {
		log.Debug().Str("method", method).Str("endpoint", endpoint).Msg("Whish request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if s.cfg.Debug {
		log.Debug().Int("status", resp.StatusCode).RawJSON("body", respBody).Msg("Whish response")
	}

	var whishResp models.WhishResponse
	if err := json.Unmarshal(respBody, &whishResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !whishResp.Status {
		return &whishResp, whishError(&whishResp)
	}
	return &whishResp, nil
}

func whishError(resp *models.WhishResponse) error {
	code := "unknown"
	if resp.Code != nil {
		code = fmt.Sprint(resp.Code)
	}
	if dialog, ok := resp.Dialog.(map[string]interface{}); ok {
		if msg, ok := dialog["message"].(string); ok {
			return fmt.Errorf("whish API error: %s - %s", code, msg)
		}
	}
	return fmt.Errorf("whish API error: %s", code)
}

// GetBalance retrieves the real balance of the account
func (s *WhishService) GetBalance(ctx context.Context) (float64, error) {
	resp, err := s.makeRequest(ctx, http.MethodGet, "payment/account/balance", nil)
	if err != nil {
		return 0, err
	}
	if details, ok := resp.Data["balanceDetails"].(map[string]interface{}); ok {
		if balance, ok := details["balance"].(float64); ok {
			return balance, nil
		}
	}
	return 0, fmt.Errorf("failed to parse balance from response")
}

// PostPayment creates a payment and returns the collect URL
func (s *WhishService) PostPayment(ctx context.Context, req models.WhishRequest) (string, error) {
	resp, err := s.makeRequest(ctx, http.MethodPost, "payment/whish", req)
	if err != nil {
		return "", err
	}
	if collectURL, ok := resp.Data["collectUrl"].(string); ok {
		return collectURL, nil
	}
	return "", fmt.Errorf("failed to parse collect URL from response")
}

// GetPaymentStatus returns the status of a payment transaction
func (s *WhishService) GetPaymentStatus(ctx context.Context, currency string, externalID int64) (models.WhishCollectStatus, error) {
	var out models.WhishCollectStatus
	resp, err := s.makeRequest(ctx, http.MethodPost, "payment/collect/status", models.WhishRequest{
		Currency:   currency,
		ExternalID: &externalID,
	})
	if err != nil {
		return out, err
	}
	out.Status, _ = resp.Data["collectStatus"].(string)
	out.PayerPhone, _ = resp.Data["payerPhoneNumber"].(string)
	return out, nil
}
