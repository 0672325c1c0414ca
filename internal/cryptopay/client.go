package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	APIMainnet = "https://pay.crypt.bot/api"
	APITestnet = "https://testpay.crypt.bot/api"
)

// Client is a Crypto Pay API client. All money leaving the system goes
// through Transfer; the spend ID makes repeated submission of the same
// logical transfer safe on the rail side.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Crypto Pay client.
func NewClient(token string, testnet bool) *Client {
	baseURL := APIMainnet
	if testnet {
		baseURL = APITestnet
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Transfer is a completed transfer on the rail.
type Transfer struct {
	TransferID  int64  `json:"transfer_id"`
	SpendID     string `json:"spend_id"`
	UserID      int64  `json:"user_id"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at"`
}

// AppInfo describes the rail-side application.
type AppInfo struct {
	AppID                        int64  `json:"app_id"`
	Name                         string `json:"name"`
	PaymentProcessingBotUsername string `json:"payment_processing_bot_username"`
}

// Invoice is a top-up invoice for the application float.
type Invoice struct {
	InvoiceID     int64  `json:"invoice_id"`
	Status        string `json:"status"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	BotInvoiceURL string `json:"bot_invoice_url"`
}

type balanceItem struct {
	CurrencyCode string `json:"currency_code"`
	Available    string `json:"available"`
}

type exchangeRate struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Rate   string `json:"rate"`
}

// ExchangeRate is one source->target quote from the rail.
type ExchangeRate struct {
	Source string
	Target string
	Rate   float64
}

type apiEnvelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

// TransferSend submits a transfer. spendID is the idempotency key: the rail
// returns the original transfer for a repeated spendID instead of moving
// money twice.
func (c *Client) TransferSend(ctx context.Context, userID int64, asset string, amount float64, spendID string) (*Transfer, error) {
	body := map[string]interface{}{
		"user_id":  userID,
		"asset":    asset,
		"amount":   strconv.FormatFloat(amount, 'f', 6, 64),
		"spend_id": spendID,
	}

	var tr Transfer
	if err := c.call(ctx, "transfer", body, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// GetBalance returns available amounts per asset.
func (c *Client) GetBalance(ctx context.Context) (map[string]float64, error) {
	var items []balanceItem
	if err := c.call(ctx, "getBalance", nil, &items); err != nil {
		return nil, err
	}

	balances := make(map[string]float64, len(items))
	for _, it := range items {
		v, err := strconv.ParseFloat(it.Available, 64)
		if err != nil {
			continue
		}
		balances[it.CurrencyCode] = v
	}
	return balances, nil
}

// ExchangeRates returns the rail's current quotes.
func (c *Client) ExchangeRates(ctx context.Context) ([]ExchangeRate, error) {
	var raw []exchangeRate
	if err := c.call(ctx, "getExchangeRates", nil, &raw); err != nil {
		return nil, err
	}

	rates := make([]ExchangeRate, 0, len(raw))
	for _, r := range raw {
		v, err := strconv.ParseFloat(r.Rate, 64)
		if err != nil {
			continue
		}
		rates = append(rates, ExchangeRate{Source: r.Source, Target: r.Target, Rate: v})
	}
	return rates, nil
}

// GetMe returns application info, useful as a connectivity check.
func (c *Client) GetMe(ctx context.Context) (*AppInfo, error) {
	var info AppInfo
	if err := c.call(ctx, "getMe", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateInvoice creates a top-up invoice for the application balance.
func (c *Client) CreateInvoice(ctx context.Context, asset string, amount float64, description string) (*Invoice, error) {
	body := map[string]interface{}{
		"asset":       asset,
		"amount":      strconv.FormatFloat(amount, 'f', 6, 64),
		"description": description,
	}

	var inv Invoice
	if err := c.call(ctx, "createInvoice", body, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) call(ctx context.Context, method string, body map[string]interface{}, out interface{}) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, method)

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Crypto-Pay-API-Token", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if !env.OK {
		if env.Error != nil {
			return env.Error
		}
		return fmt.Errorf("%s: API error %s", method, resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}
