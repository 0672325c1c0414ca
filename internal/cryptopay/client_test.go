package cryptopay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("test-token", false)
	c.baseURL = srv.URL
	return c
}

func TestTransferSendCarriesSpendID(t *testing.T) {
	var got map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transfer" {
			t.Fatalf("path = %s; want /transfer", r.URL.Path)
		}
		if r.Header.Get("Crypto-Pay-API-Token") != "test-token" {
			t.Fatal("missing API token header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"transfer_id": 555,
				"spend_id":    got["spend_id"],
				"status":      "completed",
			},
		})
	})

	tr, err := c.TransferSend(context.Background(), 101, "USDT", 1.5, "key-1")
	if err != nil {
		t.Fatalf("TransferSend: %v", err)
	}
	if tr.TransferID != 555 || tr.SpendID != "key-1" {
		t.Fatalf("transfer = %+v; want id 555, spend key-1", tr)
	}
	if got["spend_id"] != "key-1" {
		t.Fatalf("request spend_id = %v; want key-1", got["spend_id"])
	}
	if got["amount"] != "1.500000" {
		t.Fatalf("request amount = %v; want 1.500000", got["amount"])
	}
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":    false,
			"error": map[string]interface{}{"code": 400, "name": "INSUFFICIENT_FUNDS"},
		})
	})

	_, err := c.TransferSend(context.Background(), 101, "USDT", 1.5, "key-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v; want *APIError", err)
	}
	if apiErr.Code != 400 || apiErr.Name != "INSUFFICIENT_FUNDS" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if Classify(err) != FailInsufficientFunds {
		t.Fatalf("Classify = %s; want insufficient_funds", Classify(err))
	}
}

func TestGetBalanceParsesAmounts(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]string{
				{"currency_code": "USDT", "available": "123.45"},
				{"currency_code": "TON", "available": "garbage"},
			},
		})
	})

	balances, err := c.GetBalance(context.Background())
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balances["USDT"] != 123.45 {
		t.Fatalf("USDT = %v; want 123.45", balances["USDT"])
	}
	if _, ok := balances["TON"]; ok {
		t.Fatal("unparseable amount should be dropped")
	}
}

func TestExchangeRatesSkipsBadQuotes(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]string{
				{"source": "USDT", "target": "RUB", "rate": "97.5"},
				{"source": "BTC", "target": "RUB", "rate": "n/a"},
			},
		})
	})

	rates, err := c.ExchangeRates(context.Background())
	if err != nil {
		t.Fatalf("ExchangeRates: %v", err)
	}
	if len(rates) != 1 || rates[0].Rate != 97.5 {
		t.Fatalf("rates = %+v; want one USDT/RUB quote at 97.5", rates)
	}
}
