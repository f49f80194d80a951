package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/teamboard_backend/models"
)

func whishServer(t *testing.T, handler func(path string, body map[string]interface{}) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chan", r.Header.Get("channel"))
		assert.Equal(t, "sec", r.Header.Get("secret"))
		var body map[string]interface{}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &body))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(r.URL.Path, body))
	}))
}

func newTestWhish(url string) *WhishService {
	return NewWhishService(WhishConfig{BaseURL: url + "/", Channel: "chan", Secret: "sec", WebsiteURL: "https://shop.example"})
}

func TestWhishPostPayment(t *testing.T) {
	srv := whishServer(t, func(path string, body map[string]interface{}) interface{} {
		assert.Equal(t, "/payment/whish", path)
		assert.Equal(t, 799.68, body["amount"])
		return map[string]interface{}{"status": true, "data": map[string]interface{}{"collectUrl": "https://pay.example/c/1"}}
	})
	defer srv.Close()

	amount := 799.68
	ext := int64(42)
	got, err := newTestWhish(srv.URL).PostPayment(context.Background(), models.WhishRequest{Amount: &amount, Currency: "USD", ExternalID: &ext})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/c/1", got)
}

func TestWhishStatusAndErrors(t *testing.T) {
	srv := whishServer(t, func(path string, body map[string]interface{}) interface{} {
		if body["externalId"] == float64(7) {
			return map[string]interface{}{"status": true, "data": map[string]interface{}{"collectStatus": "success", "payerPhoneNumber": "+961"}}
		}
		return map[string]interface{}{"status": false, "code": "NOT_FOUND", "dialog": map[string]interface{}{"message": "unknown transaction"}}
	})
	defer srv.Close()
	w := newTestWhish(srv.URL)

	st, err := w.GetPaymentStatus(context.Background(), "USD", 7)
	require.NoError(t, err)
	assert.Equal(t, models.WhishStatusSuccess, st.Status)
	assert.Equal(t, "+961", st.PayerPhone)

	_, err = w.GetPaymentStatus(context.Background(), "USD", 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND - unknown transaction")
}

func TestWhishUnconfigured(t *testing.T) {
	w := NewWhishService(WhishConfig{BaseURL: "http://127.0.0.1:1/"})
	assert.False(t, w.Configured())
	_, err := w.GetBalance(context.Background())
	assert.Error(t, err)
}
