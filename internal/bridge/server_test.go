package bridge

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trade-logger/internal/config"
)

func newTestServer(t *testing.T, queueSize int) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(config.BridgeConfig{ListenAddr: "127.0.0.1:0", QueueSize: queueSize}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postTrade(t *testing.T, url string, trade IncomingTrade) *http.Response {
	t.Helper()
	body, err := json.Marshal(trade)
	if err != nil {
		t.Fatalf("marshal trade: %v", err)
	}
	resp, err := http.Post(url+"/log_trade", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post trade: %v", err)
	}
	return resp
}

func validTrade() IncomingTrade {
	return IncomingTrade{
		ID:            "base-1",
		BaseID:        "base",
		Time:          time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
		Instrument:    "NQ 03-24",
		Action:        "Buy",
		Quantity:      1,
		Price:         15000.50,
		Account:       "Sim101",
		TotalQuantity: 2,
		ContractNum:   1,
	}
}

func TestLogTrade_Success(t *testing.T) {
	_, ts := newTestServer(t, 10)

	resp := postTrade(t, ts.URL, validTrade())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "success" {
		t.Errorf("response = %v", body)
	}
}

func TestLogTrade_RejectsInvalidJSON(t *testing.T) {
	_, ts := newTestServer(t, 10)

	resp, err := http.Post(ts.URL+"/log_trade", "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogTrade_RejectsMissingFields(t *testing.T) {
	_, ts := newTestServer(t, 10)

	trade := validTrade()
	trade.Instrument = ""
	trade.Action = "Hold"
	trade.Quantity = 0

	resp := postTrade(t, ts.URL, trade)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogTrade_QueueFull(t *testing.T) {
	_, ts := newTestServer(t, 1)

	first := postTrade(t, ts.URL, validTrade())
	first.Body.Close()
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first trade should be accepted, got %d", first.StatusCode)
	}

	second := postTrade(t, ts.URL, validTrade())
	defer second.Body.Close()
	if second.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when queue is full", second.StatusCode)
	}
}

func TestGetTrade_ReversesDirectionAndMapsSymbol(t *testing.T) {
	_, ts := newTestServer(t, 10)

	trade := validTrade()
	trade.Action = "Buy"
	trade.IsExit = true
	postTrade(t, ts.URL, trade).Body.Close()

	resp, err := http.Get(ts.URL + "/mt5/get_trade")
	if err != nil {
		t.Fatalf("get trade: %v", err)
	}
	defer resp.Body.Close()

	var hedge HedgeTrade
	if err := json.NewDecoder(resp.Body).Decode(&hedge); err != nil {
		t.Fatalf("decode hedge trade: %v", err)
	}
	if hedge.Type != "Sell" {
		t.Errorf("hedge type = %q, want Sell", hedge.Type)
	}
	if hedge.Symbol != "USTECH" {
		t.Errorf("symbol = %q, want USTECH", hedge.Symbol)
	}
	if hedge.Comment != "Hedge_Sim101" {
		t.Errorf("comment = %q", hedge.Comment)
	}
	if !hedge.IsClose {
		t.Errorf("is_close should follow is_exit")
	}
	if hedge.Volume != 1 || hedge.Price != 15000.50 {
		t.Errorf("unexpected hedge trade: %+v", hedge)
	}
}

func TestGetTrade_EmptyQueue(t *testing.T) {
	_, ts := newTestServer(t, 10)

	resp, err := http.Get(ts.URL + "/mt5/get_trade")
	if err != nil {
		t.Fatalf("get trade: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "no_trade" {
		t.Errorf("response = %v", body)
	}
}

func TestTradeResult_Accepted(t *testing.T) {
	_, ts := newTestServer(t, 10)

	resp, err := http.Post(ts.URL+"/mt5/trade_result", "application/json",
		bytes.NewReader([]byte(`{"status":"filled","ticket":12345}`)))
	if err != nil {
		t.Fatalf("post result: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, 10)

	postTrade(t, ts.URL, validTrade()).Body.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
	if body["queue_size"] != float64(1) {
		t.Errorf("queue_size = %v, want 1", body["queue_size"])
	}
}

func TestTransform_SellBecomesBuy(t *testing.T) {
	trade := validTrade()
	trade.Action = "Sell"

	hedge := transform(trade)
	if hedge.Type != "Buy" {
		t.Fatalf("hedge type = %q, want Buy", hedge.Type)
	}
}
