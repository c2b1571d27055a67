package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"trade-logger/internal/config"
	"trade-logger/internal/event"
)

// IncomingTrade 是记录端 POST 过来的交易记录，兼容拆分与整笔两种变体。
type IncomingTrade struct {
	ID            string    `json:"id"`
	BaseID        string    `json:"base_id"`
	Time          time.Time `json:"time"`
	Instrument    string    `json:"instrument"`
	Action        string    `json:"action"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price"`
	Account       string    `json:"account"`
	IsExit        bool      `json:"is_exit"`
	TotalQuantity int       `json:"total_quantity"`
	ContractNum   int       `json:"contract_num"`
}

// Validate 校验必填字段，聚合全部问题一次性返回。
func (t IncomingTrade) Validate() error {
	var err error

	if t.Time.IsZero() {
		err = multierr.Append(err, errors.New("time 不能为空"))
	}
	if t.Instrument == "" {
		err = multierr.Append(err, errors.New("instrument 不能为空"))
	}
	if !event.Action(t.Action).Valid() {
		err = multierr.Append(err, fmt.Errorf("action 必须为 Buy 或 Sell，收到 %q", t.Action))
	}
	if t.Quantity <= 0 {
		err = multierr.Append(err, fmt.Errorf("quantity 必须大于0，收到 %v", t.Quantity))
	}

	return err
}

// HedgeTrade 是转换后供下游对冲端拉取的形态：方向反转、符号已映射。
type HedgeTrade struct {
	Time    time.Time `json:"time"`
	Symbol  string    `json:"symbol"`
	Type    string    `json:"type"`
	Volume  float64   `json:"volume"`
	Price   float64   `json:"price"`
	Comment string    `json:"comment"`
	IsClose bool      `json:"is_close"`
}

// Server 实现采集端：接收交易记录、排队、供下游逐条拉取。
// 队列有界，写满时返回 503，由记录端的日志体现丢失。
type Server struct {
	addr   string
	queue  chan HedgeTrade
	logger *zap.Logger
}

// NewServer 创建采集端服务。
func NewServer(cfg config.BridgeConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 100
	}
	return &Server{
		addr:   cfg.ListenAddr,
		queue:  make(chan HedgeTrade, size),
		logger: logger,
	}
}

// Handler 返回完整路由，便于测试直接挂到 httptest。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/log_trade", s.handleLogTrade)
	mux.HandleFunc("/mt5/get_trade", s.handleGetTrade)
	mux.HandleFunc("/mt5/trade_result", s.handleTradeResult)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run 启动 HTTP 服务并阻塞到 ctx 取消。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("关闭采集服务失败", zap.Error(err))
		}
	}()

	s.logger.Info("采集服务已启动", zap.String("addr", s.addr))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("bridge: 采集服务异常退出: %w", err)
	}
	return nil
}

func (s *Server) handleLogTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var trade IncomingTrade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("无法解析请求体: %v", err))
		return
	}

	if err := trade.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hedge := transform(trade)

	select {
	case s.queue <- hedge:
		s.logger.Info("交易已入队",
			zap.String("id", trade.ID),
			zap.String("symbol", hedge.Symbol),
			zap.String("type", hedge.Type),
			zap.Float64("volume", hedge.Volume),
			zap.Bool("is_close", hedge.IsClose),
		)
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "trade logged"})
	default:
		s.logger.Warn("队列已满，丢弃交易", zap.String("id", trade.ID))
		s.writeError(w, http.StatusServiceUnavailable, "queue full")
	}
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	select {
	case trade := <-s.queue:
		s.logger.Info("交易已出队", zap.String("symbol", trade.Symbol), zap.String("type", trade.Type))
		s.writeJSON(w, http.StatusOK, trade)
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "no_trade"})
	}
}

func (s *Server) handleTradeResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var result map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("无法解析执行结果: %v", err))
		return
	}

	s.logger.Info("收到下游执行结果", zap.Any("result", result))
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"queue_size": len(s.queue),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("写入响应失败", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

// transform 把记录端的交易转换成下游对冲形态：方向反转，符号映射。
func transform(trade IncomingTrade) HedgeTrade {
	hedgeType := string(event.ActionBuy)
	if trade.Action == string(event.ActionBuy) {
		hedgeType = string(event.ActionSell)
	}

	return HedgeTrade{
		Time:    trade.Time,
		Symbol:  MapSymbol(trade.Instrument),
		Type:    hedgeType,
		Volume:  trade.Quantity,
		Price:   trade.Price,
		Comment: fmt.Sprintf("Hedge_%s", trade.Account),
		IsClose: trade.IsExit,
	}
}
