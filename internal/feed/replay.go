package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-logger/internal/config"
	"trade-logger/internal/event"
)

// ReplaySource 从 JSON Lines 文件读取成交事件并发布到 Bus，
// 在没有宿主平台的环境下模拟事件流。
type ReplaySource struct {
	path   string
	delay  time.Duration
	bus    *Bus
	logger *zap.Logger
}

// NewReplay 创建回放源。
func NewReplay(cfg config.FeedConfig, bus *Bus, logger *zap.Logger) *ReplaySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplaySource{
		path:   cfg.ReplayPath,
		delay:  cfg.ReplayDelay,
		bus:    bus,
		logger: logger,
	}
}

type replayEvent struct {
	Time       time.Time `json:"time"`
	Instrument string    `json:"instrument"`
	Account    string    `json:"account"`
	Action     string    `json:"action"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	OrderState string    `json:"order_state"`
	OrderID    string    `json:"order_id"`
}

// Run 顺序发布文件中的全部事件，读完后返回。格式错误的行跳过并告警。
func (r *ReplaySource) Run(ctx context.Context) error {
	file, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("feed: 打开回放文件失败: %w", err)
	}
	defer file.Close()

	r.logger.Info("开始回放成交事件", zap.String("path", r.path))

	scanner := bufio.NewScanner(file)
	line := 0
	published := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var raw replayEvent
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			r.logger.Warn("跳过无法解析的回放行", zap.Int("line", line), zap.Error(err))
			continue
		}

		ev := event.Execution{
			Instrument: raw.Instrument,
			Account:    raw.Account,
			Action:     event.Action(raw.Action),
			Quantity:   raw.Quantity,
			Price:      raw.Price,
			Time:       raw.Time,
			OrderState: event.OrderState(raw.OrderState),
			OrderID:    raw.OrderID,
		}
		if ev.OrderState == "" {
			ev.OrderState = event.OrderStateFilled
		}

		r.bus.Publish(ctx, ev)
		published++

		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("feed: 读取回放文件失败: %w", err)
	}

	r.logger.Info("回放结束", zap.Int("events", published))
	return nil
}
