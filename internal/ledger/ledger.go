package ledger

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"trade-logger/internal/event"
)

// Entry 表示一笔尚未对冲的开仓成交，仅由 Ledger 持有。
type Entry struct {
	OrderID    string
	Instrument string
	Action     event.Action
	Quantity   int
	Price      float64
	EnteredAt  time.Time
}

// Ledger 按合约维护本进程视角的未平仓成交序列。
// 宿主可能并发推送事件，全部变更都在同一把锁内完成。
type Ledger struct {
	mu      sync.Mutex
	entries map[string][]Entry
	logger  *zap.Logger
}

// New 创建空台账。
func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		entries: make(map[string][]Entry),
		logger:  logger,
	}
}

// Classify 判断事件是开仓还是平仓，并同步更新台账。
// 匹配规则：在该合约的序列中线性查找第一条方向相反且数量完全相等的记录，
// 命中即删除并返回 true；否则追加新记录并返回 false。
// 数量必须严格相等，2 手买入不会部分冲销 1 手空头，
// 不支持部分平仓或 FIFO/LIFO 逐笔核算。
// 该操作不会失败：序列为空或不存在都是合法状态。
func (l *Ledger) Classify(ev event.Execution) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.entries[ev.Instrument]
	opposite := ev.Action.Opposite()

	for i, entry := range seq {
		if entry.Action == opposite && entry.Quantity == ev.Quantity {
			l.entries[ev.Instrument] = append(seq[:i:i], seq[i+1:]...)
			l.logger.Debug("匹配到反向持仓，判定为平仓",
				zap.String("instrument", ev.Instrument),
				zap.String("action", string(ev.Action)),
				zap.Int("quantity", ev.Quantity),
				zap.String("matched_order_id", entry.OrderID),
			)
			return true
		}
	}

	l.entries[ev.Instrument] = append(seq, Entry{
		OrderID:    ev.OrderID,
		Instrument: ev.Instrument,
		Action:     ev.Action,
		Quantity:   ev.Quantity,
		Price:      ev.Price,
		EnteredAt:  ev.Time,
	})

	l.logger.Debug("未找到可对冲持仓，判定为开仓",
		zap.String("instrument", ev.Instrument),
		zap.String("action", string(ev.Action)),
		zap.Int("quantity", ev.Quantity),
	)

	return false
}

// Snapshot 返回当前未平仓记录的只读副本。
func (l *Ledger) Snapshot() map[string][]Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make(map[string][]Entry, len(l.entries))
	for instrument, seq := range l.entries {
		if len(seq) == 0 {
			continue
		}
		copied := make([]Entry, len(seq))
		copy(copied, seq)
		snapshot[instrument] = copied
	}
	return snapshot
}

// Reset 清空全部持仓记录，仅由外部生命周期显式触发。
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string][]Entry)
}

// Evict 删除早于 maxAge 的持仓记录，返回删除条数。
// 保留策略由配置显式决定，maxAge 为 0 时调用方不应触发本方法。
func (l *Ledger) Evict(maxAge time.Duration, now time.Time) int {
	if maxAge <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-maxAge)
	evicted := 0

	for instrument, seq := range l.entries {
		kept := seq[:0]
		for _, entry := range seq {
			if entry.EnteredAt.Before(cutoff) {
				evicted++
				l.logger.Info("清理过期持仓记录",
					zap.String("instrument", instrument),
					zap.String("order_id", entry.OrderID),
					zap.Time("entered_at", entry.EnteredAt),
				)
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(l.entries, instrument)
			continue
		}
		l.entries[instrument] = kept
	}

	return evicted
}
