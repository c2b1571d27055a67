package export

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trade-logger/internal/event"
	"trade-logger/internal/journal"
	"trade-logger/internal/ledger"
	"trade-logger/internal/record"
	"trade-logger/internal/sink"
	"trade-logger/internal/token"
)

// Deliverer 抽象投递端，方便在测试中替换真实 HTTP 客户端。
type Deliverer interface {
	Send(ctx context.Context, payload []byte) sink.Outcome
}

// Journal 抽象投递结果的持久化，允许为空。
type Journal interface {
	RecordDelivery(ctx context.Context, rec journal.DeliveryRecord)
}

// Options 控制导出行为。
type Options struct {
	// Instrument 为当前监控的合约全名，其他合约的事件直接丢弃。
	Instrument string
	// Account 为空时不按账户过滤。
	Account string
	// Decompose 为 true 时按合约拆分导出，否则整笔导出并携带 is_exit。
	Decompose bool
	// Pacing 为拆分记录之间的固定间隔，只是顺序保持的手段，不是正确性保证。
	Pacing time.Duration
}

// Pipeline 把通过过滤的成交事件转换成交易记录并逐条投递。
// 每次调用相互独立，可与其他事件的处理并发；
// 唯一共享的可变状态是持仓台账，其变更由台账自身加锁保护。
type Pipeline struct {
	opts    Options
	ledger  *ledger.Ledger
	sink    Deliverer
	journal Journal
	logger  *zap.Logger
}

// New 创建导出管道。
func New(opts Options, led *ledger.Ledger, deliverer Deliverer, jrnl Journal, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		opts:    opts,
		ledger:  led,
		sink:    deliverer,
		journal: jrnl,
		logger:  logger,
	}
}

// OnExecutionEvent 是管道的对外入口，由事件通道在独立 goroutine 中调用。
// 投递失败只记录日志，绝不向调用方抛出。
func (p *Pipeline) OnExecutionEvent(ctx context.Context, ev event.Execution) {
	if ev.Instrument != p.opts.Instrument {
		p.logger.Debug("跳过其他合约的事件",
			zap.String("instrument", ev.Instrument),
			zap.String("monitored", p.opts.Instrument),
		)
		return
	}

	if p.opts.Account != "" && ev.Account != p.opts.Account {
		p.logger.Debug("跳过其他账户的事件",
			zap.String("account", ev.Account),
			zap.String("monitored", p.opts.Account),
		)
		return
	}

	if ev.OrderState != event.OrderStateFilled {
		p.logger.Debug("跳过未成交状态的订单",
			zap.String("order_state", string(ev.OrderState)),
			zap.String("order_id", ev.OrderID),
		)
		return
	}

	// 台账变更在任何网络 I/O 之前同步完成，关停时丢弃在途投递不会破坏台账。
	isExit := p.ledger.Classify(ev)
	baseID := token.New()

	p.logger.Info("处理成交事件",
		zap.String("base_id", baseID),
		zap.String("action", string(ev.Action)),
		zap.Int("quantity", ev.Quantity),
		zap.Float64("price", ev.Price),
		zap.Bool("is_exit", isExit),
	)

	if !p.opts.Decompose {
		payload := record.Serialize(singleFields(ev, isExit))
		outcome := p.sink.Send(ctx, []byte(payload))
		p.logOutcome(baseID, 1, 1, outcome)
		p.journalRecord(ctx, journal.DeliveryRecord{
			RecordID:      baseID,
			Instrument:    ev.Instrument,
			Account:       ev.Account,
			Action:        string(ev.Action),
			Quantity:      ev.Quantity,
			Price:         ev.Price,
			ContractNum:   1,
			TotalQuantity: ev.Quantity,
			IsExit:        isExit,
			Delivered:     outcome.Success,
			StatusCode:    outcome.StatusCode,
			Reason:        outcome.Reason,
			EventTime:     ev.Time,
		})
		return
	}

	records := decompose(ev, baseID)
	for i, rec := range records {
		payload := record.Serialize(rec.Fields())
		outcome := p.sink.Send(ctx, []byte(payload))
		p.logOutcome(rec.ID, rec.ContractNum, rec.TotalQuantity, outcome)
		p.journalRecord(ctx, journal.DeliveryRecord{
			RecordID:      rec.ID,
			BaseID:        rec.BaseID,
			Instrument:    rec.Instrument,
			Account:       rec.Account,
			Action:        string(rec.Action),
			Quantity:      rec.Quantity,
			Price:         rec.Price,
			ContractNum:   rec.ContractNum,
			TotalQuantity: rec.TotalQuantity,
			IsExit:        isExit,
			Delivered:     outcome.Success,
			StatusCode:    outcome.StatusCode,
			Reason:        outcome.Reason,
			EventTime:     rec.Time,
		})

		// 单条投递失败不中断整批，剩余合约继续尝试。
		if i == len(records)-1 || p.opts.Pacing <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			p.logger.Warn("导出被中断，放弃剩余记录",
				zap.String("base_id", baseID),
				zap.Int("sent", i+1),
				zap.Int("total", len(records)),
			)
			return
		case <-time.After(p.opts.Pacing):
		}
	}
}

func (p *Pipeline) logOutcome(id string, contract, total int, outcome sink.Outcome) {
	if outcome.Success {
		p.logger.Info("交易记录已投递",
			zap.String("id", id),
			zap.Int("contract_num", contract),
			zap.Int("total_quantity", total),
			zap.Int("status", outcome.StatusCode),
		)
		return
	}
	p.logger.Warn("交易记录投递失败",
		zap.String("id", id),
		zap.Int("contract_num", contract),
		zap.Int("total_quantity", total),
		zap.Int("status", outcome.StatusCode),
		zap.String("reason", outcome.Reason),
	)
}

func (p *Pipeline) journalRecord(ctx context.Context, rec journal.DeliveryRecord) {
	if p.journal == nil {
		return
	}
	p.journal.RecordDelivery(ctx, rec)
}
