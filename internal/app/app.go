package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trade-logger/internal/config"
	"trade-logger/internal/export"
	"trade-logger/internal/feed"
	"trade-logger/internal/journal"
	"trade-logger/internal/ledger"
	"trade-logger/internal/sink"
	"trade-logger/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 装配事件通道、台账与导出管道，阻塞运行到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("交易记录系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("instrument", a.cfg.Feed.Instrument),
		zap.String("collector", a.cfg.Collector.URL),
		zap.Bool("decompose", a.cfg.Collector.Decompose),
	)

	journalSvc, err := journal.NewService(a.store, a.logger)
	if err != nil {
		return err
	}

	led := ledger.New(a.logger)
	deliverer := sink.New(a.cfg.Collector, a.logger)

	pipeline := export.New(export.Options{
		Instrument: a.cfg.Feed.Instrument,
		Account:    a.cfg.Feed.Account,
		Decompose:  a.cfg.Collector.Decompose,
		Pacing:     a.cfg.Collector.Pacing,
	}, led, deliverer, journalSvc, a.logger)

	bus := feed.NewBus(a.logger)
	sub := bus.Subscribe(pipeline.OnExecutionEvent)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return runMonitorServer(groupCtx, journalSvc, led, a.cfg.Monitor.Port, a.logger)
	})

	if a.cfg.Feed.ReplayPath != "" {
		replay := feed.NewReplay(a.cfg.Feed, bus, a.logger)
		group.Go(func() error {
			err := replay.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if a.cfg.Ledger.MaxEntryAge > 0 {
		group.Go(func() error {
			return a.runJanitor(groupCtx, led)
		})
	}

	err = group.Wait()

	// 退订是幂等的，重复关停不会出错。
	sub.Cancel()
	bus.Drain()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info("系统收到退出信号，已停止")
	return nil
}

// runJanitor 周期清理超过保留期的持仓记录。
func (a *App) runJanitor(ctx context.Context, led *ledger.Ledger) error {
	interval := a.cfg.Ledger.EvictionInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := led.Evict(a.cfg.Ledger.MaxEntryAge, time.Now().UTC()); n > 0 {
				a.logger.Info("持仓台账清理完成", zap.Int("evicted", n))
			}
		}
	}
}
