package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"trade-logger/internal/event"
)

// Handler 处理一次成交事件。每次分发都在独立 goroutine 中执行，
// 与宿主平台并发回调的行为保持一致。
type Handler func(ctx context.Context, ev event.Execution)

// Bus 是进程内的成交事件通道，抽象宿主平台的回调订阅机制。
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]Handler
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewBus 创建事件通道。
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[int]Handler),
		logger:   logger,
	}
}

// Subscribe 注册事件处理函数，返回可撤销的订阅。
func (b *Bus) Subscribe(h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[id] = h

	b.logger.Debug("订阅成交事件", zap.Int("subscription", id))

	return &Subscription{bus: b, id: id}
}

// Publish 将事件分发给当前全部订阅者，每个订阅者独立执行、互不阻塞。
func (b *Bus) Publish(ctx context.Context, ev event.Execution) {
	b.mu.Lock()
	targets := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		targets = append(targets, h)
	}
	b.mu.Unlock()

	for _, h := range targets {
		handler := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			handler(ctx, ev)
		}()
	}
}

// Drain 阻塞直到所有已分发的事件处理完成，供关停与测试使用。
func (b *Bus) Drain() {
	b.wg.Wait()
}

// Subscription 表示一次事件订阅。
type Subscription struct {
	bus  *Bus
	id   int
	once sync.Once
}

// Cancel 取消订阅，可重复调用。
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		delete(s.bus.handlers, s.id)
		s.bus.logger.Debug("取消成交事件订阅", zap.Int("subscription", s.id))
	})
}
