package shutdown

import (
	"context"
	"sync"

	"github.com/betbot/bithumbkit/pkg/logger"
)

// Handler 关闭处理函数
type Handler func(ctx context.Context) error

type namedHandler struct {
	name string
	fn   Handler
}

// Manager 优雅关闭管理器
type Manager struct {
	callbacks []namedHandler
	mu        sync.Mutex
	once      sync.Once
}

// NewManager 创建新的关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, namedHandler{name: name, fn: handler})
}

// Shutdown 并发执行所有关闭回调（阻塞调用），只执行一次。
// ctx 应该是一个带超时的 context，超时后不再等待未完成的回调。
// 返回失败的回调数量。
func (m *Manager) Shutdown(ctx context.Context) (failed int) {
	m.once.Do(func() {
		failed = m.run(ctx)
	})
	return failed
}

func (m *Manager) run(ctx context.Context) int {
	m.mu.Lock()
	callbacks := m.callbacks
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return 0
	}
	logger.Debugf("开始优雅关闭，共 %d 个回调", len(callbacks))

	var (
		wg     sync.WaitGroup
		failMu sync.Mutex
		failed int
	)
	wg.Add(len(callbacks))
	for _, cb := range callbacks {
		go func(h namedHandler) {
			defer wg.Done()
			if err := h.fn(ctx); err != nil {
				logger.Warnf("关闭回调 %s 失败: %v", h.name, err)
				failMu.Lock()
				failed++
				failMu.Unlock()
			}
		}(cb)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Debugf("所有关闭回调已完成")
	case <-ctx.Done():
		logger.Warnf("关闭超时: %v", ctx.Err())
		failMu.Lock()
		defer failMu.Unlock()
		return failed + 1
	}

	failMu.Lock()
	defer failMu.Unlock()
	return failed
}
