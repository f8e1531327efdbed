package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Hook 停机处理函数
// Order数字越小越早执行
type Hook struct {
	Name  string
	Order int
	Func  func(ctx context.Context) error
}

// Manager 优雅停机管理器
// 收到SIGINT/SIGTERM/SIGQUIT后按Order依次执行注册的停机函数
type Manager struct {
	logger   *logrus.Logger
	timeout  time.Duration
	hooks    []Hook
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopping bool
}

// NewManager 创建优雅停机管理器
func NewManager(timeout time.Duration, logger *logrus.Logger) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Register 注册停机处理函数
func (m *Manager) Register(name string, order int, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = append(m.hooks, Hook{Name: name, Order: order, Func: fn})
	m.logger.Debugf("注册停机处理函数: %s (order: %d)", name, order)
}

// Start 启动信号监听
func (m *Manager) Start() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		select {
		case sig := <-sigChan:
			m.logger.Infof("收到停机信号: %v", sig)
			m.Shutdown()
		case <-m.done:
		}
	}()
}

// Context 返回停机时会被取消的上下文
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Wait 阻塞直到停机流程完成
func (m *Manager) Wait() {
	<-m.done
}

// Shutdown 触发停机流程，幂等
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return
	}
	m.stopping = true
	hooks := make([]Hook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	m.logger.Info("开始优雅停机流程...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), m.timeout)
	defer shutdownCancel()

	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Order < hooks[j].Order
	})

	for _, hook := range hooks {
		start := time.Now()
		if err := hook.Func(shutdownCtx); err != nil {
			m.logger.Errorf("停机处理 '%s' 失败 (耗时: %v): %v", hook.Name, time.Since(start), err)
		} else {
			m.logger.Infof("停机处理 '%s' 完成 (耗时: %v)", hook.Name, time.Since(start))
		}

		if shutdownCtx.Err() != nil {
			m.logger.Warn("停机超时，强制退出")
			break
		}
	}

	m.cancel()
	close(m.done)
	m.logger.Info("优雅停机流程完成")
}
