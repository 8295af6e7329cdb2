package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

func InitSafeExit() {
	SafeExitInst = NewSafeExit()
	go SafeExitInst.ListenSignal()
}

// SafeExit runs registered cleanups once, in registration order, on the
// first termination signal.
type SafeExit struct {
	funcs []func()
	mu    sync.Mutex
	once  sync.Once
	done  chan struct{}
}

func NewSafeExit() *SafeExit {
	return &SafeExit{done: make(chan struct{})}
}

func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Done is closed once every registered cleanup has returned.
func (s *SafeExit) Done() <-chan struct{} {
	return s.done
}

func (s *SafeExit) exit() {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for _, f := range s.funcs {
			f()
		}
		close(s.done)
	})
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sigs
	log.Infof("收到系统信号 %s, 正在停止服务, 请稍后", sig)
	s.exit()
}
