// Package refresh 按 cron 表达式定时刷新全部 section。
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Target 是被定时刷新的对象（*section.Set 实现它）。
type Target interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler 在每个 tick 调用一次 Target.RefreshAll。
//
// 约束：上一次刷新未结束时跳过本次 tick，不会并发刷新。
type Scheduler struct {
	target Target
	log    zerolog.Logger

	mu      sync.Mutex
	running sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
}

func New(target Target, log zerolog.Logger) *Scheduler {
	return &Scheduler{target: target, log: log.With().Str("component", "refresh").Logger()}
}

// Start 按标准 5 段 cron 表达式启动调度。表达式为空时返回错误。
func (s *Scheduler) Start(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return errors.New("refresh: cron 表达式不能为空")
	}
	if s.target == nil {
		return errors.New("refresh: target 不能为空")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return errors.New("refresh: 已经启动")
	}

	ctx, cancel := context.WithCancel(context.Background())
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser))
	if _, err := c.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("refresh: cron 表达式无效 %q：%w", spec, err)
	}
	s.cron = c
	s.cancel = cancel
	c.Start()
	s.log.Info().Str("spec", spec).Msg("定时刷新已启动")
	return nil
}

// RunOnce 执行一次刷新；上一次尚未结束时直接返回 false。
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.TryLock() {
		s.log.Warn().Msg("上一次刷新尚未结束，跳过本次")
		return false
	}
	defer s.running.Unlock()

	started := time.Now()
	if err := s.target.RefreshAll(ctx); err != nil {
		s.log.Error().Err(err).Msg("刷新失败")
		return true
	}
	s.log.Debug().Dur("dur", time.Since(started)).Msg("刷新完成")
	return true
}

// Stop 停止调度并等待进行中的刷新结束。可重复调用。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
		s.log.Info().Msg("定时刷新已停止")
	}
}
