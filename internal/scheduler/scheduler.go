package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/GoalNews/internal/refresh"
	"github.com/robfig/cron/v3"
)

// Refresher 由 refresh.Trigger 实现
type Refresher interface {
	Run(ctx context.Context, trigger string) (refresh.Outcome, error)
}

type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher

	// 延迟执行首轮刷新，避免与首屏请求争抢资源；为 0 表示启动时不刷新
	StartupDelay time.Duration
}

func New(spec string, r Refresher) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		refresher:    r,
		StartupDelay: 15 * time.Second,
	}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.StartupDelay > 0 {
		time.AfterFunc(s.StartupDelay, func() {
			go s.runOnce()
		})
	}
}

// Stop 停止调度，等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Cron 暴露底层 cron，方便额外挂载任务
func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

// RunOnce 对外暴露的单次执行入口，方便手动触发刷新
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	log.Println("scheduler: start refresh job...")
	out, err := s.refresher.Run(context.Background(), "cron")
	if err != nil {
		log.Printf("scheduler: refresh failed: %v", err)
		return
	}
	log.Printf("scheduler: refresh done, run=%s count=%d", out.RunID, out.Count)
}
