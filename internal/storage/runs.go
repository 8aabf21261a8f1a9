package storage

import (
	"context"
	"time"
)

// RefreshRun 记录每一次刷新（采集脚本执行 + 发布）的结果
type RefreshRun struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Trigger    string     `gorm:"size:16;index" json:"trigger"` // http / cron
	Status     string     `gorm:"size:16;index" json:"status"`  // running / ok / failed
	Kind       string     `gorm:"size:32" json:"kind,omitempty"`
	Count      int        `json:"count"`
	Diagnostic string     `gorm:"size:600" json:"diagnostic,omitempty"`
	StartedAt  time.Time  `gorm:"index" json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// StartRun 写入一条 running 记录；未启用归档时静默跳过
func (s *Store) StartRun(ctx context.Context, id, trigger string, startedAt time.Time) error {
	if s.DB == nil {
		return nil
	}
	run := &RefreshRun{
		ID:        id,
		Trigger:   trigger,
		Status:    "running",
		StartedAt: startedAt,
	}
	return s.DB.WithContext(ctx).Create(run).Error
}

// FinishRun 回填结果；kind 为空表示成功
func (s *Store) FinishRun(ctx context.Context, id, kind string, count int, diagnostic string) error {
	if s.DB == nil {
		return nil
	}
	status := "ok"
	if kind != "" {
		status = "failed"
	}
	now := time.Now()
	return s.DB.WithContext(ctx).Model(&RefreshRun{}).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"kind":        kind,
		"count":       count,
		"diagnostic":  truncateRunesDB(toValidUTF8(diagnostic), 600),
		"finished_at": &now,
	}).Error
}

// ListRuns 最近的刷新记录，新的在前
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RefreshRun, error) {
	if s.DB == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var runs []RefreshRun
	err := s.DB.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
