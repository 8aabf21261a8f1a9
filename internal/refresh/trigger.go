package refresh

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
	"github.com/google/uuid"
)

// Kind 刷新失败的分类
type Kind string

const (
	KindUnauthorized    Kind = "Unauthorized"
	KindProducerFailure Kind = "ProducerFailure"
	KindOutputMissing   Kind = "OutputMissing"
	KindPublishFailure  Kind = "PublishFailure"
)

const (
	DefaultTimeout   = 10 * time.Minute
	maxDiagnosticLen = 500
)

// Error 携带失败分类与截断后的诊断信息
type Error struct {
	Kind       Kind
	Diagnostic string
	Err        error
}

func (e *Error) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("refresh: %s: %s", e.Kind, e.Diagnostic)
	}
	if e.Err != nil {
		return fmt.Sprintf("refresh: %s: %v", e.Kind, e.Err)
	}
	return "refresh: " + string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf 取出错误分类，非 *Error 返回空
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// Publisher 负责把新快照替换到 Feed Loader 读取的位置
type Publisher interface {
	PublishSnapshot(ctx context.Context, body []byte) error
}

// History 记录刷新历史（可选）
type History interface {
	StartRun(ctx context.Context, id, trigger string, startedAt time.Time) error
	FinishRun(ctx context.Context, id, kind string, count int, diagnostic string) error
}

// Archiver 归档已发布的新闻（可选，失败不影响发布）
type Archiver interface {
	ArchiveRecords(ctx context.Context, records []news.Record) error
}

// Outcome 一次成功刷新的结果
type Outcome struct {
	RunID string `json:"runId"`
	Count int    `json:"count"`
}

// Trigger 校验调用方、执行采集脚本并发布其输出。
// 同一时刻只允许一次刷新；HTTP 与定时任务共用同一个实例。
type Trigger struct {
	Secret  string
	Command []string
	Dir     string
	Output  string
	Timeout time.Duration

	Publisher Publisher
	History   History
	Archiver  Archiver

	mu      sync.Mutex
	running bool
}

// Authorize 配置了密钥时要求 header 严格等于 "Bearer <secret>"
func (t *Trigger) Authorize(header string) error {
	if t.Secret == "" {
		return nil
	}
	want := "Bearer " + t.Secret
	if subtle.ConstantTimeCompare([]byte(header), []byte(want)) != 1 {
		return &Error{Kind: KindUnauthorized}
	}
	return nil
}

// Run 执行一次刷新。trigger 标记调用来源（http / cron），仅用于记录。
// 任何失败都不会改动已发布的快照。
func (t *Trigger) Run(ctx context.Context, trigger string) (Outcome, error) {
	if !t.acquire() {
		return Outcome{}, &Error{Kind: KindProducerFailure, Diagnostic: "refresh already running"}
	}
	defer t.release()

	runID := uuid.NewString()
	started := time.Now()
	t.startRun(ctx, runID, trigger, started)
	log.Printf("refresh %s: start (%s)", runID, trigger)

	recs, err := t.run(ctx)
	if err != nil {
		log.Printf("refresh %s: failed after %s: %v", runID, time.Since(started).Round(time.Millisecond), err)
		var re *Error
		if errors.As(err, &re) {
			t.finishRun(ctx, runID, string(re.Kind), 0, re.Diagnostic)
		}
		return Outcome{RunID: runID}, err
	}

	t.finishRun(ctx, runID, "", len(recs), "")
	if t.Archiver != nil {
		if err := t.Archiver.ArchiveRecords(ctx, recs); err != nil {
			log.Printf("refresh %s: archive: %v", runID, err)
		}
	}
	log.Printf("refresh %s: published %d records in %s", runID, len(recs), time.Since(started).Round(time.Millisecond))
	return Outcome{RunID: runID, Count: len(recs)}, nil
}

func (t *Trigger) run(ctx context.Context) ([]news.Record, error) {
	if len(t.Command) == 0 {
		return nil, &Error{Kind: KindProducerFailure, Diagnostic: "producer command not configured"}
	}
	output := t.outputPath()

	// 记录执行前的输出文件修改时间，用于识别脚本“成功退出但没写文件”
	var before time.Time
	if fi, err := os.Stat(output); err == nil {
		before = fi.ModTime()
	}

	if err := t.execProducer(ctx); err != nil {
		return nil, err
	}

	fi, err := os.Stat(output)
	if err != nil {
		return nil, &Error{Kind: KindOutputMissing, Diagnostic: "output not found: " + output, Err: err}
	}
	if !before.IsZero() && !fi.ModTime().After(before) {
		return nil, &Error{Kind: KindOutputMissing, Diagnostic: "producer did not rewrite output: " + output}
	}

	body, err := os.ReadFile(output)
	if err != nil {
		return nil, &Error{Kind: KindOutputMissing, Diagnostic: "read output: " + err.Error(), Err: err}
	}
	recs, err := news.DecodeFeed(body)
	if err != nil {
		return nil, &Error{Kind: KindOutputMissing, Diagnostic: truncate(err.Error()), Err: err}
	}

	if err := t.Publisher.PublishSnapshot(ctx, body); err != nil {
		return nil, &Error{Kind: KindPublishFailure, Diagnostic: truncate(err.Error()), Err: err}
	}
	return recs, nil
}

func (t *Trigger) execProducer(ctx context.Context) error {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, t.Command[0], t.Command[1:]...)
	cmd.Dir = t.Dir
	cmd.Env = os.Environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 脚本可能派生子进程占住输出管道，超时后最多再等一小会儿
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return &Error{
			Kind:       KindProducerFailure,
			Diagnostic: fmt.Sprintf("producer timed out after %s", timeout),
			Err:        cctx.Err(),
		}
	}
	if err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return &Error{Kind: KindProducerFailure, Diagnostic: truncate(diag), Err: err}
	}
	return nil
}

func (t *Trigger) outputPath() string {
	if filepath.IsAbs(t.Output) || t.Dir == "" {
		return t.Output
	}
	return filepath.Join(t.Dir, t.Output)
}

func (t *Trigger) acquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	t.running = true
	return true
}

func (t *Trigger) release() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

func (t *Trigger) startRun(ctx context.Context, id, trigger string, started time.Time) {
	if t.History == nil {
		return
	}
	if err := t.History.StartRun(ctx, id, trigger, started); err != nil {
		log.Printf("refresh %s: record start: %v", id, err)
	}
}

func (t *Trigger) finishRun(ctx context.Context, id, kind string, count int, diag string) {
	if t.History == nil {
		return
	}
	if err := t.History.FinishRun(ctx, id, kind, count, diag); err != nil {
		log.Printf("refresh %s: record finish: %v", id, err)
	}
}

// truncate 诊断信息只保留前 500 字节，并保证是合法 UTF-8
func truncate(s string) string {
	if len(s) <= maxDiagnosticLen {
		return s
	}
	return strings.ToValidUTF8(s[:maxDiagnosticLen], "")
}

// ParseCommand 把 PRODUCER_CMD 按空白切分成 argv
func ParseCommand(s string) []string {
	return strings.Fields(s)
}
