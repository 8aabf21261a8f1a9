package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
)

const (
	maxFeedBytes      = 8 << 20 // 8MB
	httpClientTimeout = 10 * time.Second
)

var (
	// ErrUnavailable 读取失败：网络错误、非 200 状态、文件不存在等
	ErrUnavailable = errors.New("feed unavailable")
	// ErrMalformed 读到了内容但不是新闻数组
	ErrMalformed = errors.New("malformed feed")
)

// Status 是一次加载的结果标记
type Status int

const (
	StatusLoaded Status = iota
	StatusUnavailable
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusUnavailable:
		return "FeedUnavailable"
	case StatusMalformed:
		return "MalformedFeed"
	default:
		return "unknown"
	}
}

// Result 加载结果；失败时 Records 为空切片而不是 nil，页面可直接渲染空状态
type Result struct {
	Status  Status
	Records []news.Record
	Err     error
}

func (r Result) OK() bool {
	return r.Status == StatusLoaded
}

// Source 抽象一个可读取快照内容的位置
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

// SourceFunc 便于把任意读取函数当作 Source
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Read(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

// HTTPSource 通过 GET 读取，非 200 视为失败
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Read(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: httpClientTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", s.URL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}

// FileSource 读取本地静态快照
type FileSource struct {
	Path string
}

func (s *FileSource) Read(ctx context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

// Loader 先读主数据源，失败后读一次备用数据源；不重试、不缓存上一次结果
type Loader struct {
	Primary  Source
	Fallback Source
}

func NewLoader(primary, fallback Source) *Loader {
	return &Loader{Primary: primary, Fallback: fallback}
}

func (l *Loader) Load(ctx context.Context) Result {
	recs, err := attempt(ctx, l.Primary)
	if err == nil {
		return Result{Status: StatusLoaded, Records: recs}
	}
	log.Printf("feed: primary failed: %v, trying fallback", err)

	recs, fbErr := attempt(ctx, l.Fallback)
	if fbErr == nil {
		return Result{Status: StatusLoaded, Records: recs}
	}
	log.Printf("feed: fallback failed: %v", fbErr)

	status := StatusUnavailable
	if errors.Is(fbErr, ErrMalformed) {
		status = StatusMalformed
	}
	return Result{
		Status:  status,
		Records: []news.Record{},
		Err:     fmt.Errorf("feed: primary: %v; fallback: %w", err, fbErr),
	}
}

func attempt(ctx context.Context, src Source) ([]news.Record, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrUnavailable)
	}
	body, err := src.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	recs, err := news.DecodeFeed(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return recs, nil
}
