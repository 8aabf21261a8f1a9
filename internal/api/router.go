package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LJTian/GoalNews/internal/config"
	"github.com/LJTian/GoalNews/internal/feed"
	"github.com/LJTian/GoalNews/internal/news"
	"github.com/LJTian/GoalNews/internal/present"
	"github.com/LJTian/GoalNews/internal/refresh"
	"github.com/LJTian/GoalNews/internal/storage"
	"github.com/gin-gonic/gin"
)

// SnapshotReader 读取当前发布的快照内容
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context) ([]byte, error)
}

// Archive 刷新历史与归档查询
type Archive interface {
	ListRuns(ctx context.Context, limit int) ([]storage.RefreshRun, error)
	ListArchive(ctx context.Context, source string, limit int) ([]storage.ArchivedNews, error)
}

// Refresher 由 refresh.Trigger 实现
type Refresher interface {
	Authorize(header string) error
	Run(ctx context.Context, trigger string) (refresh.Outcome, error)
}

type Server struct {
	snapshot  SnapshotReader
	archive   Archive
	refresher Refresher
	cfg       *config.Config

	now func() time.Time
}

func NewServer(snapshot SnapshotReader, archive Archive, refresher Refresher, cfg *config.Config) *Server {
	return &Server{
		snapshot:  snapshot,
		archive:   archive,
		refresher: refresher,
		cfg:       cfg,
		now:       config.Now,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	// 与前端约定的两个数据源：动态接口优先，静态快照兜底
	r.GET("/api/news", s.feedNews)
	r.GET("/news.json", s.staticSnapshot)

	r.GET("/api/cron/fetch-news", s.refresh)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listNews)
		v1.GET("/refresh/runs", s.listRuns)
		v1.GET("/archive", s.listArchive)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// feedNews 返回当前快照；从未发布过快照时返回示例数据
func (s *Server) feedNews(c *gin.Context) {
	body, err := s.feedBody(c.Request.Context())
	if err != nil {
		log.Printf("api: load news: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load news"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) feedBody(ctx context.Context) ([]byte, error) {
	body, err := s.snapshot.ReadSnapshot(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return json.Marshal(news.WelcomeRecords(s.now()))
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("snapshot is not valid json")
	}
	return body, nil
}

func (s *Server) staticSnapshot(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.File(s.cfg.SnapshotFile)
}

// refresh 供定时任务调用：校验密钥、执行采集脚本并发布结果
func (s *Server) refresh(c *gin.Context) {
	if err := s.refresher.Authorize(c.GetHeader("Authorization")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "kind": refresh.KindUnauthorized})
		return
	}

	// 调用方断开不应中断采集脚本，由 Trigger 自身的超时兜底
	ctx := context.WithoutCancel(c.Request.Context())
	out, err := s.refresher.Run(ctx, "http")
	if err != nil {
		status := http.StatusBadGateway
		kind := refresh.KindOf(err)
		diag := err.Error()
		var re *refresh.Error
		if errors.As(err, &re) && re.Diagnostic != "" {
			diag = re.Diagnostic
		}
		if kind == refresh.KindPublishFailure || kind == "" {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"ok":    false,
			"kind":  kind,
			"error": diag,
			"runId": out.RunID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"count": out.Count,
		"runId": out.RunID,
	})
}

// listNews 服务端完成 加载 → 过滤 → 格式化，返回可直接渲染的卡片
func (s *Server) listNews(c *gin.Context) {
	criteria := news.Criteria{
		Category: news.ParseCategory(c.Query("category")),
		Query:    c.Query("q"),
	}
	labels := present.LabelsFor(c.DefaultQuery("locale", s.cfg.SiteLocale))

	loader := feed.NewLoader(
		feed.SourceFunc(s.feedBody),
		&feed.FileSource{Path: s.cfg.SnapshotFile},
	)
	res := loader.Load(c.Request.Context())

	visible := news.VisibleRecords(res.Records, criteria)
	cards := present.FormatAll(visible, s.now(), labels)

	c.JSON(http.StatusOK, gin.H{
		"code":     "ok",
		"message":  "success",
		"status":   res.Status.String(),
		"category": criteria.Category,
		"total":    len(cards),
		"counts":   news.CountByCategory(res.Records),
		"data":     cards,
	})
}

func (s *Server) listRuns(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	runs, err := s.archive.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeArchiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    runs,
	})
}

func (s *Server) listArchive(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	items, err := s.archive.ListArchive(c.Request.Context(), c.Query("source"), limit)
	if err != nil {
		writeArchiveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

func writeArchiveError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrArchiveDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"code":    "archive_disabled",
			"message": "archive is not configured",
		})
		return
	}
	log.Printf("api: archive query: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
