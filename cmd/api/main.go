package main

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/LJTian/GoalNews/internal/api"
	"github.com/LJTian/GoalNews/internal/config"
	"github.com/LJTian/GoalNews/internal/refresh"
	"github.com/LJTian/GoalNews/internal/scheduler"
	"github.com/LJTian/GoalNews/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr, cfg.SnapshotFile)
	if err != nil {
		log.Fatalf("init store failed: %v", err)
	}

	// 快照目录需存在，才能监控外部写入
	if err := os.MkdirAll(filepath.Dir(cfg.SnapshotFile), 0o755); err != nil {
		log.Fatalf("create snapshot dir failed: %v", err)
	}
	if err := store.WatchSnapshot(context.Background(), func() {
		log.Printf("snapshot: %s changed on disk, cache reloaded", cfg.SnapshotFile)
	}); err != nil {
		log.Printf("warn: watch snapshot: %v", err)
	}

	trigger := &refresh.Trigger{
		Secret:    cfg.CronSecret,
		Command:   refresh.ParseCommand(cfg.ProducerCmd),
		Dir:       cfg.ProducerDir,
		Output:    cfg.ProducerOutput,
		Timeout:   cfg.ProducerTimeout,
		Publisher: store,
		History:   store,
	}
	if store.DB != nil {
		trigger.Archiver = store
	}
	if cfg.CronSecret == "" {
		log.Printf("warn: CRON_SECRET not set, /api/cron/fetch-news is open")
	}

	// 服务内置定时刷新；REFRESH_CRON=off 时只依赖外部调度调用刷新接口
	if cfg.RefreshCron != "" {
		s, err := scheduler.New(cfg.RefreshCron, trigger)
		if err != nil {
			log.Fatalf("init scheduler failed: %v", err)
		}
		s.Start()
	}

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 与刷新接口免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass))
	}

	apiServer := api.NewServer(store, store, trigger, cfg)
	apiServer.RegisterRoutes(r)

	// 若配置了前端目录，则托管 SPA 静态文件并做 fallback
	if cfg.WebRoot != "" {
		assetsDir := filepath.Join(cfg.WebRoot, "assets")
		indexFile := filepath.Join(cfg.WebRoot, "index.html")
		r.Static("/assets", assetsDir)
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet {
				c.Status(http.StatusNotFound)
				return
			}
			// SPA：未匹配 API 的 GET 均返回 index.html
			c.File(indexFile)
		})
	}
	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}

// basicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// 仅当配置了 APP_BASIC_USER / APP_BASIC_PASS 时启用。
// /health 不做认证，便于健康检查；/api/cron/ 自带 Bearer 校验。
func basicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/api/cron/") {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
