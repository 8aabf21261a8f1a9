package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	// 前端构建产物目录，可为空
	WebRoot string
	// 发布快照的位置，同时作为 /news.json 静态备用源
	SnapshotFile string

	PostgresDSN string
	RedisAddr   string

	// 刷新接口的共享密钥，为空则不校验
	CronSecret  string
	RefreshCron string

	ProducerCmd     string
	ProducerDir     string
	ProducerOutput  string
	ProducerTimeout time.Duration

	SiteLocale string

	// 站点级 Basic Auth，可选
	BasicAuthUser string
	BasicAuthPass string

	// 采集脚本使用
	RapidAPIKey   string
	FilterArsenal bool
	Translate     bool

	// 终端浏览器访问的站点地址
	SiteURL string
}

// DefaultProducerCmd 在仓库根目录直接运行采集命令；部署时可改为已编译的二进制
const DefaultProducerCmd = "go run ./cmd/collect -o football_news_translated.json"

func Load() *Config {
	// .env 可选，不存在时只用进程环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warn: load .env: %v", err)
	}

	cfg := &Config{
		AppPort:         getEnv("APP_PORT", "9000"),
		WebRoot:         getEnv("WEB_ROOT", ""),
		SnapshotFile:    getEnv("SNAPSHOT_FILE", "public/news.json"),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		CronSecret:      getEnv("CRON_SECRET", ""),
		RefreshCron:     getEnv("REFRESH_CRON", "*/30 * * * *"),
		ProducerCmd:     getEnv("PRODUCER_CMD", DefaultProducerCmd),
		ProducerDir:     getEnv("PRODUCER_DIR", "."),
		ProducerOutput:  getEnv("PRODUCER_OUTPUT", "football_news_translated.json"),
		ProducerTimeout: getDuration("PRODUCER_TIMEOUT", 10*time.Minute),
		SiteLocale:      getEnv("SITE_LOCALE", "zh"),
		BasicAuthUser:   getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:   getEnv("APP_BASIC_PASS", ""),
		RapidAPIKey:     getEnv("RAPIDAPI_KEY", ""),
		FilterArsenal:   getBool("FILTER_ARSENAL", false),
		Translate:       getBool("TRANSLATE", true),
		SiteURL:         getEnv("NEWS_SITE_URL", "http://localhost:9000"),
	}

	// REFRESH_CRON=off 关闭内置定时刷新，只依赖外部调用刷新接口
	if strings.EqualFold(strings.TrimSpace(cfg.RefreshCron), "off") {
		cfg.RefreshCron = ""
	}

	log.Printf("config loaded: port=%s snapshot=%s refresh=%q secret=%t redis=%t postgres=%t",
		cfg.AppPort, cfg.SnapshotFile, cfg.RefreshCron, cfg.CronSecret != "", cfg.RedisAddr != "", cfg.PostgresDSN != "")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("warn: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// Now returns current time, 方便后续做可测试封装
func Now() time.Time {
	return time.Now()
}
