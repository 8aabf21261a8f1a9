package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
	"github.com/araddon/dateparse"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrArchiveDisabled 未配置 POSTGRES_DSN 时归档相关接口返回该错误
var ErrArchiveDisabled = errors.New("storage: archive disabled")

// ArchivedNews 已发布过的新闻，按 link 幂等写入，保留历史
type ArchivedNews struct {
	ID          string            `gorm:"primaryKey;size:40" json:"id"`
	Title       string            `gorm:"size:1024" json:"title"`
	TitleCN     string            `gorm:"size:1024" json:"titleCn"`
	Link        string            `gorm:"size:1024;uniqueIndex" json:"link"`
	Source      string            `gorm:"size:128;index" json:"source"`
	Published   string            `gorm:"size:64" json:"published"`
	PublishedAt time.Time         `gorm:"index" json:"publishedAt"`
	IsTransfer  bool              `gorm:"index" json:"isTransfer"`
	ExtraData   datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store 聚合快照文件、Redis 缓存与 Postgres 归档；后两者均可为空
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	SnapshotPath string
	CacheTTL     time.Duration
}

// NewStore dsn / redisAddr 为空时分别关闭归档与缓存，只依赖快照文件也能运行
func NewStore(dsn, redisAddr, snapshotPath string) (*Store, error) {
	s := &Store{SnapshotPath: snapshotPath, CacheTTL: defaultCacheTTL}

	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&ArchivedNews{}, &RefreshRun{}); err != nil {
			return nil, err
		}
		s.DB = db
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
		s.Redis = rdb
	}

	return s, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断，确保不超过字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

func hashLink(link string) string {
	h := sha1.New()
	h.Write([]byte(link))
	return hex.EncodeToString(h.Sum(nil))
}

// ArchiveRecords 保存一批已发布的新闻，已存在的按 link 更新标题、译文与互动数
func (s *Store) ArchiveRecords(ctx context.Context, records []news.Record) error {
	if s.DB == nil {
		return ErrArchiveDisabled
	}
	db := s.DB.WithContext(ctx)

	for _, r := range records {
		if strings.TrimSpace(r.Link) == "" {
			continue
		}
		publishedAt, err := dateparse.ParseAny(r.Published)
		if err != nil {
			publishedAt = time.Now()
		}
		title := truncateRunesDB(toValidUTF8(r.Title), 1024)
		titleCN := truncateRunesDB(toValidUTF8(r.TitleCN), 1024)

		n := &ArchivedNews{
			ID:          hashLink(r.Link),
			Title:       title,
			TitleCN:     titleCN,
			Link:        r.Link,
			Source:      truncateRunesDB(r.Source, 128),
			Published:   truncateRunesDB(r.Published, 64),
			PublishedAt: publishedAt,
			IsTransfer:  r.IsTransfer,
			ExtraData:   extraData(r),
		}

		// 以 link 作为幂等键；已存在时刷新可能变化的字段
		if err := db.Where("link = ?", r.Link).FirstOrCreate(n).Error; err != nil {
			return err
		}
		_ = db.Model(n).Updates(map[string]any{
			"title":       title,
			"title_cn":    titleCN,
			"is_transfer": r.IsTransfer,
			"extra_data":  extraData(r),
		}).Error
	}
	return nil
}

func extraData(r news.Record) datatypes.JSONMap {
	if r.TweetID == "" && r.RetweetCount == 0 && r.LikeCount == 0 {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap{
		"tweet_id":      r.TweetID,
		"retweet_count": r.RetweetCount,
		"like_count":    r.LikeCount,
	}
}

// ListArchive 按来源返回归档新闻，新的在前；source 为空表示全部
func (s *Store) ListArchive(ctx context.Context, source string, limit int) ([]ArchivedNews, error) {
	if s.DB == nil {
		return nil, ErrArchiveDisabled
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var list []ArchivedNews
	db := s.DB.WithContext(ctx).Model(&ArchivedNews{})
	if source != "" {
		db = db.Where("source = ?", source)
	}
	if err := db.Order("published_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
