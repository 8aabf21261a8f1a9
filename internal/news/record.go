package news

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotSequence 表示响应体不是一个新闻数组
var ErrNotSequence = errors.New("news: body is not a record sequence")

// Record 是采集脚本产出、前端展示共用的一条新闻或推文
type Record struct {
	Source       string `json:"source"`
	Title        string `json:"title"`
	TitleCN      string `json:"title_cn,omitempty"`
	Link         string `json:"link"`
	Published    string `json:"published"`
	PublishedRaw string `json:"published_raw,omitempty"`
	IsTransfer   bool   `json:"is_transfer"`

	// 以下字段仅对推文有意义
	TweetID      string `json:"tweet_id,omitempty"`
	RetweetCount int    `json:"retweet_count,omitempty"`
	LikeCount    int    `json:"like_count,omitempty"`
}

// UnmarshalJSON 宽松解析：字段缺失或类型不符时按零值处理，不让单条脏数据拖垮整份快照
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		Source:       rawString(raw["source"]),
		Title:        rawString(raw["title"]),
		TitleCN:      rawString(raw["title_cn"]),
		Link:         rawString(raw["link"]),
		Published:    rawString(raw["published"]),
		PublishedRaw: rawString(raw["published_raw"]),
		// 只认字面量 true，"true"/1 之类都不算
		IsTransfer:   bytes.Equal(bytes.TrimSpace(raw["is_transfer"]), []byte("true")),
		TweetID:      rawID(raw["tweet_id"]),
		RetweetCount: rawCount(raw["retweet_count"]),
		LikeCount:    rawCount(raw["like_count"]),
	}
	return nil
}

// IsSocial 判断来源是否为推文
func IsSocial(source string) bool {
	return strings.Contains(source, "Twitter")
}

// DecodeFeed 把快照内容解析成有序的新闻列表。
// 非数组返回 ErrNotSequence；数组里非对象的元素直接丢弃。
func DecodeFeed(body []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSequence, err)
	}
	// JSON null 也能解到切片里，这里当作非数组
	if items == nil {
		return nil, ErrNotSequence
	}

	out := make([]Record, 0, len(items))
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) == 0 || it[0] != '{' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(it, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// WelcomeRecords 在尚未发布任何快照时返回的示例数据
func WelcomeRecords(now time.Time) []Record {
	published := now.UTC().Format(time.RFC3339)
	return []Record{
		{
			Source:    "GoalNews",
			Title:     "Welcome to GoalNews",
			TitleCN:   "欢迎使用 GoalNews",
			Link:      "https://github.com/LJTian/GoalNews",
			Published: published,
		},
		{
			Source:    "GoalNews",
			Title:     "News data will be updated automatically",
			TitleCN:   "新闻数据将自动更新",
			Link:      "https://github.com/LJTian/GoalNews",
			Published: published,
		},
	}
}

func rawString(b json.RawMessage) string {
	if len(b) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ""
	}
	return s
}

// rawID 推文 ID 上游有时给数字，统一转成字符串
func rawID(b json.RawMessage) string {
	if s := rawString(b); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return ""
	}
	return n.String()
}

// rawCount 解析非负整数计数，兼容数字字符串；其余一律视为 0
func rawCount(b json.RawMessage) int {
	if len(b) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		s := rawString(b)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	if f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
