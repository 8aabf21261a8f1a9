package present

import (
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
	"github.com/araddon/dateparse"
)

// Labels 相对时间文案
type Labels struct {
	JustNow    string
	MinutesAgo string // fmt 模板，%d 为分钟数
	HoursAgo   string
	DaysAgo    string
	Absolute   func(t time.Time) string
}

var LabelsZH = Labels{
	JustNow:    "刚刚",
	MinutesAgo: "%d分钟前",
	HoursAgo:   "%d小时前",
	DaysAgo:    "%d天前",
	Absolute: func(t time.Time) string {
		return fmt.Sprintf("%d月%d日 %s", int(t.Month()), t.Day(), t.Format("15:04"))
	},
}

var LabelsEN = Labels{
	JustNow:    "just now",
	MinutesAgo: "%d minutes ago",
	HoursAgo:   "%d hours ago",
	DaysAgo:    "%d days ago",
	Absolute: func(t time.Time) string {
		return t.Format("Jan 2 15:04")
	},
}

// LabelsFor 站点默认中文
func LabelsFor(locale string) Labels {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "en") {
		return LabelsEN
	}
	return LabelsZH
}

// sourceIcons 按顺序做子串匹配，先命中者为准
var sourceIcons = []struct {
	match string
	icon  string
}{
	{"Twitter", "🐦"},
	{"Sky Sports", "☁️"},
	{"BBC", "📻"},
	{"Guardian", "🛡️"},
}

const defaultIcon = "📰"

// Card 是一条新闻在列表中的展示形态，字段全部由 Record 现算
type Card struct {
	Key       string `json:"key"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Icon      string `json:"icon"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle,omitempty"`
	TimeLabel string `json:"timeLabel"`
	Transfer  bool   `json:"transfer"`
	Social    bool   `json:"social"`
	// 为 0 表示不展示
	Retweets int `json:"retweets,omitempty"`
	Likes    int `json:"likes,omitempty"`
}

// Format 生成单条卡片；index 为该条在可见列表中的位置，与 link 组合成展示 key
func Format(r news.Record, index int, now time.Time, l Labels) Card {
	social := news.IsSocial(r.Source)
	c := Card{
		Key:       fmt.Sprintf("%s-%d", r.Link, index),
		Link:      r.Link,
		Source:    r.Source,
		Icon:      SourceIcon(r.Source),
		Title:     DisplayTitle(r),
		Subtitle:  Subtitle(r),
		TimeLabel: RelativeTime(r.Published, now, l),
		Transfer:  r.IsTransfer,
		Social:    social,
	}
	if social {
		if r.RetweetCount > 0 {
			c.Retweets = r.RetweetCount
		}
		if r.LikeCount > 0 {
			c.Likes = r.LikeCount
		}
	}
	return c
}

func FormatAll(records []news.Record, now time.Time, l Labels) []Card {
	cards := make([]Card, 0, len(records))
	for i, r := range records {
		cards = append(cards, Format(r, i, now, l))
	}
	return cards
}

// HasEngagement 推文且至少有一个计数大于 0
func (c Card) HasEngagement() bool {
	return c.Social && (c.Retweets > 0 || c.Likes > 0)
}

// DisplayTitle 有译文用译文，否则用原标题
func DisplayTitle(r news.Record) string {
	if r.TitleCN != "" {
		return r.TitleCN
	}
	return r.Title
}

// Subtitle 仅在译文存在且与原文不同时展示原标题
func Subtitle(r news.Record) string {
	if r.TitleCN != "" && r.TitleCN != r.Title {
		return r.Title
	}
	return ""
}

func SourceIcon(source string) string {
	for _, s := range sourceIcons {
		if strings.Contains(source, s.match) {
			return s.icon
		}
	}
	return defaultIcon
}

// RelativeTime 按整单位截断计算相对时间；无法解析时原样返回
func RelativeTime(published string, now time.Time, l Labels) string {
	t, ok := parsePublished(published, now.Location())
	if !ok {
		return published
	}

	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case minutes < 1:
		return l.JustNow
	case minutes < 60:
		return fmt.Sprintf(l.MinutesAgo, minutes)
	case hours < 24:
		return fmt.Sprintf(l.HoursAgo, hours)
	case days < 7:
		return fmt.Sprintf(l.DaysAgo, days)
	}
	return l.Absolute(t.In(now.Location()))
}

// parsePublished 先按 RFC3339，再交给 dateparse 兼容推文等五花八门的时间格式；
// 不带时区的时间按 loc 解释
func parsePublished(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
