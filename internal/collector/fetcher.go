package collector

import (
	"context"

	"github.com/LJTian/GoalNews/internal/news"
)

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]news.Record, error)
}

// Feed 一个 RSS 源
type Feed struct {
	Source string
	URL    string
}

// DefaultFeeds 默认抓取的足球新闻 RSS
var DefaultFeeds = []Feed{
	{Source: "Sky Sports", URL: "https://www.skysports.com/rss/football"},
	{Source: "BBC Sport", URL: "https://feeds.bbci.co.uk/sport/football/rss.xml"},
	{Source: "The Guardian", URL: "https://www.theguardian.com/football/rss"},
	// 阿森纳相关
	{Source: "BBC Arsenal", URL: "https://feeds.bbci.co.uk/sport/football/teams/arsenal/rss.xml"},
	{Source: "Sky Sports Arsenal", URL: "https://www.skysports.com/arsenal/rss"},
}

// DefaultJournalists 关注的足球记者 Twitter 用户名
var DefaultJournalists = []string{
	"FabrizioRomano",
	"David_Ornstein",
	"JamesPearceLFC",
	"ChrisWheatley_",
	"DiMarzio",
	"charles_watts",
	"jamesbenge",
}
