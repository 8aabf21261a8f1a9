package collector

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/mmcdole/gofeed"
)

const (
	rssRequestTimeout = 15 * time.Second
	rssUserAgent      = "GoalNewsBot/1.0"
	untitled          = "无标题"
)

// RSSFetcher 通过 colly 拉取 RSS 原文，再交给 gofeed 解析
type RSSFetcher struct {
	Feed Feed
}

func (f *RSSFetcher) Name() string {
	return "rss:" + f.Feed.Source
}

func (f *RSSFetcher) Fetch(ctx context.Context) ([]news.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Printf("fetch %s...", f.Feed.Source)

	body, err := fetchBody(ctx, f.Feed.URL)
	if err != nil {
		return nil, fmt.Errorf("rss %s: %w", f.Feed.Source, err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rss %s: parse: %w", f.Feed.Source, err)
	}

	results := make([]news.Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := cleanText(item.Title)
		if title == "" {
			title = untitled
		}

		published := item.Published
		switch {
		case item.PublishedParsed != nil:
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		case item.UpdatedParsed != nil:
			published = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		results = append(results, news.Record{
			Source:       f.Feed.Source,
			Title:        title,
			Link:         strings.TrimSpace(item.Link),
			Published:    published,
			PublishedRaw: item.Published,
		})
	}

	if len(results) == 0 {
		log.Printf("fetch %s got 0 items", f.Feed.Source)
	}
	return results, nil
}

// fetchBody colly 默认同步执行，Visit 返回时 OnResponse 已回调完毕。
// ctx 取消后不再发出请求；已发出的请求无法中断，只受 rssRequestTimeout 限制。
func fetchBody(ctx context.Context, url string) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(rssUserAgent),
	)
	c.SetRequestTimeout(rssRequestTimeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := c.Visit(url); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response from %s", url)
	}
	return body, nil
}

// cleanText 去掉标题里可能夹带的 HTML 标签与实体
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
