package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
	"github.com/araddon/dateparse"
)

const (
	twitterClientTimeout    = 15 * time.Second
	twitterMaxResponseBytes = 2 << 20
	tweetTitleMaxRunes      = 200
)

// rapidAPIEndpoint 一个 RapidAPI 上的 Twitter 接口，按顺序尝试，先拿到数据者为准
type rapidAPIEndpoint struct {
	name    string
	url     string
	host    string
	userKey string // 用户名参数名
	listKey string // 响应中推文列表所在字段
}

var rapidAPIEndpoints = []rapidAPIEndpoint{
	{
		name:    "Twitter API 45",
		url:     "https://twitter-api45.p.rapidapi.com/timeline.php",
		host:    "twitter-api45.p.rapidapi.com",
		userKey: "screenname",
		listKey: "timeline",
	},
	{
		name:    "Twitter Scraper",
		url:     "https://twitter-scraper-api.p.rapidapi.com/user",
		host:    "twitter-scraper-api.p.rapidapi.com",
		userKey: "username",
		listKey: "tweets",
	},
}

// TwitterFetcher 通过 RapidAPI 获取某位记者最近的推文
type TwitterFetcher struct {
	Username string
	APIKey   string
	Limit    int
	Client   *http.Client
}

func (t *TwitterFetcher) Name() string {
	return "twitter:" + t.Username
}

func (t *TwitterFetcher) Fetch(ctx context.Context) ([]news.Record, error) {
	if t.APIKey == "" {
		return nil, fmt.Errorf("twitter %s: RAPIDAPI_KEY not set", t.Username)
	}
	limit := t.Limit
	if limit <= 0 {
		limit = 5
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: twitterClientTimeout}
	}

	var lastErr error
	for _, ep := range rapidAPIEndpoints {
		tweets, err := t.fetchFrom(ctx, client, ep, limit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(tweets) > 0 {
			log.Printf("twitter %s: got %d tweets via %s", t.Username, len(tweets), ep.name)
			return tweets, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("twitter %s: %w", t.Username, lastErr)
	}
	return nil, nil
}

func (t *TwitterFetcher) fetchFrom(ctx context.Context, client *http.Client, ep rapidAPIEndpoint, limit int) ([]news.Record, error) {
	q := url.Values{}
	q.Set(ep.userKey, t.Username)
	q.Set("count", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", t.APIKey)
	req.Header.Set("X-RapidAPI-Host", ep.host)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", ep.name, resp.StatusCode)
	}

	// UseNumber 避免推文 ID 以 float64 解码丢精度
	dec := json.NewDecoder(io.LimitReader(resp.Body, twitterMaxResponseBytes))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", ep.name, err)
	}

	list, _ := data[ep.listKey].([]any)
	if len(list) > limit {
		list = list[:limit]
	}

	out := make([]news.Record, 0, len(list))
	for _, raw := range list {
		tw, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, t.toRecord(tw))
	}
	return out, nil
}

func (t *TwitterFetcher) toRecord(tw map[string]any) news.Record {
	text := firstString(tw, "text", "full_text", "content")
	id := firstString(tw, "id", "id_str", "tweet_id")

	link := firstString(tw, "url")
	if link == "" {
		link = fmt.Sprintf("https://twitter.com/%s/status/%s", t.Username, id)
	}

	rawTime := firstString(tw, "created_at", "date")
	published := rawTime
	if ts, err := dateparse.ParseAny(rawTime); err == nil {
		published = ts.UTC().Format(time.RFC3339)
	} else if rawTime == "" {
		published = time.Now().UTC().Format(time.RFC3339)
	}

	return news.Record{
		Source:       "Twitter - " + t.Username,
		Title:        truncateRunes(strings.TrimSpace(text), tweetTitleMaxRunes),
		Link:         link,
		Published:    published,
		PublishedRaw: rawTime,
		TweetID:      id,
		RetweetCount: firstInt(tw, "retweet_count", "retweets"),
		LikeCount:    firstInt(tw, "favorite_count", "like_count", "likes"),
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func firstInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		var s string
		switch v := m[k].(type) {
		case json.Number:
			s = v.String()
		case string:
			s = v
		default:
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || n < 0 {
			continue
		}
		return int(n)
	}
	return 0
}

func truncateRunes(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
