package present

import (
	"strings"
	"testing"
	"time"

	"github.com/LJTian/GoalNews/internal/news"
)

func TestRelativeTimeBuckets(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5 minutes ago"},
		{5*time.Minute + 59*time.Second, "5 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{23*time.Hour + 59*time.Minute, "23 hours ago"},
		{2 * 24 * time.Hour, "2 days ago"},
		{6*24*time.Hour + 23*time.Hour, "6 days ago"},
	}
	for _, c := range cases {
		published := now.Add(-c.ago).Format(time.RFC3339)
		if got := RelativeTime(published, now, LabelsEN); got != c.want {
			t.Fatalf("RelativeTime(now-%v) = %q, want %q", c.ago, got, c.want)
		}
	}
}

func TestRelativeTimeAbsoluteAfterAWeek(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	published := now.Add(-10 * 24 * time.Hour).Add(-90 * time.Minute).Format(time.RFC3339)

	if got := RelativeTime(published, now, LabelsEN); got != "Mar 10 10:30" {
		t.Fatalf("en absolute = %q, want %q", got, "Mar 10 10:30")
	}
	if got := RelativeTime(published, now, LabelsZH); got != "3月10日 10:30" {
		t.Fatalf("zh absolute = %q, want %q", got, "3月10日 10:30")
	}
}

func TestRelativeTimeChineseLabels(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	if got := RelativeTime(now.Add(-10*time.Second).Format(time.RFC3339), now, LabelsZH); got != "刚刚" {
		t.Fatalf("got %q, want 刚刚", got)
	}
	if got := RelativeTime(now.Add(-2*time.Hour).Format(time.RFC3339), now, LabelsZH); got != "2小时前" {
		t.Fatalf("got %q, want 2小时前", got)
	}
}

func TestRelativeTimeFallbacks(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	// 无法解析时原样返回
	for _, raw := range []string{"", "not a date"} {
		if got := RelativeTime(raw, now, LabelsEN); got != raw {
			t.Fatalf("RelativeTime(%q) = %q, want raw string", raw, got)
		}
	}

	// 未来时间视为刚刚
	future := now.Add(2 * time.Hour).Format(time.RFC3339)
	if got := RelativeTime(future, now, LabelsEN); got != "just now" {
		t.Fatalf("future time = %q, want just now", got)
	}

	// 推文常见格式
	tweet := now.Add(-3 * time.Hour).Format(time.RubyDate)
	if got := RelativeTime(tweet, now, LabelsEN); got != "3 hours ago" {
		t.Fatalf("ruby date = %q, want 3 hours ago", got)
	}

	// 不带时区的 ISO 时间按 now 所在时区解释
	naive := now.Add(-5 * time.Minute).Format("2006-01-02T15:04:05")
	if got := RelativeTime(naive, now, LabelsEN); got != "5 minutes ago" {
		t.Fatalf("naive iso = %q, want 5 minutes ago", got)
	}
}

func TestDisplayTitleAndSubtitle(t *testing.T) {
	translated := news.Record{Title: "Club signs striker", TitleCN: "俱乐部签下前锋"}
	if got := DisplayTitle(translated); got != "俱乐部签下前锋" {
		t.Fatalf("DisplayTitle = %q", got)
	}
	if got := Subtitle(translated); got != "Club signs striker" {
		t.Fatalf("Subtitle = %q", got)
	}

	same := news.Record{Title: "Club signs striker", TitleCN: "Club signs striker"}
	if got := Subtitle(same); got != "" {
		t.Fatalf("Subtitle should be empty when translation equals title, got %q", got)
	}

	plain := news.Record{Title: "Club signs striker"}
	if DisplayTitle(plain) != "Club signs striker" || Subtitle(plain) != "" {
		t.Fatalf("untranslated record: title=%q subtitle=%q", DisplayTitle(plain), Subtitle(plain))
	}
}

func TestSourceIcon(t *testing.T) {
	cases := map[string]string{
		"Twitter - FabrizioRomano": "🐦",
		"Sky Sports Arsenal":       "☁️",
		"BBC Arsenal":              "📻",
		"The Guardian":             "🛡️",
		"GoalNews":                 "📰",
		"":                         "📰",
	}
	for source, want := range cases {
		if got := SourceIcon(source); got != want {
			t.Fatalf("SourceIcon(%q) = %q, want %q", source, got, want)
		}
	}
}

func TestFormatEngagementCounters(t *testing.T) {
	now := time.Now()

	tweet := news.Record{Source: "Twitter - DiMarzio", Link: "https://t/1", RetweetCount: 0, LikeCount: 8}
	c := Format(tweet, 3, now, LabelsZH)
	if !c.HasEngagement() || c.Retweets != 0 || c.Likes != 8 {
		t.Fatalf("counters should be independent: %+v", c)
	}
	if c.Key != "https://t/1-3" {
		t.Fatalf("Key = %q", c.Key)
	}

	quiet := news.Record{Source: "Twitter - DiMarzio"}
	if Format(quiet, 0, now, LabelsZH).HasEngagement() {
		t.Fatalf("zero counters should not be shown")
	}

	// 非推文来源即使带计数也不展示
	rss := news.Record{Source: "BBC Sport", RetweetCount: 5, LikeCount: 5}
	rc := Format(rss, 0, now, LabelsZH)
	if rc.HasEngagement() || rc.Retweets != 0 || rc.Likes != 0 {
		t.Fatalf("non-social record should not carry counters: %+v", rc)
	}
}

func TestFormatAllDoesNotMutate(t *testing.T) {
	recs := []news.Record{{Source: "BBC Sport", Title: "a", TitleCN: "甲", Link: "l", Published: "not a date"}}
	cards := FormatAll(recs, time.Now(), LabelsFor("en-US"))
	if len(cards) != 1 || cards[0].TimeLabel != "not a date" || cards[0].Title != "甲" {
		t.Fatalf("unexpected cards: %+v", cards)
	}
	if recs[0].Title != "a" || recs[0].TitleCN != "甲" {
		t.Fatalf("record mutated: %+v", recs[0])
	}
	if !strings.HasPrefix(LabelsFor("").JustNow, "刚") {
		t.Fatalf("default locale should be zh")
	}
}
