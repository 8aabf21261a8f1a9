package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/LJTian/GoalNews/internal/config"
	"github.com/LJTian/GoalNews/internal/feed"
	"github.com/LJTian/GoalNews/internal/news"
	"github.com/LJTian/GoalNews/internal/present"
	"github.com/spf13/cobra"
)

var (
	flagSite     string
	flagCategory string
	flagQuery    string
	flagLocale   string
	flagLimit    int
)

// 终端版新闻列表：与网页使用同一套 加载 → 过滤 → 格式化 流程
var rootCmd = &cobra.Command{
	Use:   "goalnews",
	Short: "Browse GoalNews football headlines in the terminal",
	RunE:  runBrowse,
}

func init() {
	rootCmd.Flags().StringVar(&flagSite, "site", "", "site base URL (default NEWS_SITE_URL)")
	rootCmd.Flags().StringVarP(&flagCategory, "category", "c", "all", "all | transfer | twitter | rss")
	rootCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "search in titles and sources")
	rootCmd.Flags().StringVar(&flagLocale, "locale", "", "zh | en (default SITE_LOCALE)")
	rootCmd.Flags().IntVarP(&flagLimit, "limit", "n", 30, "max items to print, 0 for all")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	site := flagSite
	if site == "" {
		site = cfg.SiteURL
	}
	locale := flagLocale
	if locale == "" {
		locale = cfg.SiteLocale
	}
	site = strings.TrimRight(site, "/")

	loader := feed.NewLoader(
		&feed.HTTPSource{URL: site + "/api/news"},
		&feed.HTTPSource{URL: site + "/news.json"},
	)
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	res := loader.Load(ctx)

	criteria := news.Criteria{Category: news.ParseCategory(flagCategory), Query: flagQuery}
	render(cmd.OutOrStdout(), res, criteria, present.LabelsFor(locale), time.Now(), flagLimit)
	return nil
}

func render(w io.Writer, res feed.Result, criteria news.Criteria, labels present.Labels, now time.Time, limit int) {
	counts := news.CountByCategory(res.Records)
	parts := make([]string, 0, len(news.Categories))
	for _, c := range news.Categories {
		marker := " "
		if c == criteria.Category {
			marker = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%s(%d)", marker, c, counts[c]))
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
	if !res.OK() {
		fmt.Fprintf(w, "! %s\n", res.Status)
	}
	fmt.Fprintln(w)

	cards := present.FormatAll(news.VisibleRecords(res.Records, criteria), now, labels)
	if len(cards) == 0 {
		fmt.Fprintln(w, "暂无新闻")
		return
	}
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}

	for _, c := range cards {
		head := fmt.Sprintf("%s %s · %s", c.Icon, c.Source, c.TimeLabel)
		if c.Transfer {
			head += " · 转会"
		}
		fmt.Fprintln(w, head)
		fmt.Fprintf(w, "  %s\n", c.Title)
		if c.Subtitle != "" {
			fmt.Fprintf(w, "  %s\n", c.Subtitle)
		}
		if c.HasEngagement() {
			fmt.Fprintf(w, "  %s\n", engagementLine(c))
		}
		fmt.Fprintf(w, "  %s\n\n", c.Link)
	}
}

// engagementLine 计数为 0 的一项不显示
func engagementLine(c present.Card) string {
	var parts []string
	if c.Retweets > 0 {
		parts = append(parts, fmt.Sprintf("🔁 %d", c.Retweets))
	}
	if c.Likes > 0 {
		parts = append(parts, fmt.Sprintf("❤️ %d", c.Likes))
	}
	return strings.Join(parts, "  ")
}
