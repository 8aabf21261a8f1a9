package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/LJTian/GoalNews/internal/collector"
	"github.com/LJTian/GoalNews/internal/config"
	"github.com/LJTian/GoalNews/internal/news"
	"github.com/LJTian/GoalNews/internal/processor"
	"github.com/spf13/cobra"
)

var (
	flagOutput      string
	flagArsenal     bool
	flagNoTranslate bool
	flagTweetLimit  int
)

// 一个仅执行一次采集任务的命令行入口：抓取 → 处理 → 写出 JSON，供刷新接口调用
var rootCmd = &cobra.Command{
	Use:   "goalnews-collect",
	Short: "Fetch football news and journalist tweets into a JSON file",
	RunE:  runCollect,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "football_news_translated.json", "output file")
	rootCmd.Flags().BoolVar(&flagArsenal, "arsenal", false, "only keep Arsenal related RSS items (overrides FILTER_ARSENAL)")
	rootCmd.Flags().BoolVar(&flagNoTranslate, "no-translate", false, "skip title translation")
	rootCmd.Flags().IntVar(&flagTweetLimit, "tweets", 5, "tweets per journalist")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	filterArsenal := cfg.FilterArsenal || flagArsenal
	translate := cfg.Translate && !flagNoTranslate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rssFetchers := make([]collector.Fetcher, 0, len(collector.DefaultFeeds))
	for _, f := range collector.DefaultFeeds {
		rssFetchers = append(rssFetchers, &collector.RSSFetcher{Feed: f})
	}
	var tweetFetchers []collector.Fetcher
	if cfg.RapidAPIKey != "" {
		for _, u := range collector.DefaultJournalists {
			tweetFetchers = append(tweetFetchers, &collector.TwitterFetcher{
				Username: u,
				APIKey:   cfg.RapidAPIKey,
				Limit:    flagTweetLimit,
			})
		}
	} else {
		log.Printf("collect: RAPIDAPI_KEY not set, skip journalist tweets")
	}

	rssItems := fetchAll(ctx, rssFetchers)
	// 阿森纳过滤只作用于 RSS，推文总是保留
	if filterArsenal {
		rssItems = processor.FilterArsenal(rssItems)
		log.Printf("collect: %d Arsenal related RSS items", len(rssItems))
	}
	all := append(rssItems, fetchAll(ctx, tweetFetchers)...)

	var tr processor.TranslateFunc
	if translate {
		tr = collector.NewTranslator().ToChinese
	}
	out := processor.NewSimpleProcessor(tr).Process(ctx, all)

	if err := writeJSON(flagOutput, out); err != nil {
		return err
	}
	log.Printf("collect: wrote %d items (%d transfer) to %s", len(out), countTransfers(out), flagOutput)
	return nil
}

// fetchAll 并发执行所有采集器，单个失败只记录日志；结果按采集器顺序合并
func fetchAll(ctx context.Context, fetchers []collector.Fetcher) []news.Record {
	slots := make([][]news.Record, len(fetchers))
	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, f collector.Fetcher) {
			defer wg.Done()
			items, err := f.Fetch(ctx)
			if err != nil {
				log.Printf("collect: %s error: %v", f.Name(), err)
				return
			}
			log.Printf("collect: %s got %d items", f.Name(), len(items))
			slots[i] = items
		}(i, f)
	}
	wg.Wait()

	var all []news.Record
	for _, items := range slots {
		all = append(all, items...)
	}
	return all
}

func writeJSON(path string, items []news.Record) error {
	if items == nil {
		items = []news.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode news: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func countTransfers(items []news.Record) int {
	n := 0
	for _, it := range items {
		if it.IsTransfer {
			n++
		}
	}
	return n
}
