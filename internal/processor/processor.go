package processor

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/LJTian/GoalNews/internal/collector"
	"github.com/LJTian/GoalNews/internal/news"
)

var transferKeywords = []string{
	"transfer", "sign", "signing", "deal", "move", "join", "leave",
	"departure", "arrival", "agreement", "contract", "loan", "permanent",
	"here we go", "medical", "completed", "announced", "confirmed",
}

var arsenalKeywords = []string{
	"arsenal", "gunners", "emirates", "arteta", "saka", "odegaard",
	"martinelli", "jesus", "saliba", "white", "ramsdale", "阿森纳",
}

// 已带强调标记的译文不再加前缀
var transferPrefixes = []string{"🚨", "💥", "✅"}
var transferMarkers = []string{"🚨", "重磅", "官宣"}

const translateConcurrency = 3

// TranslateFunc 把标题翻译为中文，失败时返回原文
type TranslateFunc func(ctx context.Context, text string) string

// SimpleProcessor 清洗、去重、标注转会、翻译、排序
type SimpleProcessor struct {
	Translate TranslateFunc
}

func NewSimpleProcessor(translate TranslateFunc) *SimpleProcessor {
	return &SimpleProcessor{Translate: translate}
}

func (p *SimpleProcessor) Process(ctx context.Context, items []news.Record) []news.Record {
	out := make([]news.Record, 0, len(items))
	seen := make(map[string]struct{})

	for _, it := range items {
		it.Title = strings.TrimSpace(it.Title)
		it.Link = strings.TrimSpace(it.Link)
		// 同一文章可能同时出现在多个源（如 BBC Sport 与 BBC Arsenal），各源都保留
		if it.Link != "" {
			id := hashURL(it.Source + "\x00" + it.Link)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
		}
		it.IsTransfer = IsTransfer(it.Title)
		out = append(out, it)
	}

	if p.Translate != nil {
		p.translateAll(ctx, out)
	}

	SortByPublished(out)
	return out
}

// translateAll 限制并发，结果按下标写回
func (p *SimpleProcessor) translateAll(ctx context.Context, items []news.Record) {
	sem := make(chan struct{}, translateConcurrency)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			items[i].TitleCN = p.translateTitle(ctx, items[i])
		}(i)
	}
	wg.Wait()
	log.Printf("processor: translated %d titles", len(items))
}

func (p *SimpleProcessor) translateTitle(ctx context.Context, r news.Record) string {
	if r.Title == "" || collector.IsMostlyChinese(r.Title) {
		return r.Title
	}
	cn := p.Translate(ctx, r.Title)
	if cn == "" {
		return r.Title
	}
	if r.IsTransfer && cn != r.Title && !hasAny(cn, transferMarkers) {
		cn = transferPrefixes[rand.Intn(len(transferPrefixes))] + " " + cn
	}
	return cn
}

// IsTransfer 标题包含任一转会关键词（不区分大小写）
func IsTransfer(title string) bool {
	return hasAny(strings.ToLower(title), transferKeywords)
}

// IsArsenal 标题与阿森纳相关
func IsArsenal(title string) bool {
	return hasAny(strings.ToLower(title), arsenalKeywords)
}

// FilterArsenal 只保留阿森纳相关条目
func FilterArsenal(items []news.Record) []news.Record {
	out := make([]news.Record, 0, len(items))
	for _, it := range items {
		if IsArsenal(it.Title) {
			out = append(out, it)
		}
	}
	return out
}

// SortByPublished 按 published 字符串倒序，相同值保持原有顺序
func SortByPublished(items []news.Record) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published > items[j].Published
	})
}

func hasAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hashURL(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}
