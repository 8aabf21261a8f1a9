package news

import "strings"

// Category 是筛选栏上的类型选项
type Category string

const (
	CategoryAll      Category = "all"
	CategoryTransfer Category = "transfer"
	CategoryTwitter  Category = "twitter"
	CategoryRSS      Category = "rss"
)

// Categories 按筛选栏的展示顺序列出全部类型
var Categories = []Category{CategoryAll, CategoryTransfer, CategoryTwitter, CategoryRSS}

// ParseCategory 未知取值一律退回 all
func ParseCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryTransfer, CategoryTwitter, CategoryRSS:
		return c
	default:
		return CategoryAll
	}
}

// Match 判断一条新闻是否属于该类型。
// rss 不是真正的 RSS 标记，而是“非推文”：twitter 与 rss 按同一字段把列表一分为二。
func (c Category) Match(r Record) bool {
	switch c {
	case CategoryTransfer:
		return r.IsTransfer
	case CategoryTwitter:
		return IsSocial(r.Source)
	case CategoryRSS:
		return !IsSocial(r.Source)
	default:
		return true
	}
}

// Criteria 一次浏览中的筛选条件
type Criteria struct {
	Category Category
	Query    string
}

// VisibleRecords 先按类型、再按关键词过滤，保持原有顺序，不修改输入
func VisibleRecords(feed []Record, c Criteria) []Record {
	// 空白关键词等同于不搜索；匹配时用的是原样小写后的关键词
	search := strings.TrimSpace(c.Query) != ""
	query := strings.ToLower(c.Query)

	out := make([]Record, 0, len(feed))
	for _, r := range feed {
		if !c.Category.Match(r) {
			continue
		}
		if search && !matchQuery(r, query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CountByCategory 统计每个类型下的条数，用于筛选栏角标
func CountByCategory(feed []Record) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, r := range feed {
		for _, c := range Categories {
			if c.Match(r) {
				counts[c]++
			}
		}
	}
	return counts
}

func matchQuery(r Record, query string) bool {
	return strings.Contains(strings.ToLower(r.Title), query) ||
		(r.TitleCN != "" && strings.Contains(strings.ToLower(r.TitleCN), query)) ||
		strings.Contains(strings.ToLower(r.Source), query)
}
