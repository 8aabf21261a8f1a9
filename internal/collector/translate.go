package collector

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const translateMaxResponseBytes = 256 * 1024

const (
	translateMaxLen        = 500
	translateClientTimeout = 20 * time.Second
)

// 翻译接口地址，测试中替换为本地服务
var (
	googleTranslateURL = "https://translate.googleapis.com/translate_a/single"
	myMemoryURL        = "https://api.mymemory.translated.net/get"
)

// Translator 英文标题 → 中文
type Translator struct {
	Client *http.Client
}

func NewTranslator() *Translator {
	return &Translator{Client: &http.Client{Timeout: translateClientTimeout}}
}

// IsMostlyChinese 标题已是中文时无需翻译
func IsMostlyChinese(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	var cjk, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
	}
	if total == 0 {
		return true
	}
	return cjk >= 1 && (cjk*4 >= total || cjk >= 2)
}

func isCJK(r rune) bool {
	if r >= 0x4e00 && r <= 0x9fff {
		return true
	}
	if r >= 0x3400 && r <= 0x4dbf {
		return true
	}
	if r >= 0x3000 && r <= 0x303f {
		return true
	}
	return false
}

func sourceLangForMyMemory(s string) string {
	for _, r := range s {
		if r >= 0x3040 && r <= 0x309f || r >= 0x30a0 && r <= 0x30ff {
			return "ja"
		}
	}
	return "en"
}

// ToChinese 依次尝试 Google Translate 直接 API → MyMemory，均失败则返回原文
func (t *Translator) ToChinese(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if rs := []rune(text); len(rs) > translateMaxLen {
		text = string(rs[:translateMaxLen])
	}

	if out := t.viaGoogle(ctx, text); out != "" {
		return out
	}

	if out := t.viaMyMemory(ctx, text); out != "" {
		return out
	}

	return text
}

func (t *Translator) get(ctx context.Context, apiURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: translateClientTimeout}
	}
	return client.Do(req)
}

// viaGoogle 使用 Google Translate 公开 API（client=gtx，无需密钥）
func (t *Translator) viaGoogle(ctx context.Context, text string) string {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", "zh-CN")
	q.Set("dt", "t")
	q.Set("q", text)

	resp, err := t.get(ctx, googleTranslateURL+"?"+q.Encode())
	if err != nil {
		log.Printf("translate (google-gtx): %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("translate (google-gtx): status %d", resp.StatusCode)
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, translateMaxResponseBytes))
	if err != nil {
		return ""
	}

	// 响应格式: [[["翻译文本","原文",...],...],...]
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("translate (google-gtx): decode error: %v", err)
		return ""
	}
	if len(raw) == 0 {
		return ""
	}

	var result strings.Builder
	outer, ok := raw[0].([]any)
	if !ok {
		return ""
	}
	for _, seg := range outer {
		pair, ok := seg.([]any)
		if !ok || len(pair) < 1 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			result.WriteString(s)
		}
	}

	return strings.TrimSpace(result.String())
}

func (t *Translator) viaMyMemory(ctx context.Context, text string) string {
	q := url.Values{}
	q.Set("langpair", sourceLangForMyMemory(text)+"|zh")
	q.Set("q", text)

	resp, err := t.get(ctx, myMemoryURL+"?"+q.Encode())
	if err != nil {
		log.Printf("translate (mymemory): %v", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("translate (mymemory): status %d", resp.StatusCode)
		return ""
	}
	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, translateMaxResponseBytes)).Decode(&out); err != nil {
		return ""
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText)
}
