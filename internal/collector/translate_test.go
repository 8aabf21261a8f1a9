package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsMostlyChinese(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"阿森纳客场取胜", true},
		{"Arsenal win", false},
		{"Saka 破门", true},
	}
	for _, tc := range cases {
		if got := IsMostlyChinese(tc.in); got != tc.want {
			t.Fatalf("IsMostlyChinese(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func setTranslateURLs(t *testing.T, google, mymemory string) {
	t.Helper()
	g, m := googleTranslateURL, myMemoryURL
	googleTranslateURL, myMemoryURL = google, mymemory
	t.Cleanup(func() { googleTranslateURL, myMemoryURL = g, m })
}

func TestTranslatorGoogle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "Arsenal win. Saka scores" {
			t.Errorf("unexpected q: %q", r.URL.Query().Get("q"))
		}
		_, _ = w.Write([]byte(`[[["阿森纳获胜。","Arsenal win.",null],["萨卡进球","Saka scores",null]],null,"en"]`))
	}))
	defer srv.Close()
	setTranslateURLs(t, srv.URL, srv.URL)

	tr := NewTranslator()
	if got := tr.ToChinese(context.Background(), "Arsenal win. Saka scores"); got != "阿森纳获胜。萨卡进球" {
		t.Fatalf("ToChinese = %q", got)
	}
}

func TestTranslatorFallsBackToMyMemory(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer google.Close()
	mm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("langpair") != "en|zh" {
			t.Errorf("unexpected langpair: %q", r.URL.Query().Get("langpair"))
		}
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":" 转会完成 "}}`))
	}))
	defer mm.Close()
	setTranslateURLs(t, google.URL, mm.URL)

	if got := NewTranslator().ToChinese(context.Background(), "Transfer completed"); got != "转会完成" {
		t.Fatalf("ToChinese = %q", got)
	}
}

func TestTranslatorReturnsOriginalOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	setTranslateURLs(t, srv.URL, srv.URL)

	if got := NewTranslator().ToChinese(context.Background(), "  Match report "); got != "Match report" {
		t.Fatalf("ToChinese = %q", got)
	}
}
