package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/korean"
)

var koreanBody = strings.Repeat("정부가 새 예산안을 발표했다. ", 20)

func TestExtractText_Simple(t *testing.T) {
	html := `<html><body><h1>Title</h1><p>Hello world</p><ul><li>Item 1</li><li>Item 2</li></ul></body></html>`
	text := ExtractText(html)
	if !strings.Contains(text, "Title") {
		t.Errorf("expected 'Title' in output, got: %s", text)
	}
	if !strings.Contains(text, "Hello world") {
		t.Errorf("expected 'Hello world' in output, got: %s", text)
	}
	if !strings.Contains(text, "- Item 1") {
		t.Errorf("expected '- Item 1' in output, got: %s", text)
	}
}

func TestExtractText_RemovesBoilerplate(t *testing.T) {
	html := `<html><body><nav><a href="/">Home</a></nav><script>alert('x')</script>
<main><p>Main content</p></main><aside>Related</aside><footer>Footer</footer></body></html>`
	text := ExtractText(html)
	for _, unwanted := range []string{"Home", "alert", "Related", "Footer"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("expected %q to be removed, got: %s", unwanted, text)
		}
	}
	if !strings.Contains(text, "Main content") {
		t.Errorf("expected 'Main content' in output, got: %s", text)
	}
}

func TestExtractTitle(t *testing.T) {
	title := extractTitle(`<html><head><title>  My   Page Title </title></head><body></body></html>`)
	if title != "My Page Title" {
		t.Errorf("expected 'My Page Title', got '%s'", title)
	}
}

func TestNormalizeAndCap(t *testing.T) {
	// Decomposed jamo compose back to a single syllable.
	if got := Normalize(" \u1112\u1161\u11ab \n\t 글 "); got != "한 글" {
		t.Fatalf("unexpected normalize result %q", got)
	}
	if got := capRunes("가나다라", 2); got != "가나" {
		t.Fatalf("expected '가나', got %q", got)
	}
	if got := capRunes("가나", 5); got != "가나" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestNaverExtractor(t *testing.T) {
	ex := NaverExtractor{}
	if !ex.Supports("https://n.news.naver.com/mnews/article/001/0000001") {
		t.Fatal("expected naver url to be supported")
	}
	if ex.Supports("https://example.com/news") {
		t.Fatal("unexpected support for other hosts")
	}

	doc := parseDoc(t, `<html><body><div id="dic_area"><p>`+koreanBody+`</p><br><p>끝.</p></div><div>광고</div></body></html>`)
	text, err := ex.Extract(doc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "광고") || !strings.HasSuffix(text, "끝.") {
		t.Fatalf("unexpected body: %q", text)
	}
	if strings.Contains(text, "  ") {
		t.Fatalf("whitespace not collapsed: %q", text)
	}

	_, err = ex.Extract(parseDoc(t, `<div id="dic_area">짧다</div>`))
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestGenericExtractor_PicksKoreanBlock(t *testing.T) {
	english := strings.Repeat("Lorem ipsum dolor sit amet ", 12)
	doc := parseDoc(t, `<html><body>
<header>`+koreanBody+koreanBody+`</header>
<div class="ad">`+english+`</div>
<article>`+koreanBody+`</article>
</body></html>`)

	text, err := GenericExtractor{}.Extract(doc)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "Lorem") {
		t.Fatalf("expected the Korean article block, got %q", text)
	}
	if text != strings.TrimSpace(koreanBody) {
		t.Fatalf("unexpected text %q", text)
	}

	if _, err := (GenericExtractor{}).Extract(parseDoc(t, `<div>짧은 글</div>`)); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestGenericExtractor_CapsLength(t *testing.T) {
	long := strings.Repeat("가", MaxContentRunes+500)
	text, err := GenericExtractor{}.Extract(parseDoc(t, `<article>`+long+`</article>`))
	if err != nil {
		t.Fatal(err)
	}
	if n := utf8.RuneCountInString(text); n != MaxContentRunes {
		t.Fatalf("expected %d runes, got %d", MaxContentRunes, n)
	}
}

func TestSentenceCountAndHangulRatio(t *testing.T) {
	if n := sentenceCount("하나. 둘! 셋?"); n != 3 {
		t.Fatalf("expected 3 sentences, got %d", n)
	}
	if n := sentenceCount("끝..."); n != 1 {
		t.Fatalf("expected 1 sentence, got %d", n)
	}
	if r := hangulRatio("가 a"); r != 0.5 {
		t.Fatalf("expected 0.5, got %v", r)
	}
	if r := hangulRatio("   "); r != 0 {
		t.Fatalf("expected 0, got %v", r)
	}
}

func TestHTTPFetcher_DecodesEUCKR(t *testing.T) {
	page := `<html><head><title>경제 뉴스</title></head><body><article>` + koreanBody + `</article></body></html>`
	encoded, err := korean.EUCKR.NewEncoder().String(page)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write([]byte(encoded))
	}))
	defer srv.Close()

	res, err := NewHTTPFetcher(srv.Client()).Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "경제 뉴스" {
		t.Fatalf("expected decoded title, got %q", res.Title)
	}
	if !strings.Contains(res.RawHTML, "예산안") {
		t.Fatal("expected decoded body")
	}
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	f.sleep = func(time.Duration) {}
	res, err := f.Fetch(context.Background(), srv.URL, &FetchOptions{RetryCount: 2, Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	if res.Title != "ok" || calls.Load() != 3 {
		t.Fatalf("unexpected result %q after %d calls", res.Title, calls.Load())
	}
}

func TestHTTPFetcher_NoRetryOnNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.Client())
	f.sleep = func(time.Duration) {}
	if _, err := f.Fetch(context.Background(), srv.URL, &FetchOptions{RetryCount: 3}); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

type stubFetcher struct {
	page *FetchResult
	err  error
}

func (s stubFetcher) Fetch(context.Context, string, *FetchOptions) (*FetchResult, error) {
	return s.page, s.err
}

func TestRegistry_Extract(t *testing.T) {
	naverPage := `<html><body><div id="dic_area">` + koreanBody + `</div><article>` + koreanBody + koreanBody + `</article></body></html>`

	tests := []struct {
		name      string
		url       string
		fetcher   Fetcher
		ok        bool
		extractor string
		errText   string
	}{
		{"empty url", " ", stubFetcher{}, false, "none", "NO_URL"},
		{"fetch error", "https://a.example", stubFetcher{err: errors.New("dial")}, false, "none", "dial"},
		{"google link", "https://news.google.com/rss/articles/abc",
			stubFetcher{page: &FetchResult{FinalURL: "https://news.google.com/rss/articles/abc"}}, false, "google-skip", "GOOGLE_SKIP"},
		{"naver", "https://n.news.naver.com/article/1",
			stubFetcher{page: &FetchResult{FinalURL: "https://n.news.naver.com/article/1", RawHTML: naverPage}}, true, "naver", ""},
		{"generic", "https://news.example.com/1",
			stubFetcher{page: &FetchResult{RawHTML: naverPage}}, true, "generic", ""},
		{"too short", "https://news.example.com/2",
			stubFetcher{page: &FetchResult{RawHTML: "<p>짧다</p>"}}, false, "generic", ErrTooShort.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewRegistry(tt.fetcher, nil).Extract(context.Background(), tt.url)
			if res.OK != tt.ok || res.Extractor != tt.extractor {
				t.Fatalf("got ok=%v extractor=%q err=%q", res.OK, res.Extractor, res.Error)
			}
			if tt.errText != "" && !strings.Contains(res.Error, tt.errText) {
				t.Fatalf("expected error containing %q, got %q", tt.errText, res.Error)
			}
			if tt.ok && utf8.RuneCountInString(res.Content) < MinContentRunes {
				t.Fatalf("content too short: %d runes", utf8.RuneCountInString(res.Content))
			}
		})
	}
}
