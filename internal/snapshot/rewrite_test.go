package snapshot

import (
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

const rewritePage = `<html><head>
<link rel="stylesheet" href="/css/main.css">
<link rel="stylesheet" href="/css/print.css" media="print">
<link rel="stylesheet" href="/css/broken.css">
<style>.a{background:url(img/a.png)} .b{background:url(img/ba.png)}</style>
</head><body>
<img src="img/a.png" srcset="img/a@2x.png 2x" data-src="img/lazy.png">
<img src="img/missing.png">
<div style="background: url(img/a.png)"></div>
<svg><image href="img/sprite.svg#icon"></image></svg>
</body></html>`

// buildManifest 走一遍收集流程, bodies 中的URL视为抓取成功, 其余失败
func buildManifest(t *testing.T, page string, bodies map[string]string) (*goquery.Document, *Manifest) {
	t.Helper()
	doc := mustParse(t, page)
	base := mustURL(t, "https://example.com/")
	m := NewManifest("test", base, "", doc)

	settle := func() {
		for _, rec := range m.Pending(nil) {
			if body, ok := bodies[rec.CanonicalURL]; ok {
				rec.MarkFetched([]byte(body), "")
			} else {
				rec.MarkFailed(errors.New("HTTP 404"))
			}
		}
	}

	c := NewCollector()
	m.Register(c.CollectHTML(doc, base))
	settle()
	sheets := append(m.LinkedStylesheets(), StyleElements(doc, base)...)
	m.Register(c.CollectCSS(sheets))
	settle()
	AssignNames(m.Records())
	return doc, m
}

func attrOf(t *testing.T, s *goquery.Selection, name string) string {
	t.Helper()
	v, _ := s.Attr(name)
	return v
}

func TestRewrite(t *testing.T) {
	doc, m := buildManifest(t, rewritePage, map[string]string{
		"https://example.com/css/main.css":   "body{background:url(../img/bg.png)}",
		"https://example.com/css/print.css":  "p{color:black}",
		"https://example.com/img/a.png":      "A",
		"https://example.com/img/sprite.svg": "<svg/>",
		"https://example.com/img/bg.png":     "BG",
	})

	Rewrite(m)

	imgs := doc.Find("img")
	first := imgs.Eq(0)
	if got := attrOf(t, first, "src"); got != "a.png" {
		t.Errorf("img src = %q, 期望 a.png", got)
	}
	for _, name := range []string{"srcset", "data-src"} {
		if _, ok := first.Attr(name); ok {
			t.Errorf("改写后应移除 %s", name)
		}
	}
	if got := attrOf(t, imgs.Eq(1), "src"); got != "img/missing.png" {
		t.Errorf("失败资源的引用应保持原样, 得到 %q", got)
	}

	if got := attrOf(t, doc.Find("div"), "style"); got != `background: url("a.png")` {
		t.Errorf("内联背景改写错误: %q", got)
	}
	if got := attrOf(t, doc.Find("image"), "href"); got != "sprite.svg#icon" {
		t.Errorf("SVG 片段应保留: %q", got)
	}

	wantStyle := `.a{background:url("a.png")} .b{background:url(img/ba.png)}`
	if got := doc.Find("style").Text(); got != wantStyle {
		t.Errorf("<style> 改写错误:\n得到 %s\n期望 %s", got, wantStyle)
	}

	wantCSS := []string{`body{background:url("bg.png")}`, "@media print {\np{color:black}\n}"}
	if len(m.AggregateCSS) != len(wantCSS) {
		t.Fatalf("聚合样式表段数 %d, 期望 %d", len(m.AggregateCSS), len(wantCSS))
	}
	for i := range wantCSS {
		if m.AggregateCSS[i] != wantCSS[i] {
			t.Errorf("第%d段: 得到 %q, 期望 %q", i, m.AggregateCSS[i], wantCSS[i])
		}
	}

	links := doc.Find("link")
	if links.Length() != 2 {
		t.Fatalf("应剩余2个链接(聚合文件 + 失败的链接), 得到 %d", links.Length())
	}
	if got := attrOf(t, links.Eq(0), "href"); got != StylesheetFileName {
		t.Errorf("第一个链接应指向聚合样式表: %q", got)
	}
	if _, ok := links.Eq(0).Attr("media"); ok {
		t.Error("聚合链接不应保留 media")
	}
	if got := attrOf(t, links.Eq(1), "href"); got != "/css/broken.css" {
		t.Errorf("失败的样式表链接应保持原样: %q", got)
	}
}

func TestRewrite_WriteErrorKeepsReference(t *testing.T) {
	doc, m := buildManifest(t, `<img src="/a.png">`, map[string]string{
		"https://example.com/a.png": "A",
	})
	m.Record("https://example.com/a.png").WriteErr = errors.New("disk full")

	Rewrite(m)

	if got := attrOf(t, doc.Find("img"), "src"); got != "/a.png" {
		t.Errorf("未落盘的资源不应改写: %q", got)
	}
	fetched, failed := m.Counts()
	if fetched != 0 || failed != 1 {
		t.Errorf("计数错误: fetched=%d failed=%d", fetched, failed)
	}
}

func TestRewrite_EmptyStylesheets(t *testing.T) {
	doc, m := buildManifest(t, `<html><head><link rel="stylesheet" href="/empty.css"><link rel="stylesheet" href="/blank.css"></head></html>`,
		map[string]string{
			"https://example.com/empty.css": "",
			"https://example.com/blank.css": "  \n",
		})

	Rewrite(m)

	if len(m.AggregateCSS) != 0 {
		t.Errorf("不应生成聚合样式表: %v", m.AggregateCSS)
	}
	if n := doc.Find("link").Length(); n != 0 {
		t.Errorf("空样式表的链接应全部移除, 剩余 %d", n)
	}
}

func TestRewrite_SharedAssetOneRecord(t *testing.T) {
	doc, m := buildManifest(t, `<img src="/a.png"><img src="https://EXAMPLE.com/a.png"><p style="background:url(/a.png#x)"></p>`,
		map[string]string{"https://example.com/a.png": "A"})

	if n := len(m.Records()); n != 1 {
		t.Fatalf("同一资源应只有一条记录, 得到 %d", n)
	}
	Rewrite(m)

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if got := attrOf(t, s, "src"); got != "a.png" {
			t.Errorf("第%d个img: %q", i, got)
		}
	})
	if got := attrOf(t, doc.Find("p"), "style"); got != `background:url("a.png#x")` {
		t.Errorf("得到 %q", got)
	}
	if sites := m.Sites("https://example.com/a.png"); len(sites) != 2 ||
		sites[0] != models.ImgAttribute || sites[1] != models.InlineStyleBackground {
		t.Errorf("引用位置错误: %v", sites)
	}
}

func TestRewrite_ImportsHoisted(t *testing.T) {
	page := `<html><head>
<link rel="stylesheet" href="/css/base.css">
<link rel="stylesheet" href="/css/theme.css">
<link rel="stylesheet" href="/css/print.css" media="print">
</head><body></body></html>`
	doc, m := buildManifest(t, page, map[string]string{
		"https://example.com/css/base.css":  `@charset "utf-8"; body{margin:0}`,
		"https://example.com/css/theme.css": "@charset \"utf-8\";\n@import url(\"fonts.css\");\n/* c */ @import url(extra.css) screen;\nh1{color:red}",
		"https://example.com/css/print.css": `@import "paper.css"; p{color:black}`,
		"https://example.com/css/fonts.css": "@font-face{font-family:f}",
		"https://example.com/css/extra.css": ".x{}",
	})

	Rewrite(m)

	want := []string{
		"@charset \"utf-8\";\n@import url(\"fonts.css\");\n@import url(\"extra.css\") screen;\n@import \"paper.css\" print;",
		"body{margin:0}",
		"h1{color:red}",
		"@media print {\np{color:black}\n}",
	}
	if len(m.AggregateCSS) != len(want) {
		t.Fatalf("聚合样式表段数 = %d, 期望 %d: %q", len(m.AggregateCSS), len(want), m.AggregateCSS)
	}
	for i := range want {
		if m.AggregateCSS[i] != want[i] {
			t.Errorf("第%d段 = %q, 期望 %q", i, m.AggregateCSS[i], want[i])
		}
	}
	if n := doc.Find("link").Length(); n != 1 {
		t.Errorf("应只剩一个样式表链接, 剩余 %d", n)
	}
}

func TestImportWithMedia(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want string
	}{
		{"url目标", `@import url("a.css");`, `@import url("a.css") print;`},
		{"字符串目标", `@import "a.css";`, `@import "a.css" print;`},
		{"已有媒体查询", `@import url(a.css) screen;`, `@import url(a.css) screen;`},
		{"已有layer", `@import url(a.css) layer(base);`, `@import url(a.css) layer(base);`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := importWithMedia(tt.stmt, "print"); got != tt.want {
				t.Errorf("得到 %q, 期望 %q", got, tt.want)
			}
		})
	}
}
