package snapshot

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

var errEmptyDocument = errors.New("页面内容为空")

// ParseDocument 宽松解析HTML文档
func ParseDocument(markup string) (*goquery.Document, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, models.NewCloneError(models.KindParse, "", errEmptyDocument)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, models.NewCloneError(models.KindParse, "", err)
	}
	return doc, nil
}

// DocumentBase 计算文档基准URL: 有 <base href> 时以其为准
func DocumentBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	ref, err := url.Parse(strings.Trim(href, htmlSpace))
	if err != nil {
		return pageURL
	}
	base := pageURL.ResolveReference(ref)
	if base.Scheme != "http" && base.Scheme != "https" {
		return pageURL
	}
	return base
}

// RemoveBase 移除 <base>, 否则镜像中的本地名称会解析回原站
func RemoveBase(doc *goquery.Document) int {
	sel := doc.Find("base")
	n := sel.Length()
	sel.Remove()
	return n
}

// getAttr 按命名空间读取属性
func getAttr(n *html.Node, namespace, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == namespace && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// setAttr 按命名空间写属性, 不存在时追加
func setAttr(n *html.Node, namespace, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == namespace && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Namespace: namespace, Key: key, Val: val})
}

// removeAttr 按命名空间删除属性
func removeAttr(n *html.Node, namespace, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == namespace && strings.EqualFold(a.Key, key) {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// relTokens rel 属性按空白拆分的小写词
func relTokens(n *html.Node) []string {
	rel, _ := getAttr(n, "", "rel")
	return strings.Fields(strings.ToLower(rel))
}

func isStylesheetLink(n *html.Node) bool {
	stylesheet := false
	for _, tok := range relTokens(n) {
		switch tok {
		case "stylesheet":
			stylesheet = true
		case "alternate":
			return false
		}
	}
	return stylesheet
}
