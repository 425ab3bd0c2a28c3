package snapshot

import (
	"net/url"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

// AssetReference 文档中一处具体的资源引用, 收集时创建, 改写时消费一次
type AssetReference struct {
	Site        models.Site
	RawValue    string
	ResolvedURL string
	Fragment    string
	owner       owner
}

// owner 引用所在位置: 元素属性, 或CSS文本中的某个记号
type owner struct {
	node      *html.Node
	namespace string
	attr      string
	sheet     *Stylesheet
	token     int
}

// Node 引用所在元素, CSS文本中的引用返回样式表所属元素
func (r AssetReference) Node() *html.Node {
	if r.owner.node != nil {
		return r.owner.node
	}
	if r.owner.sheet != nil {
		return r.owner.sheet.node
	}
	return nil
}

// Attr 引用所在属性名, xlink 命名空间带前缀
func (r AssetReference) Attr() string {
	if r.owner.namespace != "" {
		return r.owner.namespace + ":" + r.owner.attr
	}
	return r.owner.attr
}

// localValue 改写后的值
func (r AssetReference) localValue(localName string) string {
	if r.Fragment != "" {
		return localName + "#" + r.Fragment
	}
	return localName
}

type sheetKind int

const (
	linkedSheet sheetKind = iota
	styleElement
	styleAttribute
)

// Stylesheet 一段可改写的CSS文本: 外链样式表正文、<style> 块或 style 属性
type Stylesheet struct {
	URL   string // 外链样式表的规范化URL
	Base  *url.URL
	Media string

	kind sheetKind
	node *html.Node
	text *cssText
}

// NewLinkedStylesheet 外链样式表, url() 相对 baseURL (重定向后的实际地址) 解析
func NewLinkedStylesheet(canonicalURL, baseURL string, body []byte, link *html.Node) *Stylesheet {
	if baseURL == "" {
		baseURL = canonicalURL
	}
	base, _ := url.Parse(baseURL)
	media, _ := getAttr(link, "", "media")
	return &Stylesheet{
		URL:   canonicalURL,
		Base:  base,
		Media: strings.TrimSpace(media),
		kind:  linkedSheet,
		node:  link,
		text:  tokenizeCSS(decodeStylesheet(body)),
	}
}

func newStyleElementSheet(n *html.Node, base *url.URL) *Stylesheet {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return &Stylesheet{Base: base, kind: styleElement, node: n, text: tokenizeCSS(b.String())}
}

func newStyleAttributeSheet(n *html.Node, style string, base *url.URL) *Stylesheet {
	return &Stylesheet{Base: base, kind: styleAttribute, node: n, text: tokenizeCSS(style)}
}

// String 当前(含已替换记号)的CSS文本
func (s *Stylesheet) String() string {
	return s.text.String()
}

// flush 将改写结果写回文档; 外链样式表进入聚合, 不写回
func (s *Stylesheet) flush() {
	if len(s.text.replacements) == 0 {
		return
	}
	switch s.kind {
	case styleElement:
		for c := s.node.FirstChild; c != nil; {
			next := c.NextSibling
			s.node.RemoveChild(c)
			c = next
		}
		s.node.AppendChild(&html.Node{Type: html.TextNode, Data: s.String()})
	case styleAttribute:
		setAttr(s.node, "", "style", s.String())
	}
}

// aggregateParts 聚合时的开头语句和正文
// @import 只在样式表开头有效, 需要提到聚合文件顶部; 非 all 的 media 包装正文并附加到 @import 上
func (s *Stylesheet) aggregateParts() (charset string, imports []string, body string) {
	charset, imports, rest := s.text.prelude()
	body = strings.TrimSpace(rest)

	media := s.Media
	if media == "" || strings.EqualFold(media, "all") {
		return charset, imports, body
	}
	for i, stmt := range imports {
		imports[i] = importWithMedia(stmt, media)
	}
	if body != "" {
		body = "@media " + media + " {\n" + body + "\n}"
	}
	return charset, imports, body
}

// importWithMedia 为没有媒体查询的 @import 附加 media; 已有条件的保持原样
func importWithMedia(stmt, media string) string {
	t := tokenizeCSS(strings.TrimSuffix(stmt, ";"))
	seenTarget := false
	for _, tok := range t.tokens[1:] {
		switch tok.typ {
		case css.WhitespaceToken, css.CommentToken:
		case css.URLToken, css.StringToken:
			if seenTarget {
				return stmt
			}
			seenTarget = true
		default:
			return stmt
		}
	}
	return strings.TrimSuffix(stmt, ";") + " " + media + ";"
}

// decodeStylesheet 去掉UTF-8 BOM
func decodeStylesheet(body []byte) string {
	return strings.TrimPrefix(string(body), "\ufeff")
}
