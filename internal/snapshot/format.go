package snapshot

import (
	"strings"

	"github.com/aymerick/douceur/parser"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

const indentUnit = "  "

// 内容按原样输出的元素
var rawElements = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
}

// 行内元素: 容器中出现它们时整个容器按原样输出, 不改变空白
var inlineElements = map[string]bool{
	"a": true, "abbr": true, "audio": true, "b": true, "bdi": true, "bdo": true, "br": true,
	"button": true, "canvas": true, "cite": true, "code": true, "data": true, "dfn": true,
	"em": true, "embed": true, "i": true, "iframe": true, "img": true, "input": true,
	"kbd": true, "label": true, "mark": true, "meter": true, "object": true, "output": true,
	"picture": true, "progress": true, "q": true, "ruby": true, "s": true, "samp": true,
	"select": true, "slot": true, "small": true, "span": true, "strong": true, "sub": true,
	"sup": true, "svg": true, "math": true, "time": true, "u": true, "var": true,
	"video": true, "wbr": true,
}

// FormatHTML 两空格缩进重新序列化文档
// 块级容器的子节点各占一行; 含行内内容的元素和原样元素整体输出
func FormatHTML(root *html.Node) string {
	var b strings.Builder
	formatNode(&b, root, 0)
	return b.String()
}

func formatNode(b *strings.Builder, n *html.Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			formatNode(b, c, depth)
		}
	case html.DoctypeNode, html.CommentNode:
		b.WriteString(indent)
		renderVerbatim(b, n)
		b.WriteByte('\n')
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			b.WriteString(indent)
			b.WriteString(html.EscapeString(text))
			b.WriteByte('\n')
		}
	case html.ElementNode:
		b.WriteString(indent)
		if n.FirstChild == nil || rawElements[n.Data] || n.Namespace != "" || hasInlineContent(n) {
			renderVerbatim(b, n)
			b.WriteByte('\n')
			return
		}
		writeStartTag(b, n)
		b.WriteByte('\n')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			formatNode(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("</" + n.Data + ">\n")
	}
}

func hasInlineContent(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		case html.ElementNode:
			if inlineElements[c.Data] {
				return true
			}
		}
	}
	return false
}

func renderVerbatim(b *strings.Builder, n *html.Node) {
	if err := html.Render(b, n); err != nil {
		utils.Debugf("序列化节点失败 <%s>: %v", n.Data, err)
	}
}

func writeStartTag(b *strings.Builder, n *html.Node) {
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

// FormatCSS 用 douceur 重新排版样式表
// 遇到 douceur 处理不了的块嵌套(如 @layer 或嵌套规则)或解析失败时, 按记号重新缩进
func FormatCSS(text string) (out string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if !douceurSupports(text) {
		return indentCSS(text)
	}
	defer func() {
		if r := recover(); r != nil {
			utils.Debugf("CSS排版失败, 改为按记号缩进: %v", r)
			out = indentCSS(text)
		}
	}()

	sheet, err := parser.Parse(text)
	if err != nil || sheet == nil || len(sheet.Rules) == 0 {
		if err != nil {
			utils.Debugf("CSS解析失败, 改为按记号缩进: %v", err)
		}
		return indentCSS(text)
	}
	return sheet.String() + "\n"
}

// douceur 只把这些 at-rule 的块当作规则列表, 其余都按声明块解析
var rulesBlockAtRules = map[string]bool{
	"@document":            true,
	"@font-feature-values": true,
	"@keyframes":           true,
	"@media":               true,
	"@supports":            true,
}

// douceurSupports 声明块里不再出现 { 时 douceur 才能正确排版
func douceurSupports(text string) bool {
	lexer := css.NewLexer(parse.NewInputString(text))
	var rulesBlock []bool
	atRule := ""
	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			return true
		case css.AtKeywordToken:
			if atRule == "" {
				atRule = string(data)
			}
		case css.LeftBraceToken:
			if n := len(rulesBlock); n > 0 && !rulesBlock[n-1] {
				return false
			}
			rulesBlock = append(rulesBlock, rulesBlockAtRules[atRule])
			atRule = ""
		case css.RightBraceToken:
			if n := len(rulesBlock); n > 0 {
				rulesBlock = rulesBlock[:n-1]
			}
			atRule = ""
		case css.SemicolonToken:
			atRule = ""
		}
	}
}

// indentCSS 按记号重新缩进: 每个块和声明各占一行, 空白折叠为一个空格
func indentCSS(text string) string {
	lexer := css.NewLexer(parse.NewInputString(text))
	var b strings.Builder
	depth := 0
	lineStart, space := true, false
	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			return strings.TrimSpace(b.String()) + "\n"
		case css.WhitespaceToken:
			space = true
			continue
		case css.LeftBraceToken:
			if lineStart {
				b.WriteString(strings.Repeat(indentUnit, depth))
			} else {
				b.WriteByte(' ')
			}
			b.WriteString("{\n")
			depth++
			lineStart = true
		case css.RightBraceToken:
			if !lineStart {
				b.WriteByte('\n')
			}
			if depth > 0 {
				depth--
			}
			b.WriteString(strings.Repeat(indentUnit, depth))
			b.WriteString("}\n")
			lineStart = true
		case css.SemicolonToken:
			b.WriteString(";\n")
			lineStart = true
		default:
			if lineStart {
				b.WriteString(strings.Repeat(indentUnit, depth))
			} else if space {
				b.WriteByte(' ')
			}
			b.Write(data)
			lineStart = false
		}
		space = false
	}
}

// FormatStylesheets 逐段排版并拼接聚合样式表
func FormatStylesheets(parts []string) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		if f := FormatCSS(part); f != "" {
			formatted = append(formatted, f)
		}
	}
	return strings.Join(formatted, "\n")
}
