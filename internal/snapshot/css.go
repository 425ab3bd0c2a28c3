package snapshot

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// cssToken 词法记号
type cssToken struct {
	typ  css.TokenType
	text string
}

// cssText 分词后的CSS文本
// 词法器无损: 所有记号按序拼接即为原文, 改写只替换指定下标的 url() 记号
type cssText struct {
	tokens       []cssToken
	replacements map[int]string
}

// cssURL 一个 url() 记号
type cssURL struct {
	index int
	value string
}

func tokenizeCSS(src string) *cssText {
	t := &cssText{replacements: make(map[int]string)}
	lexer := css.NewLexer(parse.NewInputString(src))
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		t.tokens = append(t.tokens, cssToken{typ: tt, text: string(data)})
	}
	return t
}

// urls 按出现顺序返回所有 url() 记号
func (t *cssText) urls() []cssURL {
	var out []cssURL
	for i, tok := range t.tokens {
		if tok.typ == css.URLToken {
			out = append(out, cssURL{index: i, value: unwrapURLToken(tok.text)})
		}
	}
	return out
}

// replace 将第 index 个记号替换为指向 localName 的 url()
func (t *cssText) replace(index int, localName string) {
	t.replacements[index] = `url("` + localName + `")`
}

// String 重新拼接, 未替换的记号保持原样
func (t *cssText) String() string {
	return t.join(0)
}

// tokenString 第 i 个记号的当前文本
func (t *cssText) tokenString(i int) string {
	if r, ok := t.replacements[i]; ok {
		return r
	}
	return t.tokens[i].text
}

// prelude 拆出开头的 @charset 和 @import 语句, 返回各语句与剩余文本
// 语句之间的空白和注释不保留
func (t *cssText) prelude() (charset string, imports []string, rest string) {
	i := 0
	restStart := 0
	for i < len(t.tokens) {
		switch t.tokens[i].typ {
		case css.WhitespaceToken, css.CommentToken, css.CDOToken, css.CDCToken:
			i++
			continue
		case css.AtKeywordToken:
		default:
			return charset, imports, t.join(restStart)
		}

		keyword := strings.ToLower(t.tokens[i].text)
		if keyword != "@charset" && keyword != "@import" {
			break
		}
		var b strings.Builder
		j := i
		for ; j < len(t.tokens); j++ {
			b.WriteString(t.tokenString(j))
			if t.tokens[j].typ == css.SemicolonToken {
				j++
				break
			}
		}
		stmt := strings.TrimSpace(b.String())
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		if keyword == "@charset" {
			if charset == "" && len(imports) == 0 {
				charset = stmt
			}
		} else {
			imports = append(imports, stmt)
		}
		i, restStart = j, j
	}
	return charset, imports, t.join(restStart)
}

func (t *cssText) join(from int) string {
	var b strings.Builder
	for i := from; i < len(t.tokens); i++ {
		b.WriteString(t.tokenString(i))
	}
	return b.String()
}

// backgroundURLs 内联style中 background/background-image 声明里的 url() 记号
func (t *cssText) backgroundURLs() []cssURL {
	var out []cssURL
	property := ""
	afterColon := false
	for i, tok := range t.tokens {
		switch tok.typ {
		case css.IdentToken:
			if !afterColon {
				property = strings.ToLower(tok.text)
			}
		case css.ColonToken:
			afterColon = true
		case css.SemicolonToken:
			property, afterColon = "", false
		case css.URLToken:
			if afterColon && (property == "background" || property == "background-image") {
				out = append(out, cssURL{index: i, value: unwrapURLToken(tok.text)})
			}
		}
	}
	return out
}

// unwrapURLToken url( "a.png" ) -> a.png
func unwrapURLToken(token string) string {
	s := token
	if len(s) >= 4 && strings.EqualFold(s[:4], "url(") {
		s = s[4:]
	}
	s = strings.TrimSuffix(s, ")")
	s = strings.Trim(s, htmlSpace)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return unescapeCSS(s)
}

// unescapeCSS 处理反斜杠转义, 十六进制转义按码点解码
func unescapeCSS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		j := i
		for j < len(s) && j-i < 6 && isHex(s[j]) {
			j++
		}
		if j == i {
			if s[i] != '\n' {
				b.WriteByte(s[i])
			}
			continue
		}
		var r rune
		for _, c := range s[i:j] {
			r = r*16 + rune(hexValue(byte(c)))
		}
		if r == 0 || r > 0x10FFFF {
			r = '\uFFFD'
		}
		b.WriteRune(r)
		if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		i = j - 1
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
