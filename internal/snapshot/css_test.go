package snapshot

import (
	"strings"
	"testing"
)

func TestTokenizeCSS_Lossless(t *testing.T) {
	inputs := []string{
		"body { background: url(bg.png) no-repeat; }",
		"/* 注释 */ @media print { .a { color: red } }",
		`@font-face { src: url("f.woff2") format("woff2"), url('f.woff') }`,
		".x{background-image:url( \"a b.png\" )}",
		"",
	}
	for _, in := range inputs {
		if got := tokenizeCSS(in).String(); got != in {
			t.Errorf("重新拼接不一致:\n输入 %q\n输出 %q", in, got)
		}
	}
}

func TestCSSText_URLs(t *testing.T) {
	text := tokenizeCSS(`a{b:url(one.png)} c{d:url("two.png")} e{f:url( 'three.png' )}`)

	var got []string
	for _, u := range text.urls() {
		got = append(got, u.value)
	}
	want := []string{"one.png", "two.png", "three.png"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("url() 提取错误: 得到 %v, 期望 %v", got, want)
	}
}

func TestCSSText_ReplaceIsIndexed(t *testing.T) {
	src := `.a{background:url(a.png)} .b{background:url(ba.png)} .c{background:url(a.png)}`
	text := tokenizeCSS(src)
	urls := text.urls()
	if len(urls) != 3 {
		t.Fatalf("期望3个url(), 得到 %d", len(urls))
	}

	// 只替换第一个, 同名的第三个和包含子串的第二个都不受影响
	text.replace(urls[0].index, "a_local.png")

	want := `.a{background:url("a_local.png")} .b{background:url(ba.png)} .c{background:url(a.png)}`
	if got := text.String(); got != want {
		t.Errorf("替换结果错误:\n得到 %s\n期望 %s", got, want)
	}
}

func TestCSSText_BackgroundURLs(t *testing.T) {
	text := tokenizeCSS(`color: red; background: #fff url(bg.png); mask-image: url(mask.png); BACKGROUND-IMAGE: url('hero.jpg')`)

	var got []string
	for _, u := range text.backgroundURLs() {
		got = append(got, u.value)
	}
	want := []string{"bg.png", "hero.jpg"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("背景url提取错误: 得到 %v, 期望 %v", got, want)
	}
}

func TestUnescapeCSS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.png", "plain.png"},
		{`a\ b.png`, "a b.png"},
		{`\61 .png`, "a.png"},
		{`x\"y`, `x"y`},
	}
	for _, tt := range tests {
		if got := unescapeCSS(tt.in); got != tt.want {
			t.Errorf("unescapeCSS(%q) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}

func TestCSSText_Prelude(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		charset string
		imports []string
		rest    string
	}{
		{"无开头语句", "a{color:red}", "", nil, "a{color:red}"},
		{"charset和import", "@charset \"utf-8\";\n@import url(a.css);\na{}", `@charset "utf-8";`, []string{"@import url(a.css);"}, "\na{}"},
		{"注释之后的import", `/* x */ @import "b.css" screen; b{}`, "", []string{`@import "b.css" screen;`}, " b{}"},
		{"import之后的charset丢弃", `@import url(a.css); @charset "utf-8"; a{}`, "", []string{"@import url(a.css);"}, " a{}"},
		{"规则之后的import不提取", `a{} @import url(a.css);`, "", nil, `a{} @import url(a.css);`},
		{"缺少分号", `@import url(a.css)`, "", []string{"@import url(a.css);"}, ""},
		{"其他at-rule结束开头", `@media print{a{}} @import url(a.css);`, "", nil, `@media print{a{}} @import url(a.css);`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			charset, imports, rest := tokenizeCSS(tt.src).prelude()
			if charset != tt.charset {
				t.Errorf("charset = %q, 期望 %q", charset, tt.charset)
			}
			if strings.Join(imports, "|") != strings.Join(tt.imports, "|") {
				t.Errorf("imports = %q, 期望 %q", imports, tt.imports)
			}
			if rest != tt.rest {
				t.Errorf("rest = %q, 期望 %q", rest, tt.rest)
			}
		})
	}
}

func TestCSSText_PreludeKeepsReplacements(t *testing.T) {
	text := tokenizeCSS(`@import url(a.css); a{background:url(b.png)}`)
	urls := text.urls()
	text.replace(urls[0].index, "a-1.css")
	text.replace(urls[1].index, "b.png")

	_, imports, rest := text.prelude()
	if len(imports) != 1 || imports[0] != `@import url("a-1.css");` {
		t.Errorf("imports = %q", imports)
	}
	if rest != ` a{background:url("b.png")}` {
		t.Errorf("rest = %q", rest)
	}
}
