package snapshot

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// Rewrite 将可用记录的引用改写为本地名称, 并生成聚合样式表各段
// 不可用的记录对应的引用保持原样; 每个引用只在自己的位置上替换
func Rewrite(m *Manifest) {
	touched := make(map[*Stylesheet]bool)
	var links []AssetReference

	for _, ref := range m.References() {
		if ref.Site == models.StylesheetLink {
			links = append(links, ref)
			continue
		}
		rec := m.Record(ref.ResolvedURL)
		if rec == nil || !rec.Usable() || rec.LocalName == "" {
			continue
		}
		local := ref.localValue(rec.LocalName)

		switch ref.Site {
		case models.ImgAttribute:
			n := ref.owner.node
			setAttr(n, "", "src", local)
			for _, attr := range LazyImageAttributes {
				removeAttr(n, "", attr)
			}
			for _, attr := range responsiveImageAttributes {
				removeAttr(n, "", attr)
			}
		case models.SvgHref:
			setAttr(ref.owner.node, ref.owner.namespace, ref.owner.attr, local)
		case models.InlineStyleBackground, models.CssUrlFunction:
			ref.owner.sheet.text.replace(ref.owner.token, local)
			touched[ref.owner.sheet] = true
		}
	}

	for sheet := range touched {
		sheet.flush()
	}

	m.AggregateCSS = aggregateStylesheets(m, links)
}

// aggregateStylesheets 已抓取的样式表按链接顺序并入聚合样式表
// 第一个已抓取的链接改为指向聚合文件, 其余已抓取链接移除, 失败的链接保持原样
func aggregateStylesheets(m *Manifest, links []AssetReference) []string {
	var parts, prelude []string
	var charset string
	var primary *html.Node
	included := make(map[string]bool)

	for _, ref := range links {
		rec := m.Record(ref.ResolvedURL)
		sheet := m.Stylesheet(ref.ResolvedURL)
		if rec == nil || !rec.Usable() || sheet == nil {
			continue
		}

		if !included[ref.ResolvedURL] {
			included[ref.ResolvedURL] = true
			cs, imports, body := sheet.aggregateParts()
			if charset == "" && len(parts) == 0 && len(prelude) == 0 {
				charset = cs
			}
			prelude = append(prelude, imports...)
			if body != "" {
				parts = append(parts, body)
			}
		}

		n := ref.owner.node
		if primary == nil {
			primary = n
			continue
		}
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	// @charset 和全部 @import 放在最前, 顺序与收集顺序一致
	if charset != "" {
		prelude = append([]string{charset}, prelude...)
	}
	if len(prelude) > 0 {
		parts = append([]string{strings.Join(prelude, "\n")}, parts...)
	}

	if primary != nil {
		if len(parts) == 0 {
			// 样式表全为空, 不生成聚合文件
			if primary.Parent != nil {
				primary.Parent.RemoveChild(primary)
			}
		} else {
			primary.Attr = []html.Attribute{
				{Key: "rel", Val: "stylesheet"},
				{Key: "href", Val: StylesheetFileName},
			}
		}
	}

	utils.Debugf("聚合样式表: %d 段", len(parts))
	return parts
}
