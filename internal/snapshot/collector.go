package snapshot

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// LazyImageAttributes src 缺失或为空时按此顺序回退的懒加载属性
var LazyImageAttributes = []string{"data-src", "data-lazy-src", "data-original", "data-lazy", "data-url"}

// responsiveImageAttributes 改写成功后一并移除, 避免浏览器继续加载远程候选
var responsiveImageAttributes = []string{"srcset", "data-srcset"}

// Collector 从文档和CSS文本中收集资源引用
// 单线程使用; 解析失败的引用被丢弃并记录在 Errors 中
type Collector struct {
	Errors []error
}

// NewCollector 创建收集器
func NewCollector() *Collector {
	return &Collector{}
}

// Collect 完整收集: 样式表链接 -> 图片 -> 内联style背景 -> SVG图片 -> CSS url()
func (c *Collector) Collect(doc *goquery.Document, sheets []*Stylesheet, base *url.URL) []AssetReference {
	refs := c.CollectHTML(doc, base)
	return append(refs, c.CollectCSS(sheets)...)
}

// CollectHTML 收集文档属性中的引用, 按位置类型分组, 组内为文档顺序
func (c *Collector) CollectHTML(doc *goquery.Document, base *url.URL) []AssetReference {
	var refs []AssetReference

	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if !isStylesheetLink(n) {
			return
		}
		href, _ := getAttr(n, "", "href")
		if ref, ok := c.attributeReference(models.StylesheetLink, n, "", "href", href, base); ok {
			refs = append(refs, ref)
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		attr, value := chooseImageAttribute(n)
		if attr == "" {
			return
		}
		if ref, ok := c.attributeReference(models.ImgAttribute, n, "", attr, value, base); ok {
			refs = append(refs, ref)
		}
	})

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		style, _ := getAttr(n, "", "style")
		if !strings.Contains(strings.ToLower(style), "url(") {
			return
		}
		sheet := newStyleAttributeSheet(n, style, base)
		for _, u := range sheet.text.backgroundURLs() {
			if ref, ok := c.tokenReference(models.InlineStyleBackground, sheet, u); ok {
				ref.owner.node = n
				ref.owner.attr = "style"
				refs = append(refs, ref)
			}
		}
	})

	doc.Find("image").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if n.Namespace != "svg" {
			return
		}
		namespace, value := "", ""
		if v, ok := getAttr(n, "", "href"); ok && strings.Trim(v, htmlSpace) != "" {
			value = v
		} else if v, ok := getAttr(n, "xlink", "href"); ok {
			namespace, value = "xlink", v
		}
		if ref, ok := c.attributeReference(models.SvgHref, n, namespace, "href", value, base); ok {
			refs = append(refs, ref)
		}
	})

	return refs
}

// StyleElements 文档中的 <style> 块, url() 相对文档基准解析
func StyleElements(doc *goquery.Document, base *url.URL) []*Stylesheet {
	var sheets []*Stylesheet
	doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		sheets = append(sheets, newStyleElementSheet(s.Get(0), base))
	})
	return sheets
}

// CollectCSS 收集样式表文本中的全部 url() 记号
func (c *Collector) CollectCSS(sheets []*Stylesheet) []AssetReference {
	var refs []AssetReference
	for _, sheet := range sheets {
		for _, u := range sheet.text.urls() {
			if ref, ok := c.tokenReference(models.CssUrlFunction, sheet, u); ok {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func (c *Collector) attributeReference(site models.Site, n *html.Node, namespace, attr, raw string, base *url.URL) (AssetReference, bool) {
	res, ok := c.resolve(raw, base)
	if !ok {
		return AssetReference{}, false
	}
	return AssetReference{
		Site:        site,
		RawValue:    raw,
		ResolvedURL: res.URL,
		Fragment:    res.Fragment,
		owner:       owner{node: n, namespace: namespace, attr: attr},
	}, true
}

func (c *Collector) tokenReference(site models.Site, sheet *Stylesheet, u cssURL) (AssetReference, bool) {
	res, ok := c.resolve(u.value, sheet.Base)
	if !ok {
		return AssetReference{}, false
	}
	return AssetReference{
		Site:        site,
		RawValue:    sheet.text.tokens[u.index].text,
		ResolvedURL: res.URL,
		Fragment:    res.Fragment,
		owner:       owner{sheet: sheet, token: u.index},
	}, true
}

func (c *Collector) resolve(raw string, base *url.URL) (Resolution, bool) {
	res, err := Resolve(raw, base)
	if err != nil {
		utils.Debugf("丢弃无法解析的引用 [%s]: %v", raw, err)
		c.Errors = append(c.Errors, err)
		return Resolution{}, false
	}
	return res, !res.Skip
}

// chooseImageAttribute src 优先, 缺失或为空时依次回退懒加载属性
func chooseImageAttribute(n *html.Node) (attr, value string) {
	for _, name := range append([]string{"src"}, LazyImageAttributes...) {
		if v, ok := getAttr(n, "", name); ok && strings.Trim(v, htmlSpace) != "" {
			return name, v
		}
	}
	return "", ""
}
