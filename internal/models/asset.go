package models

import "fmt"

// Site 资源引用出现的位置类型
type Site int

const (
	// StylesheetLink <link rel="stylesheet" href>
	StylesheetLink Site = iota
	// ImgAttribute <img src> 及懒加载属性
	ImgAttribute
	// InlineStyleBackground style属性中 background/background-image 的 url()
	InlineStyleBackground
	// SvgHref SVG <image> 的 href / xlink:href
	SvgHref
	// CssUrlFunction 样式表文本中的 url() 记号
	CssUrlFunction
)

// String 返回位置类型名称
func (s Site) String() string {
	switch s {
	case StylesheetLink:
		return "stylesheet_link"
	case ImgAttribute:
		return "img_attribute"
	case InlineStyleBackground:
		return "inline_style_background"
	case SvgHref:
		return "svg_href"
	case CssUrlFunction:
		return "css_url_function"
	default:
		return fmt.Sprintf("site(%d)", int(s))
	}
}

// MarshalText 用于JSON报告
func (s Site) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 解析位置类型名称
func (s *Site) UnmarshalText(text []byte) error {
	for _, candidate := range []Site{StylesheetLink, ImgAttribute, InlineStyleBackground, SvgHref, CssUrlFunction} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("未知的引用位置: %s", text)
}

// AssetStatus 资源记录状态
// 状态机: Pending -> Fetched | Failed, 两个终态之后不再迁移
type AssetStatus string

const (
	AssetPending AssetStatus = "pending"
	AssetFetched AssetStatus = "fetched"
	AssetFailed  AssetStatus = "failed"
)

// AssetRecord 每个规范化URL对应唯一一条记录
type AssetRecord struct {
	CanonicalURL string      `json:"url"`
	LocalName    string      `json:"local_name,omitempty"`
	Status       AssetStatus `json:"status"`
	ContentType  string      `json:"content_type,omitempty"`
	Bytes        []byte      `json:"-"`

	// FinalURL 跟随重定向后的实际地址, 外链样式表中的相对 url() 以它为基准
	FinalURL string `json:"final_url,omitempty"`

	// Stylesheet 被 <link rel="stylesheet"> 引用, 内容并入聚合样式表
	Stylesheet bool `json:"stylesheet,omitempty"`
	// Embedded 被非样式表位置引用, 需要落地为独立文件
	Embedded bool `json:"embedded,omitempty"`

	Err      error `json:"-"`
	WriteErr error `json:"-"`
}

// NewAssetRecord 创建待抓取记录
func NewAssetRecord(canonicalURL string) *AssetRecord {
	return &AssetRecord{CanonicalURL: canonicalURL, Status: AssetPending}
}

// MarkFetched Pending -> Fetched
func (r *AssetRecord) MarkFetched(body []byte, contentType string) bool {
	if r.Status != AssetPending {
		return false
	}
	r.Status = AssetFetched
	r.Bytes = body
	r.ContentType = contentType
	return true
}

// MarkFailed Pending -> Failed
func (r *AssetRecord) MarkFailed(err error) bool {
	if r.Status != AssetPending {
		return false
	}
	r.Status = AssetFailed
	r.Err = err
	return true
}

// NeedsFile 记录是否需要写出独立文件
func (r *AssetRecord) NeedsFile() bool {
	return r.Embedded
}

// Usable 只有抓取成功且已落盘(或无需落盘)的记录才能用于改写
func (r *AssetRecord) Usable() bool {
	return r.Status == AssetFetched && r.WriteErr == nil
}

// FailureReason 失败原因文本
func (r *AssetRecord) FailureReason() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.WriteErr != nil:
		return r.WriteErr.Error()
	default:
		return ""
	}
}
