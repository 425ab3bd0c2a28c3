package snapshot

import (
	"errors"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

// Resolution 引用解析结果
type Resolution struct {
	URL      string // 规范化的绝对URL, Skip 时为空
	Fragment string // 原值中的 #片段, 改写时追加回本地名称
	Skip     bool
}

// 不可抓取的协议, data: 之外的这些同样原样保留
var skipSchemes = map[string]bool{
	"data":       true,
	"blob":       true,
	"javascript": true,
	"about":      true,
	"mailto":     true,
	"tel":        true,
}

var (
	errNoBase = errors.New("相对地址缺少基准URL")
	errNoHost = errors.New("解析结果缺少主机名")
)

// htmlSpace HTML 属性值两端可裁剪的空白
const htmlSpace = " \t\n\f\r"

// Resolve 将原始引用值解析为规范化绝对URL
// 内嵌数据、空值、纯片段和非http(s)结果返回 Skip; 无法解析的值返回 URLResolutionError
func Resolve(raw string, base *url.URL) (Resolution, error) {
	value := strings.Trim(raw, htmlSpace)
	if value == "" || strings.HasPrefix(value, "#") {
		return Resolution{Skip: true}, nil
	}
	if scheme := schemeOf(value); scheme != "" && skipSchemes[scheme] {
		return Resolution{Skip: true}, nil
	}

	ref, err := url.Parse(value)
	if err != nil {
		return Resolution{}, models.NewCloneError(models.KindURLResolution, raw, err)
	}

	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		if abs.Scheme == "" && base == nil {
			return Resolution{}, models.NewCloneError(models.KindURLResolution, raw, errNoBase)
		}
		return Resolution{Skip: true}, nil
	}
	if abs.Host == "" {
		return Resolution{}, models.NewCloneError(models.KindURLResolution, raw, errNoHost)
	}

	var fragment string
	if ref.Fragment != "" {
		fragment = ref.EscapedFragment()
	}
	return Resolution{URL: Canonicalize(abs), Fragment: fragment}, nil
}

// Canonicalize 去重用的规范形式: 小写协议和主机, 去掉默认端口和片段
func Canonicalize(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	host := strings.ToLower(c.Hostname())
	port := c.Port()
	if (c.Scheme == "http" && port == "80") || (c.Scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	c.Host = host
	c.Fragment = ""
	c.RawFragment = ""
	if c.Path == "" {
		c.Path = "/"
		c.RawPath = ""
	}
	return c.String()
}

// schemeOf 提取协议名(小写), 没有协议时返回空
func schemeOf(value string) string {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.':
			if i == 0 {
				return ""
			}
		case c == ':':
			if i == 0 {
				return ""
			}
			return strings.ToLower(value[:i])
		default:
			return ""
		}
	}
	return ""
}
