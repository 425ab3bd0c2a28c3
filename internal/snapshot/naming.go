package snapshot

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

const (
	// IndexFileName 镜像页面
	IndexFileName = "index.html"
	// StylesheetFileName 聚合样式表
	StylesheetFileName = "styles.css"

	maxNameLength = 100
	fallbackName  = "asset"
)

// AssignNames 按记录顺序为需要落盘的记录分配本地文件名
// 同名(不区分大小写)时在扩展名前追加 _1, _2 ...; 保留名永不分配
func AssignNames(records []*models.AssetRecord) {
	taken := map[string]bool{
		strings.ToLower(IndexFileName):      true,
		strings.ToLower(StylesheetFileName): true,
	}
	for _, rec := range records {
		if rec.LocalName != "" {
			taken[strings.ToLower(rec.LocalName)] = true
		}
	}

	for _, rec := range records {
		if rec.LocalName != "" || !rec.NeedsFile() {
			continue
		}
		name := candidateName(rec.CanonicalURL)
		if taken[strings.ToLower(name)] {
			ext := path.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for i := 1; ; i++ {
				alt := fmt.Sprintf("%s_%d%s", stem, i, ext)
				if !taken[strings.ToLower(alt)] {
					name = alt
					break
				}
			}
		}
		taken[strings.ToLower(name)] = true
		rec.LocalName = name
	}
}

// candidateName 取URL路径最后一段, 清洗为 [A-Za-z0-9._-]
func candidateName(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return fallbackName
	}
	segment := ""
	if p := u.EscapedPath(); p != "" && !strings.HasSuffix(p, "/") {
		segment = path.Base(p)
		if unescaped, err := url.PathUnescape(segment); err == nil {
			segment = unescaped
		}
	}
	return sanitizeName(segment)
}

func sanitizeName(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if strings.Trim(name, "_") == "" {
		return fallbackName
	}
	if len(name) > maxNameLength {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxNameLength-len(ext)] + ext
	}
	return name
}
