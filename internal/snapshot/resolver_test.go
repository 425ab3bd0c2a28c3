package snapshot

import (
	"errors"
	"net/url"
	"testing"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("解析URL失败 %s: %v", raw, err)
	}
	return u
}

func TestResolve(t *testing.T) {
	base := mustURL(t, "https://Example.com/blog/post.html")

	tests := []struct {
		name         string
		raw          string
		wantURL      string
		wantFragment string
		wantSkip     bool
	}{
		{"相对路径", "img/a.png", "https://example.com/blog/img/a.png", "", false},
		{"根路径", "/static/a.png", "https://example.com/static/a.png", "", false},
		{"上级目录", "../a.png", "https://example.com/a.png", "", false},
		{"协议相对", "//cdn.example.com/a.png", "https://cdn.example.com/a.png", "", false},
		{"绝对URL原样", "http://other.com/x.png?v=1", "http://other.com/x.png?v=1", "", false},
		{"默认端口去除", "https://example.com:443/a.png", "https://example.com/a.png", "", false},
		{"非默认端口保留", "http://example.com:8080/a.png", "http://example.com:8080/a.png", "", false},
		{"两端空白", "  \n a.png\t", "https://example.com/blog/a.png", "", false},
		{"片段分离", "sprite.svg#icon", "https://example.com/blog/sprite.svg", "icon", false},
		{"内嵌数据", "data:image/png;base64,AAAA", "", "", true},
		{"内嵌数据大写", "DATA:image/gif;base64,R0lG", "", "", true},
		{"javascript协议", "javascript:void(0)", "", "", true},
		{"纯片段", "#top", "", "", true},
		{"空值", "   ", "", "", true},
		{"非http协议", "ftp://example.com/a.png", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Resolve(tt.raw, base)
			if err != nil {
				t.Fatalf("不应返回错误: %v", err)
			}
			if res.Skip != tt.wantSkip {
				t.Fatalf("Skip = %v, 期望 %v", res.Skip, tt.wantSkip)
			}
			if res.URL != tt.wantURL {
				t.Errorf("URL = %q, 期望 %q", res.URL, tt.wantURL)
			}
			if res.Fragment != tt.wantFragment {
				t.Errorf("Fragment = %q, 期望 %q", res.Fragment, tt.wantFragment)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Run("无法解析的值", func(t *testing.T) {
		_, err := Resolve("http://[::1", mustURL(t, "https://example.com/"))
		if !errors.Is(err, models.ErrURLResolution) {
			t.Errorf("期望 URLResolutionError, 得到 %v", err)
		}
	})

	t.Run("相对地址没有基准", func(t *testing.T) {
		_, err := Resolve("a.png", nil)
		if !errors.Is(err, models.ErrURLResolution) {
			t.Errorf("期望 URLResolutionError, 得到 %v", err)
		}
	})
}

func TestResolve_SameAssetDifferentSpelling(t *testing.T) {
	base := mustURL(t, "https://example.com/a/")
	spellings := []string{"x.png", "./x.png", "/a/x.png", "https://EXAMPLE.com:443/a/x.png", "x.png#frag"}

	want := ""
	for _, raw := range spellings {
		res, err := Resolve(raw, base)
		if err != nil {
			t.Fatalf("解析 %q 失败: %v", raw, err)
		}
		if want == "" {
			want = res.URL
		}
		if res.URL != want {
			t.Errorf("%q 规范化为 %q, 期望 %q", raw, res.URL, want)
		}
	}
}
