package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://example.com", false},
		{"带路径的URL", "https://example.com/path/to/resource", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloneConfig_Validate(t *testing.T) {
	valid := DefaultCloneConfig()

	tests := []struct {
		name    string
		mutate  func(c *CloneConfig)
		wantErr bool
	}{
		{"默认配置有效", func(c *CloneConfig) {}, false},
		{"静态模式", func(c *CloneConfig) { c.Mode = RenderStatic }, false},
		{"无效模式", func(c *CloneConfig) { c.Mode = "all" }, true},
		{"并发数过小", func(c *CloneConfig) { c.Concurrency = 0 }, true},
		{"并发数过大", func(c *CloneConfig) { c.Concurrency = 33 }, true},
		{"请求超时大于整体超时", func(c *CloneConfig) { c.RequestTimeout = c.Timeout + 1 }, true},
		{"渲染等待为负", func(c *CloneConfig) { c.RenderWait = -1 }, true},
		{"资源上限为0", func(c *CloneConfig) { c.MaxAssetSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAssetRecord_StateMachine(t *testing.T) {
	t.Run("Pending到Fetched后不可再迁移", func(t *testing.T) {
		r := NewAssetRecord("https://example.com/a.png")
		if r.Status != AssetPending {
			t.Fatalf("初始状态应为pending, 得到 %s", r.Status)
		}
		if !r.MarkFetched([]byte("png"), "image/png") {
			t.Fatal("Pending -> Fetched 应该成功")
		}
		if r.MarkFailed(errors.New("late")) {
			t.Error("Fetched 是终态, 不应迁移到 Failed")
		}
		if !r.Usable() {
			t.Error("Fetched 记录应可用于改写")
		}
	})

	t.Run("Pending到Failed后不可再迁移", func(t *testing.T) {
		r := NewAssetRecord("https://example.com/b.png")
		if !r.MarkFailed(errors.New("404")) {
			t.Fatal("Pending -> Failed 应该成功")
		}
		if r.MarkFetched([]byte("x"), "") {
			t.Error("Failed 是终态, 不应迁移到 Fetched")
		}
		if r.Usable() {
			t.Error("Failed 记录不可用于改写")
		}
		if r.FailureReason() != "404" {
			t.Errorf("失败原因错误: %s", r.FailureReason())
		}
	})

	t.Run("写入失败的记录不可用于改写", func(t *testing.T) {
		r := NewAssetRecord("https://example.com/c.png")
		r.MarkFetched([]byte("x"), "")
		r.WriteErr = errors.New("disk full")
		if r.Usable() {
			t.Error("写入失败的记录不应被改写引用")
		}
	})
}

func TestCloneError_Is(t *testing.T) {
	err := fmt.Errorf("包装: %w", NewCloneError(KindFileSystem, "/tmp/out", errors.New("permission denied")))

	if !errors.Is(err, ErrFileSystem) {
		t.Error("应按分类匹配 FileSystemError")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("不应匹配 NetworkError")
	}

	var ce *CloneError
	if !errors.As(err, &ce) || ce.Target != "/tmp/out" {
		t.Errorf("errors.As 应取出原始错误, 得到 %v", ce)
	}
	if !strings.Contains(err.Error(), "FileSystemError") {
		t.Errorf("错误文本应包含分类: %s", err.Error())
	}
}

func TestErrorKind_Fatal(t *testing.T) {
	fatal := []ErrorKind{KindParse, KindFileSystem, KindCanceled}
	nonFatal := []ErrorKind{KindNetwork, KindURLResolution}

	for _, k := range fatal {
		if !k.Fatal() {
			t.Errorf("%s 应为致命错误", k)
		}
	}
	for _, k := range nonFatal {
		if k.Fatal() {
			t.Errorf("%s 不应为致命错误", k)
		}
	}
}

func TestCloneOutcome_Summary(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		o := NewCloneOutcome("id", "https://example.com")
		o.Success = true
		o.OutputDir = "output/cloned-example-com"
		o.Files = []string{"index.html", "styles.css"}
		o.AssetsFetched = 3
		o.AssetsFailed = 1

		got := o.Summary()
		if !strings.HasPrefix(got, "Website cloned. Files index.html, styles.css are created in output/cloned-example-com/") {
			t.Errorf("摘要格式错误: %s", got)
		}
		if !strings.Contains(got, "3 assets fetched, 1 failed") {
			t.Errorf("摘要缺少统计: %s", got)
		}
	})

	t.Run("失败", func(t *testing.T) {
		o := NewCloneOutcome("id", "https://example.com")
		o.Fail(NewCloneError(KindParse, "", errors.New("empty document")))
		if !strings.HasPrefix(o.Summary(), "Error cloning website: ParseError") {
			t.Errorf("失败摘要格式错误: %s", o.Summary())
		}
	})
}

func TestDefaultFolderName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/path", "cloned-www-example-com"},
		{"http://localhost:8080/", "cloned-localhost"},
		{"::bad", "cloned-site"},
	}

	for _, tt := range tests {
		if got := DefaultFolderName(tt.url); got != tt.want {
			t.Errorf("DefaultFolderName(%q) = %q, 期望 %q", tt.url, got, tt.want)
		}
	}
}

func TestValidateFolderName(t *testing.T) {
	tests := []struct {
		name    string
		folder  string
		wantErr bool
	}{
		{"空名称", "", false},
		{"普通名称", "mirror", false},
		{"子目录", "sites/mirror", false},
		{"越界", "../mirror", true},
		{"中间越界", "a/../../b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFolderName(tt.folder)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFolderName(%q) error = %v, wantErr %v", tt.folder, err, tt.wantErr)
			}
		})
	}
}

func TestCliHeaders_Parse(t *testing.T) {
	headers, err := CliHeaders{"User-Agent: Bot/1.0", "X-Token:  abc:def "}.Parse()
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if headers.Get("User-Agent") != "Bot/1.0" {
		t.Errorf("User-Agent 错误: %s", headers.Get("User-Agent"))
	}
	if headers.Get("X-Token") != "abc:def" {
		t.Errorf("值中的冒号应保留: %s", headers.Get("X-Token"))
	}

	if _, err := (CliHeaders{"NoColon"}).Parse(); err == nil {
		t.Error("缺少冒号应返回错误")
	}
	if _, err := (CliHeaders{": value"}).Parse(); err == nil {
		t.Error("空名称应返回错误")
	}
}

func TestCloneReport_JSON(t *testing.T) {
	record := NewAssetRecord("https://example.com/a.png")
	record.LocalName = "a.png"
	record.Embedded = true
	record.MarkFetched([]byte("12345"), "image/png")

	report := &CloneReport{
		TaskID:    "task-1",
		TargetURL: "https://example.com",
		Domain:    "example.com",
		Mode:      RenderStatic,
		StartTime: time.Unix(0, 0).UTC(),
		EndTime:   time.Unix(5, 0).UTC(),
		Duration:  5,
		Assets:    []AssetInfo{NewAssetInfo(record, []Site{ImgAttribute, CssUrlFunction})},
		Config:    DefaultCloneConfig(),
	}

	data, err := report.ToJSON()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	if !strings.Contains(string(data), `"img_attribute"`) {
		t.Errorf("位置类型应以名称序列化: %s", data)
	}

	var decoded CloneReport
	if err := decoded.FromJSON(data); err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if len(decoded.Assets) != 1 || decoded.Assets[0].Size != 5 || decoded.Assets[0].Sites[1] != CssUrlFunction {
		t.Errorf("资源条目不一致: %+v", decoded.Assets)
	}
}
