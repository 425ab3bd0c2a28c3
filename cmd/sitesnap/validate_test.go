package main

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"补全协议", "example.com", "https://example.com"},
		{"保留http", "http://example.com/a", "http://example.com/a"},
		{"去除空白", "  https://example.com/  ", "https://example.com/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) 失败: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, 期望 %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		file    string
		folder  string
		want    string
		wantErr bool
	}{
		{"单个URL", "example.com", "", "", "https://example.com", false},
		{"自定义目录", "https://example.com", "", "mirror", "https://example.com", false},
		{"URL与文件同时指定", "https://example.com", "urls.txt", "", "", true},
		{"批量模式不能指定目录", "", "urls.txt", "mirror", "", true},
		{"目录越界", "https://example.com", "", "../x", "", true},
		{"非HTTP协议", "ftp://example.com", "", "", "", true},
		{"仅文件", "", "urls.txt", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFlags(tt.url, tt.file, tt.folder)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFlags() err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateFlags() = %q, 期望 %q", got, tt.want)
			}
		})
	}
}
