package models

import (
	"encoding/json"
	"time"
)

// CloneReport 克隆报告
type CloneReport struct {
	TaskID    string     `json:"task_id"`
	TargetURL string     `json:"target_url"`
	Domain    string     `json:"domain"`
	Mode      RenderMode `json:"mode"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	Outcome *CloneOutcome `json:"outcome"`
	Assets  []AssetInfo   `json:"assets"`

	// 配置快照
	Config CloneConfig `json:"config"`
}

// AssetInfo 报告中的单个资源
type AssetInfo struct {
	URL       string      `json:"url"`
	LocalName string      `json:"local_name,omitempty"`
	Status    AssetStatus `json:"status"`
	Size      int         `json:"size"`
	Sites     []Site      `json:"sites"`
	Error     string      `json:"error,omitempty"`
}

// NewAssetInfo 从记录生成报告条目
func NewAssetInfo(r *AssetRecord, sites []Site) AssetInfo {
	info := AssetInfo{
		URL:    r.CanonicalURL,
		Status: r.Status,
		Size:   len(r.Bytes),
		Sites:  sites,
		Error:  r.FailureReason(),
	}
	if r.NeedsFile() {
		info.LocalName = r.LocalName
	}
	return info
}

// ToJSON 序列化为JSON
func (r *CloneReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CloneReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
