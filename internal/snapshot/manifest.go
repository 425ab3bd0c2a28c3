package snapshot

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/sitesnap/internal/models"
)

// Manifest 单次克隆的全部状态, 由一次克隆独占, 不在并发克隆之间共享
type Manifest struct {
	ID        string
	BaseURL   *url.URL
	OutputDir string
	Document  *goquery.Document

	// AggregateCSS 聚合样式表的各段正文, 按样式表链接顺序
	AggregateCSS []string

	records    map[string]*models.AssetRecord
	order      []string
	sites      map[string][]models.Site
	references []AssetReference
	sheets     map[string]*Stylesheet // 外链样式表, 按规范化URL
}

// NewManifest 创建空清单
func NewManifest(id string, base *url.URL, outputDir string, doc *goquery.Document) *Manifest {
	return &Manifest{
		ID:        id,
		BaseURL:   base,
		OutputDir: outputDir,
		Document:  doc,
		records:   make(map[string]*models.AssetRecord),
		sites:     make(map[string][]models.Site),
		sheets:    make(map[string]*Stylesheet),
	}
}

// Register 登记引用; 每个规范化URL只建一条记录, 记录顺序为首次引用顺序
func (m *Manifest) Register(refs []AssetReference) {
	for _, ref := range refs {
		rec, ok := m.records[ref.ResolvedURL]
		if !ok {
			rec = models.NewAssetRecord(ref.ResolvedURL)
			m.records[ref.ResolvedURL] = rec
			m.order = append(m.order, ref.ResolvedURL)
		}
		if ref.Site == models.StylesheetLink {
			rec.Stylesheet = true
		} else {
			rec.Embedded = true
		}
		m.sites[ref.ResolvedURL] = appendSite(m.sites[ref.ResolvedURL], ref.Site)
		m.references = append(m.references, ref)
	}
}

func appendSite(sites []models.Site, site models.Site) []models.Site {
	for _, s := range sites {
		if s == site {
			return sites
		}
	}
	return append(sites, site)
}

// Record 按规范化URL查找记录
func (m *Manifest) Record(canonicalURL string) *models.AssetRecord {
	return m.records[canonicalURL]
}

// Records 按首次引用顺序返回全部记录
func (m *Manifest) Records() []*models.AssetRecord {
	out := make([]*models.AssetRecord, 0, len(m.order))
	for _, u := range m.order {
		out = append(out, m.records[u])
	}
	return out
}

// Pending 满足条件的待抓取记录
func (m *Manifest) Pending(match func(*models.AssetRecord) bool) []*models.AssetRecord {
	var out []*models.AssetRecord
	for _, rec := range m.Records() {
		if rec.Status == models.AssetPending && (match == nil || match(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// References 按收集顺序返回全部引用
func (m *Manifest) References() []AssetReference {
	return m.references
}

// Sites 某个URL被引用的位置类型
func (m *Manifest) Sites(canonicalURL string) []models.Site {
	return m.sites[canonicalURL]
}

// LinkedStylesheets 为已抓取的样式表链接建立可改写的样式表, 按链接顺序
func (m *Manifest) LinkedStylesheets() []*Stylesheet {
	var out []*Stylesheet
	for _, ref := range m.references {
		if ref.Site != models.StylesheetLink {
			continue
		}
		if _, seen := m.sheets[ref.ResolvedURL]; seen {
			continue
		}
		rec := m.records[ref.ResolvedURL]
		if rec == nil || rec.Status != models.AssetFetched {
			continue
		}
		sheet := NewLinkedStylesheet(ref.ResolvedURL, rec.FinalURL, rec.Bytes, ref.owner.node)
		m.sheets[ref.ResolvedURL] = sheet
		out = append(out, sheet)
	}
	return out
}

// Stylesheet 已建立的外链样式表
func (m *Manifest) Stylesheet(canonicalURL string) *Stylesheet {
	return m.sheets[canonicalURL]
}

// Counts 可用(已抓取且已落盘)与失败的记录数
func (m *Manifest) Counts() (fetched, failed int) {
	for _, rec := range m.records {
		switch {
		case rec.Usable():
			fetched++
		case rec.Status != models.AssetPending:
			failed++
		}
	}
	return fetched, failed
}

// FailedAssets 失败记录, 按首次引用顺序
func (m *Manifest) FailedAssets() []models.FailedAsset {
	var out []models.FailedAsset
	for _, rec := range m.Records() {
		if rec.Status == models.AssetPending || rec.Usable() {
			continue
		}
		out = append(out, models.FailedAsset{URL: rec.CanonicalURL, Reason: rec.FailureReason()})
	}
	return out
}

// TotalBytes 需要落盘的字节数
func (m *Manifest) TotalBytes() int64 {
	var n int64
	for _, rec := range m.records {
		if rec.Status == models.AssetFetched {
			n += int64(len(rec.Bytes))
		}
	}
	return n
}
