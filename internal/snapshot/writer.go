package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/RecoveryAshes/sitesnap/internal/models"
	"github.com/RecoveryAshes/sitesnap/internal/utils"
)

// diskReserve 写入后仍需保留的磁盘空间
const diskReserve = 16 * 1024 * 1024

// Writer 扁平输出目录写入器
type Writer struct {
	dir       string
	freeSpace func(path string) (uint64, error)
}

// NewWriter 创建写入器
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, freeSpace: diskFree}
}

func diskFree(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// Dir 输出目录
func (w *Writer) Dir() string {
	return w.dir
}

// Prepare 创建输出目录(已存在则复用)并检查剩余空间
func (w *Writer) Prepare(required int64) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return models.NewCloneError(models.KindFileSystem, w.dir, err)
	}

	free, err := w.freeSpace(w.dir)
	if err != nil {
		utils.Debugf("无法获取磁盘剩余空间 [%s]: %v", w.dir, err)
		return nil
	}
	if uint64(required)+diskReserve > free {
		return models.NewCloneError(models.KindFileSystem, w.dir,
			fmt.Errorf("磁盘空间不足: 需要 %s, 剩余 %s",
				utils.FormatBytes(required+diskReserve), utils.FormatBytes(int64(free))))
	}
	return nil
}

// WriteAssets 写出需要落盘的已抓取记录; 单个失败记在记录的 WriteErr 上并继续
func (w *Writer) WriteAssets(records []*models.AssetRecord) []error {
	var errs []error
	for _, rec := range records {
		if rec.Status != models.AssetFetched || !rec.NeedsFile() {
			continue
		}
		path := filepath.Join(w.dir, rec.LocalName)
		if err := os.WriteFile(path, rec.Bytes, 0644); err != nil {
			rec.WriteErr = models.NewCloneError(models.KindFileSystem, path, err)
			utils.Warnf("写入资源失败 [%s]: %v", path, err)
			errs = append(errs, rec.WriteErr)
			continue
		}
		utils.Debugf("写入资源: %s (%d 字节)", rec.LocalName, len(rec.Bytes))
	}
	return errs
}

// WriteDocument 写出聚合样式表(非空时)和页面, 返回写出的文件名
func (w *Writer) WriteDocument(document, stylesheet string) ([]string, error) {
	files := make([]string, 0, 2)
	if stylesheet != "" {
		if err := w.writeAtomic(StylesheetFileName, stylesheet); err != nil {
			return files, err
		}
		files = append(files, StylesheetFileName)
	}
	if err := w.writeAtomic(IndexFileName, document); err != nil {
		return files, err
	}
	return append([]string{IndexFileName}, files...), nil
}

// writeAtomic 先写临时文件再重命名, 不留下写了一半的文件
func (w *Writer) writeAtomic(name, content string) error {
	target := filepath.Join(w.dir, name)
	tmp, err := os.CreateTemp(w.dir, "."+name+"-*.tmp")
	if err != nil {
		return models.NewCloneError(models.KindFileSystem, target, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return models.NewCloneError(models.KindFileSystem, target, err)
	}
	if err := tmp.Close(); err != nil {
		return models.NewCloneError(models.KindFileSystem, target, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return models.NewCloneError(models.KindFileSystem, target, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return models.NewCloneError(models.KindFileSystem, target, err)
	}
	return nil
}
