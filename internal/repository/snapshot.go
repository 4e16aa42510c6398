package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haxtag/FCpalestina/internal/model"
)

// SnapshotWriter 把目录写成前端使用的 jerseys.json，覆盖前把旧文件备份到 backupDir
type SnapshotWriter struct {
	path      string
	backupDir string
	logger    *logrus.Logger
	now       func() time.Time
}

func NewSnapshotWriter(path, backupDir string, logger *logrus.Logger) *SnapshotWriter {
	return &SnapshotWriter{path: path, backupDir: backupDir, logger: logger, now: time.Now}
}

// Checkpoint 先写临时文件再 rename，中断时不会留下半个文件
func (w *SnapshotWriter) Checkpoint(ctx context.Context, records []*model.CatalogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []*model.CatalogRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化目录失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := w.backup(); err != nil {
		w.logger.WithError(err).WithField("path", w.path).Warn("目录快照备份失败")
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入快照失败: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("替换快照失败: %w", err)
	}
	return nil
}

func (w *SnapshotWriter) backup() error {
	if w.backupDir == "" {
		return nil
	}
	old, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(w.backupDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("jerseys_%s.json", w.now().Format("20060102_150405"))
	return os.WriteFile(filepath.Join(w.backupDir, name), old, 0o644)
}

// LoadSnapshot 读取已有快照，文件不存在返回空
func LoadSnapshot(path string) ([]*model.CatalogRecord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取快照失败: %w", err)
	}
	var records []*model.CatalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("解析快照失败: %w", err)
	}
	return records, nil
}

// FileStore 不连数据库时的目录存储：启动时读快照，写入依赖 SnapshotWriter 定期落盘
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LoadAll(ctx context.Context) ([]*model.CatalogRecord, error) {
	return LoadSnapshot(s.path)
}

func (s *FileStore) Insert(ctx context.Context, record *model.CatalogRecord) error { return nil }

func (s *FileStore) Update(ctx context.Context, record *model.CatalogRecord) error { return nil }
