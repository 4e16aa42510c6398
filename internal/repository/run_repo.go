package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/haxtag/FCpalestina/internal/model"
)

// RunRepository 导入批次及其明细
type RunRepository interface {
	CreateRun(ctx context.Context, run *model.IngestRun) error
	FinishRun(ctx context.Context, runID, status string, stats model.RunStats, errMsg string) error
	SaveItems(ctx context.Context, items []*model.IngestRunItem) error
	GetRun(ctx context.Context, runID string) (*model.IngestRun, error)
	ListItems(ctx context.Context, runID string, limit int) ([]*model.IngestRunItem, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) CreateRun(ctx context.Context, run *model.IngestRun) error {
	if len(run.Stats) == 0 {
		run.Stats = datatypes.JSON([]byte("{}"))
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("创建导入批次失败: %w, run_id: %s", err, run.ID)
	}
	return nil
}

func (r *runRepository) FinishRun(ctx context.Context, runID, status string, stats model.RunStats, errMsg string) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("序列化批次统计失败: %w", err)
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.IngestRun{}).
		Where("id = ?", runID).
		Updates(map[string]interface{}{
			"status":      status,
			"stats":       datatypes.JSON(raw),
			"error":       errMsg,
			"finished_at": &now,
		}).Error
}

// SaveItems 单事务批量写入明细
func (r *runRepository) SaveItems(ctx context.Context, items []*model.IngestRunItem) error {
	if len(items) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	if err := tx.CreateInBatches(items, 200).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("保存批次明细失败: %w, run_id: %s", err, items[0].RunID)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

func (r *runRepository) GetRun(ctx context.Context, runID string) (*model.IngestRun, error) {
	var run model.IngestRun
	if err := r.db.WithContext(ctx).Where("id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) ListItems(ctx context.Context, runID string, limit int) ([]*model.IngestRunItem, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var items []*model.IngestRunItem
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// memoryRunRepository 文件模式下的批次记录，只保存在进程内
type memoryRunRepository struct {
	mu    sync.Mutex
	runs  map[string]*model.IngestRun
	items map[string][]*model.IngestRunItem
}

// NewMemoryRunRepository 不连数据库时使用
func NewMemoryRunRepository() RunRepository {
	return &memoryRunRepository{
		runs:  make(map[string]*model.IngestRun),
		items: make(map[string][]*model.IngestRunItem),
	}
}

func (r *memoryRunRepository) CreateRun(ctx context.Context, run *model.IngestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *run
	r.runs[run.ID] = &c
	return nil
}

func (r *memoryRunRepository) FinishRun(ctx context.Context, runID, status string, stats model.RunStats, errMsg string) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	run.Status = status
	run.Stats = datatypes.JSON(raw)
	run.Error = errMsg
	run.FinishedAt = &now
	return nil
}

func (r *memoryRunRepository) SaveItems(ctx context.Context, items []*model.IngestRunItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		c := *it
		c.ID = uint64(len(r.items[it.RunID]) + 1)
		r.items[it.RunID] = append(r.items[it.RunID], &c)
	}
	return nil
}

func (r *memoryRunRepository) GetRun(ctx context.Context, runID string) (*model.IngestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *run
	return &c, nil
}

func (r *memoryRunRepository) ListItems(ctx context.Context, runID string, limit int) ([]*model.IngestRunItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[runID]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return append([]*model.IngestRunItem(nil), items...), nil
}
