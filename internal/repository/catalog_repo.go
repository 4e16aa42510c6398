package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/haxtag/FCpalestina/internal/model"
)

// CatalogRepository 球衣目录仓储，目录 actor 的持久化实现
type CatalogRepository interface {
	LoadAll(ctx context.Context) ([]*model.CatalogRecord, error)
	Insert(ctx context.Context, record *model.CatalogRecord) error
	Update(ctx context.Context, record *model.CatalogRecord) error
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// LoadAll 按创建时间顺序加载，保证重建索引时的插入顺序稳定
func (r *catalogRepository) LoadAll(ctx context.Context) ([]*model.CatalogRecord, error) {
	var list []*model.CatalogRecord
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("加载目录失败: %w", err)
	}
	return list, nil
}

// Insert id 冲突时（同标题同来源重复导入）覆盖可变字段
func (r *catalogRepository) Insert(ctx context.Context, record *model.CatalogRecord) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"signature", "normalized_title", "title", "raw_title", "category", "season", "team", "size",
			"images", "thumbnail", "tags", "source_urls", "expected_image_count", "updated_at",
		}),
	}).Create(record).Error; err != nil {
		return fmt.Errorf("保存记录失败: %w, id: %s", err, record.ID)
	}
	return nil
}

func (r *catalogRepository) Update(ctx context.Context, record *model.CatalogRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("更新记录失败: %w, id: %s", err, record.ID)
	}
	return nil
}
