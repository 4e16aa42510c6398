package model

import (
	"time"
)

// CatalogRecord 目录中的球衣记录（多次抓取去重后一条）
// id 由 (translatedTitle, sourceUrl) 推导，重算结果不变
type CatalogRecord struct {
	ID                 string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Signature          string    `gorm:"column:signature;type:varchar(32);index;not null" json:"signature"` // 规范化标题+类别+赛季的短哈希
	NormalizedTitle    string    `gorm:"column:normalized_title;type:varchar(256);not null" json:"-"`
	Title              string    `gorm:"column:title;type:varchar(256);not null" json:"title"`
	RawTitle           string    `gorm:"column:raw_title;type:text" json:"raw_title"`
	Category           Category  `gorm:"column:category;type:varchar(16);index;not null" json:"category"`
	Season             string    `gorm:"column:season;type:varchar(16)" json:"season,omitempty"`
	Team               string    `gorm:"column:team;type:varchar(128)" json:"team"`
	Size               string    `gorm:"column:size;type:varchar(32)" json:"size,omitempty"`
	Images             []string  `gorm:"column:images;type:jsonb;serializer:json" json:"images"`
	Thumbnail          string    `gorm:"column:thumbnail;type:varchar(512)" json:"thumbnail"`
	Tags               []string  `gorm:"column:tags;type:jsonb;serializer:json" json:"tags"`
	SourceURLs         []string  `gorm:"column:source_urls;type:jsonb;serializer:json" json:"source_urls"`
	ExpectedImageCount int       `gorm:"column:expected_image_count;type:int;default:0" json:"expected_image_count"`
	CreatedAt          time.Time `gorm:"column:created_at;type:timestamp" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;type:timestamp" json:"last_updated"`
}

func (CatalogRecord) TableName() string { return "jerseys" }

// Clone 深拷贝，目录 actor 之外只流通副本
func (r *CatalogRecord) Clone() *CatalogRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Images = append([]string(nil), r.Images...)
	c.Tags = append([]string(nil), r.Tags...)
	c.SourceURLs = append([]string(nil), r.SourceURLs...)
	return &c
}

// NoImage 没有可用图片时的缩略图占位
const NoImage = "placeholder.jpg"
