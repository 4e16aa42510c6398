package model

import (
	"time"

	"gorm.io/datatypes"
)

// 导入批次状态
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// 单条 listing 的处理结果
const (
	DecisionInsert = "insert"
	DecisionMerge  = "merge"
	DecisionReject = "reject"
	DecisionFailed = "failed"
)

// RunStats 批次计数
type RunStats struct {
	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
	Merged    int `json:"merged"`
	Rejected  int `json:"rejected"`
	NoImage   int `json:"no_image"`
	Failed    int `json:"failed"`
}

// IngestRun 一次导入批次
type IngestRun struct {
	ID         string         `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Source     string         `gorm:"column:source;type:varchar(32);not null" json:"source"` // listings/crawl/file
	Status     string         `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Stats      datatypes.JSON `gorm:"column:stats;type:jsonb" json:"stats"`
	Error      string         `gorm:"column:error;type:text" json:"error,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp;not null" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at;type:timestamp" json:"finished_at,omitempty"`
}

func (IngestRun) TableName() string { return "ingest_runs" }

// IngestRunItem 批次内单条 listing 的决策记录
type IngestRunItem struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunID      string         `gorm:"column:run_id;type:varchar(64);index;not null" json:"run_id"`
	RecordID   string         `gorm:"column:record_id;type:varchar(32);index" json:"record_id,omitempty"`
	Decision   string         `gorm:"column:decision;type:varchar(16);not null" json:"decision"`
	Similarity float64        `gorm:"column:similarity;type:numeric(6,4);default:0" json:"similarity"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"` // 原始 listing
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
}

func (IngestRunItem) TableName() string { return "ingest_run_items" }
