package model

import (
	"gorm.io/datatypes"
)

// AnalysisRecordModel 每个分析周期落库一条，落库后不可变，唯一的例外是
// 通知异步送达成功后回写 notification_sent。
type AnalysisRecordModel struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	RecordID string `gorm:"column:record_id;uniqueIndex"`

	Instrument string  `gorm:"column:instrument;index"`
	Price      float64 `gorm:"column:price"`
	Strategy   string  `gorm:"column:strategy"`

	Action     string  `gorm:"column:action"`
	Confidence float64 `gorm:"column:confidence"`
	Analysis   string  `gorm:"column:analysis;type:TEXT"`
	Reasoning  string  `gorm:"column:reasoning;type:TEXT"`

	SupportLevels    datatypes.JSON `gorm:"column:support_levels;type:TEXT"`
	ResistanceLevels datatypes.JSON `gorm:"column:resistance_levels;type:TEXT"`
	StopAdjustment   datatypes.JSON `gorm:"column:stop_adjustment;type:TEXT"`

	UrgentAction bool   `gorm:"column:urgent_action"`
	UrgentReason string `gorm:"column:urgent_reason"`

	// RawResponse 模型原始文本，RawSnapshot 当时的行情快照
	RawResponse string         `gorm:"column:raw_response;type:TEXT"`
	RawSnapshot datatypes.JSON `gorm:"column:raw_snapshot;type:TEXT"`

	Degraded         bool `gorm:"column:degraded"`
	NotificationSent bool `gorm:"column:notification_sent"`

	CreatedAtUnix int64 `gorm:"column:created_at;index"`
}

func (AnalysisRecordModel) TableName() string { return "analysis_records" }
