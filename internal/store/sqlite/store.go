package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"alphawatch/internal/ai"
	"alphawatch/internal/market"
	"alphawatch/internal/store/model"
)

// RecordStore 分析记录的 SQLite 持久化。
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(path string) (*RecordStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewRecordStoreFromDB(db)
}

func NewRecordStoreFromDB(db *gorm.DB) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db 不能为空")
	}
	if err := db.AutoMigrate(&model.AnalysisRecordModel{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &RecordStore{db: db}, nil
}

// Save 把一次分析结果写成不可变记录，返回记录 ID。
func (s *RecordStore) Save(ctx context.Context, instrument string, strategy string, snap market.Snapshot, res ai.Result) (string, error) {
	rec := res.Recommendation
	m := model.AnalysisRecordModel{
		RecordID:      uuid.NewString(),
		Instrument:    instrument,
		Price:         snap.LastPrice(),
		Strategy:      strategy,
		Action:        string(rec.Action),
		Confidence:    rec.Confidence,
		Analysis:      rec.Analysis,
		Reasoning:     rec.Reasoning,
		UrgentAction:  rec.UrgentAction,
		UrgentReason:  rec.UrgentReason,
		RawResponse:   res.RawResponse,
		Degraded:      res.Degraded,
		CreatedAtUnix: time.Now().Unix(),
	}
	m.SupportLevels = mustJSON(rec.SupportLevels)
	m.ResistanceLevels = mustJSON(rec.ResistanceLevels)
	m.StopAdjustment = mustJSON(rec.StopAdjustment)
	m.RawSnapshot = mustJSON(snap)

	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return "", fmt.Errorf("save analysis record: %w", err)
	}
	return m.RecordID, nil
}

// MarkNotificationSent 通知送达后的唯一一次回写。
func (s *RecordStore) MarkNotificationSent(ctx context.Context, recordID string) error {
	res := s.db.WithContext(ctx).
		Model(&model.AnalysisRecordModel{}).
		Where("record_id = ?", recordID).
		Update("notification_sent", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification sent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %s not found", recordID)
	}
	return nil
}

// Recent 按时间倒序取最近 limit 条。
func (s *RecordStore) Recent(ctx context.Context, instrument string, limit int) ([]model.AnalysisRecordModel, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if instrument != "" {
		q = q.Where("instrument = ?", instrument)
	}
	var out []model.AnalysisRecordModel
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RecordStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}
