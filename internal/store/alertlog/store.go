package alertlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// 中文说明：
// 告警发送日志：独立于分析记录的轻量审计表，记录每次通知尝试
// （含失败），用于事后排查通道问题。

type Entry struct {
	ID         int64   `json:"id"`
	Instrument string  `json:"instrument"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Price      float64 `json:"price"`
	Channel    string  `json:"channel"`
	Message    string  `json:"message"`
	Success    bool    `json:"success"`
	Timestamp  int64   `json:"ts"`
}

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("alert log path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS alert_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		instrument TEXT NOT NULL,
		action TEXT NOT NULL,
		confidence REAL NOT NULL,
		price REAL NOT NULL,
		channel TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL DEFAULT 0,
		ts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alert_log_ts ON alert_log(ts);`)
	if err != nil {
		return fmt.Errorf("migrate alert_log: %w", err)
	}
	return nil
}

// Append 追加一条发送记录。
func (s *Store) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_log (instrument, action, confidence, price, channel, message, success, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Instrument, e.Action, e.Confidence, e.Price, e.Channel, e.Message, boolToInt(e.Success), e.Timestamp)
	if err != nil {
		return fmt.Errorf("append alert log: %w", err)
	}
	return nil
}

// Recent 按时间倒序取最近 limit 条。
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, instrument, action, confidence, price, channel, message, success, ts
		 FROM alert_log ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var success int
		if err := rows.Scan(&e.ID, &e.Instrument, &e.Action, &e.Confidence, &e.Price,
			&e.Channel, &e.Message, &success, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Success = success != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
