package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trade-logger/internal/store"
)

// DeliveryRecord 描述一条已尝试投递的交易记录及其结果。
type DeliveryRecord struct {
	RecordID      string    `json:"record_id"`
	BaseID        string    `json:"base_id"`
	Instrument    string    `json:"instrument"`
	Account       string    `json:"account"`
	Action        string    `json:"action"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	ContractNum   int       `json:"contract_num"`
	TotalQuantity int       `json:"total_quantity"`
	IsExit        bool      `json:"is_exit"`
	Delivered     bool      `json:"delivered"`
	StatusCode    int       `json:"status_code"`
	Reason        string    `json:"reason,omitempty"`
	EventTime     time.Time `json:"event_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// Service 负责把投递结果持久化到本地库，供监控接口检索。
type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewService 初始化投递日志服务，创建所需表结构。
func NewService(store *store.Store, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("journal: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		db:     store.DB(),
		logger: logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS export_journal (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	record_id TEXT NOT NULL,
	base_id TEXT NOT NULL DEFAULT '',
	instrument TEXT NOT NULL,
	account TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price REAL NOT NULL,
	contract_num INTEGER NOT NULL,
	total_quantity INTEGER NOT NULL,
	is_exit INTEGER NOT NULL DEFAULT 0,
	delivered INTEGER NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	event_time TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_export_journal_base ON export_journal(base_id);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("journal: 初始化表失败: %w", err)
	}
	return nil
}

// RecordDelivery 写入单条投递结果，失败只告警，不影响导出流程。
func (s *Service) RecordDelivery(ctx context.Context, rec DeliveryRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO export_journal
			(record_id, base_id, instrument, account, action, quantity, price,
			 contract_num, total_quantity, is_exit, delivered, status_code, reason,
			 event_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RecordID, rec.BaseID, rec.Instrument, rec.Account, rec.Action,
		rec.Quantity, rec.Price, rec.ContractNum, rec.TotalQuantity,
		boolToInt(rec.IsExit), boolToInt(rec.Delivered), rec.StatusCode, rec.Reason,
		rec.EventTime.UTC().Format(time.RFC3339Nano), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Warn("记录投递结果失败", zap.Error(err), zap.String("record_id", rec.RecordID))
	}
}

// ListRecent 按时间倒序检索最近的投递记录。
func (s *Service) ListRecent(ctx context.Context, limit int) ([]DeliveryRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, base_id, instrument, account, action, quantity, price,
			contract_num, total_quantity, is_exit, delivered, status_code, reason,
			event_time, created_at
		 FROM export_journal ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: 查询投递记录失败: %w", err)
	}
	defer rows.Close()

	records := make([]DeliveryRecord, 0, limit)
	for rows.Next() {
		var (
			rec       DeliveryRecord
			isExit    int
			delivered int
			eventTime string
			createdAt string
		)
		if scanErr := rows.Scan(
			&rec.RecordID, &rec.BaseID, &rec.Instrument, &rec.Account, &rec.Action,
			&rec.Quantity, &rec.Price, &rec.ContractNum, &rec.TotalQuantity,
			&isExit, &delivered, &rec.StatusCode, &rec.Reason,
			&eventTime, &createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("journal: 解析投递记录失败: %w", scanErr)
		}

		rec.IsExit = isExit == 1
		rec.Delivered = delivered == 1
		if ts, parseErr := time.Parse(time.RFC3339Nano, eventTime); parseErr == nil {
			rec.EventTime = ts
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			rec.CreatedAt = ts
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: 读取投递记录失败: %w", err)
	}

	return records, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
