package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/block/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

func (r *SQLiteRepository) GetActive(ctx context.Context, qrCode string) (*model.ItemBlock, error) {
	return r.getOne(ctx, `SELECT * FROM item_blocks WHERE qr_code = ? AND status = 'active'`, qrCode)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*model.ItemBlock, error) {
	return r.getOne(ctx, `SELECT * FROM item_blocks WHERE id = ?`, id)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.ItemBlock, error) {
	var b model.ItemBlock
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return &b, nil
}

// Create inserts an active block. A second active block for the same code
// violates uq_item_blocks_active; callers check database.IsUniqueViolation.
func (r *SQLiteRepository) Create(ctx context.Context, b *model.ItemBlock) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO item_blocks (qr_code, block_type, reason, notes, status, blocked_by, blocked_at)
        VALUES (:qr_code, :block_type, :reason, :notes, :status, :blocked_by, :blocked_at)
        RETURNING id
    `, b)
	if err != nil {
		return 0, err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&b.ID); err != nil {
		return 0, fmt.Errorf("failed to create block: %w", err)
	}
	return b.ID, nil
}

func (r *SQLiteRepository) Release(ctx context.Context, b *model.ItemBlock) error {
	res, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, `
        UPDATE item_blocks
        SET status = :status, unblocked_by = :unblocked_by, unblocked_at = :unblocked_at, notes = :notes
        WHERE id = :id AND status = 'active'
    `, b)
	if err != nil {
		return fmt.Errorf("failed to release block: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("block %d: %w", b.ID, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context, f *dto.BlockFilters) ([]model.ItemBlock, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.QRCode != "" {
		conditions = append(conditions, "qr_code LIKE ?")
		args = append(args, "%"+f.QRCode+"%")
	}
	if f.BlockType != "" {
		conditions = append(conditions, "block_type = ?")
		args = append(args, f.BlockType)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.BlockedBy != "" {
		conditions = append(conditions, "blocked_by LIKE ?")
		args = append(args, "%"+f.BlockedBy+"%")
	}
	if f.StartDate != nil {
		conditions = append(conditions, "blocked_at >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conditions = append(conditions, "blocked_at < ?")
		args = append(args, f.EndDate.UTC())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := database.Conn(ctx, r.DB)

	var count int
	if err := q.GetContext(ctx, &count, "SELECT count(*) FROM item_blocks"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count blocks: %w", err)
	}

	query := "SELECT * FROM item_blocks" + whereClause + " ORDER BY blocked_at DESC, id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	blocks := []model.ItemBlock{}
	if err := q.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, count, nil
}

func (r *SQLiteRepository) ListByCode(ctx context.Context, qrCode string) ([]model.ItemBlock, error) {
	blocks := []model.ItemBlock{}
	err := database.Conn(ctx, r.DB).SelectContext(ctx, &blocks,
		`SELECT * FROM item_blocks WHERE qr_code = ? ORDER BY blocked_at DESC, id DESC`, qrCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list block history: %w", err)
	}
	return blocks, nil
}

func (r *SQLiteRepository) Summary(ctx context.Context, from, to *time.Time, now time.Time) ([]model.BlockTypeSummary, error) {
	conditions := []string{"1=1"}
	args := []interface{}{now.UTC()}
	if from != nil {
		conditions = append(conditions, "blocked_at >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		conditions = append(conditions, "blocked_at < ?")
		args = append(args, to.UTC())
	}

	summary := []model.BlockTypeSummary{}
	err := database.Conn(ctx, r.DB).SelectContext(ctx, &summary, `
        SELECT
            block_type,
            COUNT(*) AS total_blocks,
            SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END) AS active_blocks,
            SUM(CASE WHEN status = 'released' THEN 1 ELSE 0 END) AS released_blocks,
            COUNT(DISTINCT qr_code) AS unique_items,
            COALESCE(AVG((julianday(COALESCE(unblocked_at, ?)) - julianday(blocked_at)) * 24.0), 0) AS avg_hours_blocked
        FROM item_blocks
        WHERE `+strings.Join(conditions, " AND ")+`
        GROUP BY block_type
        ORDER BY total_blocks DESC, block_type ASC
    `, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize blocks: %w", err)
	}
	return summary, nil
}
