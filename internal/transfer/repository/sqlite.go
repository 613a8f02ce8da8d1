package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *model.LocationTransfer) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO location_transfers (
            transfer_number, from_location, to_location, total_items, status, notes, created_by, created_at
        )
        VALUES (
            :transfer_number, :from_location, :to_location, :total_items, :status, :notes, :created_by, :created_at
        )
        RETURNING id
    `, t)
	if err != nil {
		return 0, err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&t.ID); err != nil {
		return 0, fmt.Errorf("failed to create transfer: %w", err)
	}
	return t.ID, nil
}

func (r *SQLiteRepository) AddItem(ctx context.Context, line *model.TransferItem) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO transfer_items (transfer_id, qr_code, unrestrict, foc, rfb, status)
        VALUES (:transfer_id, :qr_code, :unrestrict, :foc, :rfb, :status)
        RETURNING id, total
    `, line)
	if err != nil {
		return 0, err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&line.ID, &line.Total); err != nil {
		return 0, fmt.Errorf("failed to add transfer item: %w", err)
	}
	return line.ID, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*model.LocationTransfer, error) {
	var t model.LocationTransfer
	err := database.Conn(ctx, r.DB).GetContext(ctx, &t, `SELECT * FROM location_transfers WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &t, nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context, transferID int64) ([]model.TransferItem, error) {
	lines := []model.TransferItem{}
	err := database.Conn(ctx, r.DB).SelectContext(ctx, &lines,
		`SELECT * FROM transfer_items WHERE transfer_id = ? ORDER BY id ASC`, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfer items: %w", err)
	}
	return lines, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, t *model.LocationTransfer, expected model.TransferStatus) (bool, error) {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx, `
        UPDATE location_transfers
        SET status = ?, notes = ?,
            approved_by = ?, approved_at = ?,
            completed_by = ?, completed_at = ?,
            cancelled_by = ?, cancelled_at = ?
        WHERE id = ? AND status = ?
    `,
		t.Status, t.Notes,
		t.ApprovedBy, t.ApprovedAt,
		t.CompletedBy, t.CompletedAt,
		t.CancelledBy, t.CancelledAt,
		t.ID, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update transfer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) MarkItemReceived(ctx context.Context, lineID int64, receivedBy string, at time.Time) error {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx, `
        UPDATE transfer_items SET status = ?, received_by = ?, received_at = ?
        WHERE id = ? AND status <> ?
    `, model.TransferItemReceived, receivedBy, at, lineID, model.TransferItemReceived)
	if err != nil {
		return fmt.Errorf("failed to mark transfer item received: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transfer item %d: %w", lineID, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context, f *dto.TransferFilters) ([]model.LocationTransfer, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.FromLocation != "" {
		conditions = append(conditions, "from_location = ?")
		args = append(args, f.FromLocation)
	}
	if f.ToLocation != "" {
		conditions = append(conditions, "to_location = ?")
		args = append(args, f.ToLocation)
	}
	if f.CreatedBy != "" {
		conditions = append(conditions, "created_by LIKE ?")
		args = append(args, "%"+f.CreatedBy+"%")
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, f.EndDate.UTC())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := database.Conn(ctx, r.DB)

	var count int
	if err := q.GetContext(ctx, &count, "SELECT count(*) FROM location_transfers"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	query := "SELECT * FROM location_transfers" + whereClause + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	transfers := []model.LocationTransfer{}
	if err := q.SelectContext(ctx, &transfers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, count, nil
}

func (r *SQLiteRepository) Summary(ctx context.Context, from, to *time.Time) ([]model.TransferStatusSummary, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if from != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, from.UTC())
	}
	if to != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, to.UTC())
	}

	summary := []model.TransferStatusSummary{}
	err := database.Conn(ctx, r.DB).SelectContext(ctx, &summary, `
        SELECT
            status,
            COUNT(*) AS count,
            COUNT(DISTINCT from_location) AS origin_locations,
            COUNT(DISTINCT to_location) AS destination_locations,
            COALESCE(SUM(total_items), 0) AS total_items,
            COALESCE(AVG(total_items), 0) AS avg_items_per_transfer
        FROM location_transfers
        WHERE `+strings.Join(conditions, " AND ")+`
        GROUP BY status
        ORDER BY count DESC, status ASC
    `, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize transfers: %w", err)
	}
	return summary, nil
}
