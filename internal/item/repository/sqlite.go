package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

// latestCountJoin attaches the newest ledger row per code (ties by id).
const latestCountJoin = `
	LEFT JOIN (
		SELECT qr_code, unrestrict, foc, rfb, count_date,
		       ROW_NUMBER() OVER (PARTITION BY qr_code ORDER BY count_date DESC, id DESC) AS rn
		FROM stock_counts
	) sc ON sc.qr_code = i.qr_code AND sc.rn = 1`

const itemWithStockColumns = `
	i.*,
	sc.unrestrict AS last_unrestrict,
	sc.foc AS last_foc,
	sc.rfb AS last_rfb,
	sc.count_date AS last_count_date`

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

func (r *SQLiteRepository) GetByCode(ctx context.Context, qrCode string) (*model.Item, error) {
	var it model.Item
	err := database.Conn(ctx, r.DB).GetContext(ctx, &it, `SELECT * FROM items WHERE qr_code = ?`, qrCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &it, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, it *model.Item) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO items (qr_code, description, location, notes, status, created_at, updated_at)
        VALUES (:qr_code, :description, :location, :notes, :status, :created_at, :updated_at)
        RETURNING id
    `, it)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create item: %w", err)
	}
	it.ID = id
	return id, nil
}

func (r *SQLiteRepository) UpdateDetails(ctx context.Context, it *model.Item) error {
	_, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, `
        UPDATE items
        SET description = :description, location = :location, notes = :notes, updated_at = :updated_at
        WHERE qr_code = :qr_code
    `, it)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateLocation(ctx context.Context, qrCode, location string, at time.Time) error {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE items SET location = ?, updated_at = ? WHERE qr_code = ?`, location, at, qrCode)
	if err != nil {
		return fmt.Errorf("failed to update item location: %w", err)
	}
	return expectOneRow(res, qrCode)
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, qrCode string, status model.ItemStatus, at time.Time) error {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE qr_code = ?`, status, at, qrCode)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	return expectOneRow(res, qrCode)
}

func expectOneRow(res sql.Result, qrCode string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", qrCode, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.ItemWithStock, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.Search != "" {
		term := "%" + f.Search + "%"
		conditions = append(conditions, "(i.qr_code LIKE ? OR i.description LIKE ? OR i.location LIKE ?)")
		args = append(args, term, term, term)
	}
	if f.Location != "" {
		conditions = append(conditions, "i.location = ?")
		args = append(args, f.Location)
	}
	if f.Status != "" {
		conditions = append(conditions, "i.status = ?")
		args = append(args, f.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := database.Conn(ctx, r.DB)

	var count int
	if err := q.GetContext(ctx, &count, "SELECT count(*) FROM items i"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	query := "SELECT" + itemWithStockColumns + " FROM items i" + latestCountJoin + whereClause +
		" ORDER BY i.updated_at DESC, i.id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	items := []model.ItemWithStock{}
	if err := q.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return items, count, nil
}

func (r *SQLiteRepository) ListByLocation(ctx context.Context, location string, status model.ItemStatus) ([]model.ItemWithStock, error) {
	query := "SELECT" + itemWithStockColumns + " FROM items i" + latestCountJoin +
		" WHERE i.location = ? AND i.status = ?" +
		" ORDER BY sc.count_date IS NOT NULL, sc.count_date ASC, i.qr_code ASC"

	items := []model.ItemWithStock{}
	if err := database.Conn(ctx, r.DB).SelectContext(ctx, &items, query, location, status); err != nil {
		return nil, fmt.Errorf("failed to list items by location: %w", err)
	}
	return items, nil
}
