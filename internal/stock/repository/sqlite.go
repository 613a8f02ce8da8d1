package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

func (r *SQLiteRepository) LatestCount(ctx context.Context, qrCode string) (*model.StockCount, error) {
	var c model.StockCount
	err := database.Conn(ctx, r.DB).GetContext(ctx, &c, `
        SELECT * FROM stock_counts
        WHERE qr_code = ?
        ORDER BY count_date DESC, id DESC
        LIMIT 1
    `, qrCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // never counted
		}
		return nil, fmt.Errorf("failed to get latest count: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) InsertCount(ctx context.Context, c *model.StockCount) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO stock_counts (item_id, qr_code, unrestrict, foc, rfb, count_type, count_date, notes)
        VALUES (:item_id, :qr_code, :unrestrict, :foc, :rfb, :count_type, :count_date, :notes)
        RETURNING id, total
    `, c)
	if err != nil {
		return 0, err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&c.ID, &c.Total); err != nil {
		return 0, fmt.Errorf("failed to insert stock count: %w", err)
	}
	return c.ID, nil
}

func (r *SQLiteRepository) ListCounts(ctx context.Context, qrCode string) ([]model.StockCount, error) {
	counts := []model.StockCount{}
	err := database.Conn(ctx, r.DB).SelectContext(ctx, &counts, `
        SELECT * FROM stock_counts
        WHERE qr_code = ?
        ORDER BY count_date DESC, id DESC
    `, qrCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock counts: %w", err)
	}
	return counts, nil
}

func (r *SQLiteRepository) InsertMovement(ctx context.Context, m *model.StockMovement) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO stock_movements (
            qr_code, movement_type, from_location, to_location,
            unrestrict, foc, rfb,
            reason, reference_doc, created_by, status, stock_count_id, created_at
        )
        VALUES (
            :qr_code, :movement_type, :from_location, :to_location,
            :unrestrict, :foc, :rfb,
            :reason, :reference_doc, :created_by, :status, :stock_count_id, :created_at
        )
        RETURNING id, total
    `, m)
	if err != nil {
		return 0, err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&m.ID, &m.Total); err != nil {
		return 0, fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return m.ID, nil
}

func (r *SQLiteRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.QRCode != "" {
		conditions = append(conditions, "qr_code LIKE ?")
		args = append(args, "%"+f.QRCode+"%")
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = ?")
		args = append(args, f.MovementType)
	}
	if f.Location != "" {
		conditions = append(conditions, "(from_location LIKE ? OR to_location LIKE ?)")
		args = append(args, "%"+f.Location+"%", "%"+f.Location+"%")
	}
	if f.CreatedBy != "" {
		conditions = append(conditions, "created_by LIKE ?")
		args = append(args, "%"+f.CreatedBy+"%")
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
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
	if err := q.GetContext(ctx, &count, "SELECT count(*) FROM stock_movements"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC, id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	items := []model.StockMovement{}
	if err := q.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	return items, count, nil
}

func (r *SQLiteRepository) MovementStats(ctx context.Context, from, to *time.Time) (*model.MovementStats, error) {
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
	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	q := database.Conn(ctx, r.DB)

	stats := &model.MovementStats{ByType: []model.MovementTypeStats{}}
	err := q.SelectContext(ctx, &stats.ByType, `
        SELECT
            movement_type,
            COUNT(*) AS count,
            COALESCE(SUM(total), 0) AS total_quantity,
            COUNT(DISTINCT qr_code) AS unique_items,
            COUNT(DISTINCT created_by) AS unique_users
        FROM stock_movements`+whereClause+`
        GROUP BY movement_type
        ORDER BY count DESC, movement_type ASC
    `, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate movements by type: %w", err)
	}

	err = q.QueryRowxContext(ctx, `
        SELECT
            COUNT(*) AS total_movements,
            COUNT(DISTINCT qr_code) AS total_items_moved,
            COUNT(DISTINCT COALESCE(from_location, to_location)) AS total_locations,
            COALESCE(SUM(ABS(total)), 0) AS total_quantity_moved
        FROM stock_movements`+whereClause, args...).StructScan(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate movements: %w", err)
	}
	return stats, nil
}
