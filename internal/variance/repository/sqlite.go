package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variance/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLiteRepository struct {
	DB *sqlx.DB
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, v *model.InventoryVariance) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO inventory_variances (
            qr_code, location,
            counted_unrestrict, counted_foc, counted_rfb,
            system_unrestrict, system_foc, system_rfb,
            reason, status, count_date
        ) VALUES (
            :qr_code, :location,
            :counted_unrestrict, :counted_foc, :counted_rfb,
            :system_unrestrict, :system_foc, :system_rfb,
            :reason, :status, :count_date
        )
        RETURNING id, variance_unrestrict, variance_foc, variance_rfb, variance_total
    `, v)
	if err != nil {
		return 0, err
	}
	err = q.QueryRowxContext(ctx, query, args...).
		Scan(&v.ID, &v.VarianceUnrestrict, &v.VarianceFOC, &v.VarianceRFB, &v.VarianceTotal)
	if err != nil {
		return 0, fmt.Errorf("failed to create variance: %w", err)
	}
	return v.ID, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*model.InventoryVariance, error) {
	var v model.InventoryVariance
	err := database.Conn(ctx, r.DB).GetContext(ctx, &v, `SELECT * FROM inventory_variances WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get variance: %w", err)
	}
	return &v, nil
}

func (r *SQLiteRepository) Resolve(ctx context.Context, v *model.InventoryVariance) (bool, error) {
	res, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, `
        UPDATE inventory_variances
        SET status = :status, approved_by = :approved_by, approved_at = :approved_at, reason = :reason
        WHERE id = :id AND status = 'pending'
    `, v)
	if err != nil {
		return false, fmt.Errorf("failed to resolve variance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context, f *dto.VarianceFilters) ([]model.InventoryVariance, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, f.Status)
	}
	if f.Location != "" {
		conditions = append(conditions, "location LIKE ?")
		args = append(args, "%"+f.Location+"%")
	}
	if f.QRCode != "" {
		conditions = append(conditions, "qr_code = ?")
		args = append(args, f.QRCode)
	}
	if f.StartDate != nil {
		conditions = append(conditions, "count_date >= ?")
		args = append(args, f.StartDate.UTC())
	}
	if f.EndDate != nil {
		conditions = append(conditions, "count_date < ?")
		args = append(args, f.EndDate.UTC())
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := database.Conn(ctx, r.DB)

	var count int
	if err := q.GetContext(ctx, &count, "SELECT count(*) FROM inventory_variances"+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count variances: %w", err)
	}

	query := "SELECT * FROM inventory_variances" + whereClause +
		" ORDER BY ABS(variance_total) DESC, count_date DESC, id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	list := []model.InventoryVariance{}
	if err := q.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list variances: %w", err)
	}
	return list, count, nil
}

func (r *SQLiteRepository) Stats(ctx context.Context, since time.Time) (*model.VarianceStats, error) {
	var s model.VarianceStats
	err := database.Conn(ctx, r.DB).GetContext(ctx, &s, `
        SELECT
            COUNT(*) AS total_variances,
            COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_variances,
            COUNT(CASE WHEN status = 'approved' THEN 1 END) AS approved_variances,
            COUNT(CASE WHEN status = 'rejected' THEN 1 END) AS rejected_variances,
            COUNT(CASE WHEN variance_total > 0 THEN 1 END) AS surplus_variances,
            COUNT(CASE WHEN variance_total < 0 THEN 1 END) AS shortage_variances,
            COALESCE(SUM(ABS(variance_total)), 0) AS total_absolute_variance,
            COALESCE(SUM(variance_total), 0) AS net_variance,
            COALESCE(MAX(ABS(variance_total)), 0) AS max_variance,
            COUNT(DISTINCT location) AS locations_with_variances,
            ROUND(
                COUNT(CASE WHEN status = 'approved' THEN 1 END) * 100.0 /
                NULLIF(COUNT(CASE WHEN status IN ('approved', 'rejected') THEN 1 END), 0), 2
            ) AS approval_rate
        FROM inventory_variances
        WHERE count_date >= ?
    `, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to compute variance stats: %w", err)
	}
	return &s, nil
}
