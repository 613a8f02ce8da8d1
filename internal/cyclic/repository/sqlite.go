package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/cyclic/dto"
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

// Create fails with a unique violation on uq_cyclic_counts_active when the
// location already has an active schedule.
func (r *SQLiteRepository) Create(ctx context.Context, c *model.CyclicCount) (int64, error) {
	q := database.Conn(ctx, r.DB)
	query, args, err := q.BindNamed(`
        INSERT INTO cyclic_counts (location, frequency_days, next_count_date, status, created_by, created_at, updated_at)
        VALUES (:location, :frequency_days, :next_count_date, :status, :created_by, :created_at, :updated_at)
        RETURNING id
    `, c)
	if err != nil {
		return 0, err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&c.ID); err != nil {
		return 0, fmt.Errorf("failed to create cyclic count: %w", err)
	}
	return c.ID, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*model.CyclicCount, error) {
	return r.getOne(ctx, `SELECT * FROM cyclic_counts WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetActiveByLocation(ctx context.Context, location string) (*model.CyclicCount, error) {
	return r.getOne(ctx, `SELECT * FROM cyclic_counts WHERE location = ? AND status = 'active'`, location)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.CyclicCount, error) {
	var c model.CyclicCount
	if err := database.Conn(ctx, r.DB).GetContext(ctx, &c, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cyclic count: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, c *model.CyclicCount) error {
	res, err := database.Conn(ctx, r.DB).NamedExecContext(ctx, `
        UPDATE cyclic_counts
        SET location = :location, frequency_days = :frequency_days,
            last_count_date = :last_count_date, next_count_date = :next_count_date,
            status = :status, updated_at = :updated_at
        WHERE id = :id
    `, c)
	if err != nil {
		return fmt.Errorf("failed to update cyclic count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cyclic count %d: %w", c.ID, sql.ErrNoRows)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := database.Conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM cyclic_counts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete cyclic count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) FindAll(ctx context.Context, f *dto.CyclicFilters) ([]model.CyclicCount, error) {
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

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	list := []model.CyclicCount{}
	err := database.Conn(ctx, r.DB).SelectContext(ctx, &list,
		"SELECT * FROM cyclic_counts"+whereClause+" ORDER BY next_count_date ASC, id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cyclic counts: %w", err)
	}
	return list, nil
}
