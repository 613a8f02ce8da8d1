package usecase

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/cyclic"
	"github.com/fekuna/omnipos-stock-service/internal/cyclic/dto"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const (
	day = 24 * time.Hour
	// dueSoonWindow marks schedules due within the next three days.
	dueSoonWindow = 3 * day
)

type cyclicUseCase struct {
	repo         cyclic.Repository
	items        item.Repository
	tx           database.Transactor
	fallbackDays int
	logger       logger.ZapLogger
	now          func() time.Time
}

// NewCyclicUseCase uses fallbackDays as the overdue threshold for
// locations without an active schedule.
func NewCyclicUseCase(
	repo cyclic.Repository,
	items item.Repository,
	tx database.Transactor,
	fallbackDays int,
	log logger.ZapLogger,
) cyclic.UseCase {
	if fallbackDays <= 0 {
		fallbackDays = 30
	}
	return &cyclicUseCase{
		repo:         repo,
		items:        items,
		tx:           tx,
		fallbackDays: fallbackDays,
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (uc *cyclicUseCase) Schedule(ctx context.Context, location string, frequencyDays int, createdBy string) (*model.CyclicCount, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperr.InvalidRequest("location is required")
	}
	if frequencyDays < 1 {
		return nil, apperr.InvalidRequest("frequency_days must be at least 1")
	}

	now := uc.now()
	c := &model.CyclicCount{
		Location:      location,
		FrequencyDays: frequencyDays,
		NextCountDate: now.Add(time.Duration(frequencyDays) * day),
		Status:        model.CyclicActive,
		CreatedBy:     strings.TrimSpace(createdBy),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.repo.GetActiveByLocation(ctx, location)
		if err != nil {
			return apperr.Storage(err, "failed to check schedule for %s", location)
		}
		if existing != nil {
			return duplicateLocation(location)
		}
		if _, err := uc.repo.Create(ctx, c); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateLocation(location)
			}
			return apperr.Storage(err, "failed to schedule cyclic count for %s", location)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("cyclic count scheduled",
		zap.Int64("cyclic_id", c.ID),
		zap.String("location", location),
		zap.Int("frequency_days", frequencyDays),
	)
	return c, nil
}

func duplicateLocation(location string) error {
	return apperr.New(apperr.KindDuplicateLocation, "an active cyclic count already exists for location %s", location)
}

func (uc *cyclicUseCase) get(ctx context.Context, id int64) (*model.CyclicCount, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get cyclic count %d", id)
	}
	if c == nil {
		return nil, apperr.NotFound("cyclic count %d not found", id)
	}
	return c, nil
}

func (uc *cyclicUseCase) Execute(ctx context.Context, id int64, executedBy string) (*model.ExecuteResult, error) {
	var res *model.ExecuteResult
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		c, err := uc.get(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != model.CyclicActive {
			return apperr.New(apperr.KindInactive, "cyclic count %d is %s", id, c.Status)
		}

		items, err := uc.items.ListByLocation(ctx, c.Location, model.ItemStatusActive)
		if err != nil {
			return apperr.Storage(err, "failed to list items at %s", c.Location)
		}

		now := uc.now()
		c.LastCountDate = &now
		c.NextCountDate = now.Add(time.Duration(c.FrequencyDays) * day)
		c.UpdatedAt = now
		if err := uc.repo.Update(ctx, c); err != nil {
			return apperr.Storage(err, "failed to update cyclic count %d", id)
		}

		res = &model.ExecuteResult{
			CyclicCount: c,
			Location:    c.Location,
			ItemsCount:  len(items),
			Items:       items,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("cyclic count executed",
		zap.Int64("cyclic_id", id),
		zap.String("location", res.Location),
		zap.Int("items_count", res.ItemsCount),
		zap.String("executed_by", executedBy),
	)
	return res, nil
}

func (uc *cyclicUseCase) PendingFor(ctx context.Context, location string) ([]model.PendingItem, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperr.InvalidRequest("location is required")
	}

	threshold := uc.fallbackDays
	sched, err := uc.repo.GetActiveByLocation(ctx, location)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get schedule for %s", location)
	}
	if sched != nil {
		threshold = sched.FrequencyDays
	}

	items, err := uc.items.ListByLocation(ctx, location, model.ItemStatusActive)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list items at %s", location)
	}

	cutoff := uc.now().Add(-time.Duration(threshold) * day)
	pending := make([]model.PendingItem, 0, len(items))
	for _, it := range items {
		status := model.CountCurrent
		switch {
		case !it.LastCountDate.Valid:
			status = model.CountNeverCounted
		case it.LastCountDate.Time.Before(cutoff):
			status = model.CountOverdue
		}
		pending = append(pending, model.PendingItem{Item: it, CountStatus: status, ThresholdDays: threshold})
	}
	return pending, nil
}

func (uc *cyclicUseCase) List(ctx context.Context, filters *dto.CyclicFilters) ([]model.CyclicCount, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, apperr.InvalidRequest("invalid status %q", filters.Status)
	}
	list, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list cyclic counts")
	}
	return list, nil
}

func (uc *cyclicUseCase) Update(ctx context.Context, id int64, input *dto.UpdateCyclicInput) (*model.CyclicCount, error) {
	var c *model.CyclicCount
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = uc.get(ctx, id); err != nil {
			return err
		}

		if input.Location != nil {
			loc := strings.TrimSpace(*input.Location)
			if loc == "" {
				return apperr.InvalidRequest("location is required")
			}
			c.Location = loc
		}
		if input.Status != nil {
			if !input.Status.Valid() {
				return apperr.InvalidRequest("invalid status %q", *input.Status)
			}
			c.Status = *input.Status
		}
		if input.FrequencyDays != nil {
			if *input.FrequencyDays < 1 {
				return apperr.InvalidRequest("frequency_days must be at least 1")
			}
			if *input.FrequencyDays != c.FrequencyDays {
				c.FrequencyDays = *input.FrequencyDays
				base := c.CreatedAt
				if c.LastCountDate != nil {
					base = *c.LastCountDate
				}
				c.NextCountDate = base.Add(time.Duration(c.FrequencyDays) * day)
			}
		}

		if c.Status == model.CyclicActive {
			other, err := uc.repo.GetActiveByLocation(ctx, c.Location)
			if err != nil {
				return apperr.Storage(err, "failed to check schedule for %s", c.Location)
			}
			if other != nil && other.ID != c.ID {
				return duplicateLocation(c.Location)
			}
		}

		c.UpdatedAt = uc.now()
		if err := uc.repo.Update(ctx, c); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateLocation(c.Location)
			}
			return apperr.Storage(err, "failed to update cyclic count %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *cyclicUseCase) Delete(ctx context.Context, id int64) error {
	ok, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return apperr.Storage(err, "failed to delete cyclic count %d", id)
	}
	if !ok {
		return apperr.NotFound("cyclic count %d not found", id)
	}
	uc.logger.Info("cyclic count deleted", zap.Int64("cyclic_id", id))
	return nil
}

func (uc *cyclicUseCase) Performance(ctx context.Context) ([]model.CyclicPerformance, error) {
	scheds, err := uc.repo.FindAll(ctx, &dto.CyclicFilters{Status: model.CyclicActive})
	if err != nil {
		return nil, apperr.Storage(err, "failed to list cyclic counts")
	}

	now := uc.now()
	out := make([]model.CyclicPerformance, 0, len(scheds))
	for _, c := range scheds {
		items, err := uc.items.ListByLocation(ctx, c.Location, model.ItemStatusActive)
		if err != nil {
			return nil, apperr.Storage(err, "failed to list items at %s", c.Location)
		}

		cutoff := now.Add(-time.Duration(c.FrequencyDays) * day)
		onTime := 0
		for _, it := range items {
			if it.LastCountDate.Valid && !it.LastCountDate.Time.Before(cutoff) {
				onTime++
			}
		}

		p := model.CyclicPerformance{
			CyclicCount:        c,
			TotalItems:         len(items),
			ItemsCountedOnTime: onTime,
			ScheduleStatus:     scheduleStatus(c.NextCountDate, now),
		}
		if len(items) > 0 {
			pct := math.Round(float64(onTime)*10000/float64(len(items))) / 100
			p.CompliancePercent = &pct
		}
		out = append(out, p)
	}
	return out, nil
}

func scheduleStatus(next, now time.Time) model.ScheduleStatus {
	switch {
	case !next.After(now):
		return model.ScheduleOverdue
	case !next.After(now.Add(dueSoonWindow)):
		return model.ScheduleDueSoon
	}
	return model.ScheduleOnSchedule
}
