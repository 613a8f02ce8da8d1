package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/block"
	"github.com/fekuna/omnipos-stock-service/internal/events"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/qrcode"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	stockdto "github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/variance"
	"github.com/fekuna/omnipos-stock-service/internal/variance/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const defaultStatsWindow = 30 * 24 * time.Hour

type varianceUseCase struct {
	repo      variance.Repository
	items     item.Repository
	stock     stock.UseCase
	tx        database.Transactor
	locker    lock.Locker
	gate      block.Checker
	publisher events.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewVarianceUseCase(
	repo variance.Repository,
	items item.Repository,
	stockUC stock.UseCase,
	tx database.Transactor,
	locker lock.Locker,
	gate block.Checker,
	publisher events.Publisher,
	log logger.ZapLogger,
) variance.UseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &varianceUseCase{
		repo:      repo,
		items:     items,
		stock:     stockUC,
		tx:        tx,
		locker:    locker,
		gate:      gate,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *varianceUseCase) Detect(ctx context.Context, input *dto.DetectInput) (*model.DetectResult, error) {
	code, err := qrcode.Normalize(input.QRCode)
	if err != nil {
		return nil, err
	}
	if b := input.Counted.AnyNegative(); b != "" {
		return nil, apperr.InvalidRequest("counted %s cannot be negative", b)
	}

	unlock, err := uc.locker.Lock(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock item %s", code)
	}
	defer unlock()

	var res *model.DetectResult
	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		snap, err := uc.stock.CurrentStock(ctx, code)
		if err != nil {
			return err
		}
		system := snap.Quantities
		diff := input.Counted.Sub(system)

		if diff.Total() == 0 {
			res = &model.DetectResult{HasVariance: false, Variance: diff}
			return nil
		}

		location := strings.TrimSpace(input.Location)
		if location == "" {
			it, err := uc.items.GetByCode(ctx, code)
			if err != nil {
				return apperr.Storage(err, "failed to get item %s", code)
			}
			if it != nil {
				location = it.Location
			}
		}

		v := &model.InventoryVariance{
			QRCode:            code,
			Location:          location,
			CountedUnrestrict: input.Counted.Unrestrict,
			CountedFOC:        input.Counted.FOC,
			CountedRFB:        input.Counted.RFB,
			SystemUnrestrict:  system.Unrestrict,
			SystemFOC:         system.FOC,
			SystemRFB:         system.RFB,
			Reason:            input.Reason,
			Status:            model.VariancePending,
			CountDate:         uc.now(),
		}
		if _, err := uc.repo.Create(ctx, v); err != nil {
			return apperr.Storage(err, "failed to record variance for %s", code)
		}

		res = &model.DetectResult{
			HasVariance: true,
			VarianceID:  v.ID,
			Variance:    v.Variance(),
			Total:       v.VarianceTotal,
			Kind:        v.Kind(),
			Record:      v,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.HasVariance {
		uc.logger.Info("variance detected",
			zap.String("qr_code", code),
			zap.Int64("variance_id", res.VarianceID),
			zap.Int64("variance_total", res.Total),
		)
	}
	return res, nil
}

// pending loads a variance that can still be resolved.
func (uc *varianceUseCase) pending(ctx context.Context, id int64) (*model.InventoryVariance, error) {
	v, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get variance %d", id)
	}
	if v == nil {
		return nil, apperr.NotFound("variance %d not found", id)
	}
	if v.Status != model.VariancePending {
		return nil, apperr.New(apperr.KindAlreadyProcessed, "variance %d already %s", id, v.Status)
	}
	return v, nil
}

func (uc *varianceUseCase) Approve(ctx context.Context, id int64, approvedBy, reason string) (*model.InventoryVariance, error) {
	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return nil, apperr.InvalidRequest("approved_by is required")
	}

	v, err := uc.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.locker.Lock(ctx, v.QRCode)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock item %s", v.QRCode)
	}
	defer unlock()

	var res *model.MovementResult
	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if v, err = uc.pending(ctx, id); err != nil {
			return err
		}
		if err := uc.gate.Check(ctx, v.QRCode); err != nil {
			return err
		}

		snap, err := uc.stock.CurrentStock(ctx, v.QRCode)
		if err != nil {
			return err
		}
		if snap.Quantities != v.System() {
			return apperr.InvalidState("stock of %s changed since variance %d was detected, detect again", v.QRCode, id)
		}

		if reason == "" {
			reason = "Inventory variance"
		}
		res, err = uc.stock.ApplyInUnit(ctx, &stockdto.MovementInput{
			QRCode:         v.QRCode,
			MovementType:   model.MovementAdjustment,
			Quantities:     v.Counted(),
			AdjustmentMode: stockdto.AdjustSet,
			ToLocation:     v.Location,
			Reason:         "Approved inventory adjustment - " + reason,
			ReferenceDoc:   fmt.Sprintf("VAR-%d", id),
			CreatedBy:      approvedBy,
			Notes:          fmt.Sprintf("Approved adjustment - ID: %d - %s", id, reason),
		})
		if err != nil {
			return err
		}

		now := uc.now()
		v.Status = model.VarianceApproved
		v.ApprovedBy = &approvedBy
		v.ApprovedAt = &now
		return uc.resolve(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("variance approved",
		zap.Int64("variance_id", id),
		zap.String("qr_code", v.QRCode),
		zap.Int64("movement_id", res.MovementID),
		zap.String("approved_by", approvedBy),
	)
	uc.publisher.Publish(ctx, events.New(events.VarianceApproved, v.QRCode, map[string]interface{}{
		"variance": v,
		"movement": res,
	}))
	return v, nil
}

func (uc *varianceUseCase) Reject(ctx context.Context, id int64, rejectedBy, reason string) (*model.InventoryVariance, error) {
	rejectedBy = strings.TrimSpace(rejectedBy)
	if rejectedBy == "" {
		return nil, apperr.InvalidRequest("rejected_by is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason given"
	}

	var v *model.InventoryVariance
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if v, err = uc.pending(ctx, id); err != nil {
			return err
		}

		now := uc.now()
		v.Status = model.VarianceRejected
		v.ApprovedBy = &rejectedBy
		v.ApprovedAt = &now
		if v.Reason == "" {
			v.Reason = "Rejected: " + reason
		} else {
			v.Reason += " | Rejected: " + reason
		}
		return uc.resolve(ctx, v)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("variance rejected", zap.Int64("variance_id", id), zap.String("rejected_by", rejectedBy))
	return v, nil
}

func (uc *varianceUseCase) resolve(ctx context.Context, v *model.InventoryVariance) error {
	ok, err := uc.repo.Resolve(ctx, v)
	if err != nil {
		return apperr.Storage(err, "failed to update variance %d", v.ID)
	}
	if !ok {
		return apperr.New(apperr.KindAlreadyProcessed, "variance %d already processed", v.ID)
	}
	return nil
}

func (uc *varianceUseCase) List(ctx context.Context, filters *dto.VarianceFilters) ([]model.InventoryVariance, int, error) {
	list, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to list variances")
	}
	return list, total, nil
}

func (uc *varianceUseCase) Stats(ctx context.Context, since *time.Time) (*model.VarianceStats, error) {
	from := uc.now().Add(-defaultStatsWindow)
	if since != nil {
		from = *since
	}
	s, err := uc.repo.Stats(ctx, from)
	if err != nil {
		return nil, apperr.Storage(err, "failed to compute variance stats")
	}
	return s, nil
}
