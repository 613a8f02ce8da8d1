package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/block"
	"github.com/fekuna/omnipos-stock-service/internal/events"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	itemdto "github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/qrcode"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

type stockUseCase struct {
	items     item.Repository
	repo      stock.Repository
	tx        database.Transactor
	locker    lock.Locker
	gate      block.Checker
	publisher events.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewStockUseCase(
	items item.Repository,
	repo stock.Repository,
	tx database.Transactor,
	locker lock.Locker,
	gate block.Checker,
	publisher events.Publisher,
	log logger.ZapLogger,
) stock.UseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &stockUseCase{
		items:     items,
		repo:      repo,
		tx:        tx,
		locker:    locker,
		gate:      gate,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *stockUseCase) lock(ctx context.Context, qrCode string) (func(), error) {
	unlock, err := uc.locker.Lock(ctx, qrCode)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock item %s", qrCode)
	}
	return unlock, nil
}

func (uc *stockUseCase) RegisterItem(ctx context.Context, input *dto.RegisterItemInput) (*model.Item, error) {
	code, err := qrcode.Normalize(input.QRCode)
	if err != nil {
		return nil, err
	}

	unlock, err := uc.lock(ctx, code)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var it *model.Item
	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.items.GetByCode(ctx, code)
		if err != nil {
			return apperr.Storage(err, "failed to get item %s", code)
		}
		now := uc.now()

		if existing != nil {
			if input.Description != "" {
				existing.Description = input.Description
			}
			if input.Location != "" {
				existing.Location = input.Location
			}
			if input.Notes != "" {
				existing.Notes = input.Notes
			}
			existing.UpdatedAt = now
			if err := uc.items.UpdateDetails(ctx, existing); err != nil {
				return apperr.Storage(err, "failed to update item %s", code)
			}
			it = existing
			return nil
		}

		it = &model.Item{
			QRCode:      code,
			Description: input.Description,
			Location:    input.Location,
			Notes:       input.Notes,
			Status:      model.ItemStatusActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := uc.items.Create(ctx, it); err != nil {
			return apperr.Storage(err, "failed to create item %s", code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (uc *stockUseCase) GetItem(ctx context.Context, qrCode string) (*model.Item, error) {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return nil, err
	}
	it, err := uc.items.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get item %s", code)
	}
	if it == nil {
		return nil, apperr.NotFound("item %s not found", code)
	}
	return it, nil
}

func (uc *stockUseCase) ListItems(ctx context.Context, filters *itemdto.ItemFilters) ([]model.ItemWithStock, int, error) {
	list, total, err := uc.items.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to list items")
	}
	return list, total, nil
}

func (uc *stockUseCase) DeleteItem(ctx context.Context, qrCode string) error {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return err
	}
	unlock, err := uc.lock(ctx, code)
	if err != nil {
		return err
	}
	defer unlock()

	it, err := uc.GetItem(ctx, code)
	if err != nil {
		return err
	}
	if err := uc.items.UpdateStatus(ctx, it.QRCode, model.ItemStatusDeleted, uc.now()); err != nil {
		return apperr.Storage(err, "failed to delete item %s", it.QRCode)
	}
	uc.logger.Info("item deleted", zap.String("qr_code", it.QRCode))
	return nil
}

func (uc *stockUseCase) RecordCount(ctx context.Context, input *dto.RecordCountInput) (int64, error) {
	code, err := qrcode.Normalize(input.QRCode)
	if err != nil {
		return 0, err
	}
	if b := input.Quantities.AnyNegative(); b != "" {
		return 0, apperr.InvalidRequest("%s quantity cannot be negative", b)
	}
	countType := input.CountType
	if countType == "" {
		countType = model.CountTypeManual
	}
	if !countType.Valid() {
		return 0, apperr.InvalidRequest("invalid count type %q", countType)
	}

	unlock, err := uc.lock(ctx, code)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var count *model.StockCount
	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.gate.Check(ctx, code); err != nil {
			return err
		}

		it, err := uc.getOrCreate(ctx, code, input.Description, input.Location)
		if err != nil {
			return err
		}

		count = &model.StockCount{
			ItemID:     it.ID,
			QRCode:     code,
			Quantities: input.Quantities,
			CountType:  countType,
			CountDate:  uc.now(),
			Notes:      input.Notes,
		}
		if _, err := uc.repo.InsertCount(ctx, count); err != nil {
			return apperr.Storage(err, "failed to record count for %s", code)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	uc.logger.Info("stock count recorded",
		zap.String("qr_code", code),
		zap.Int64("count_id", count.ID),
		zap.Int64("total", count.Quantities.Total()),
	)
	uc.publisher.Publish(ctx, events.New(events.CountRecorded, code, count))
	return count.ID, nil
}

func (uc *stockUseCase) getOrCreate(ctx context.Context, code, description, location string) (*model.Item, error) {
	it, err := uc.items.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get item %s", code)
	}
	if it != nil {
		return it, nil
	}

	now := uc.now()
	it = &model.Item{
		QRCode:      code,
		Description: description,
		Location:    location,
		Status:      model.ItemStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := uc.items.Create(ctx, it); err != nil {
		return nil, apperr.Storage(err, "failed to create item %s", code)
	}
	uc.logger.Debug("item created on first write", zap.String("qr_code", code))
	return it, nil
}

func (uc *stockUseCase) CurrentStock(ctx context.Context, qrCode string) (*model.StockSnapshot, error) {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return nil, err
	}
	c, err := uc.repo.LatestCount(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to read stock for %s", code)
	}
	if c == nil {
		return model.EmptySnapshot(code), nil
	}
	return model.SnapshotFromCount(c), nil
}

func (uc *stockUseCase) CountedStock(ctx context.Context, qrCode string) (*model.StockSnapshot, error) {
	snap, err := uc.CurrentStock(ctx, qrCode)
	if err != nil {
		return nil, err
	}
	if !snap.EverCounted {
		return nil, apperr.NotFound("item %s has never been counted", snap.QRCode)
	}
	return snap, nil
}

func (uc *stockUseCase) History(ctx context.Context, qrCode string) ([]model.StockCount, error) {
	it, err := uc.GetItem(ctx, qrCode)
	if err != nil {
		return nil, err
	}
	counts, err := uc.repo.ListCounts(ctx, it.QRCode)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list counts for %s", it.QRCode)
	}
	return counts, nil
}

func (uc *stockUseCase) ApplyMovement(ctx context.Context, input *dto.MovementInput) (*model.MovementResult, error) {
	code, err := qrcode.Normalize(input.QRCode)
	if err != nil {
		return nil, err
	}
	if input.MovementType == model.MovementTransfer {
		return nil, apperr.InvalidRequest("transfer movements are created by the transfer workflow")
	}
	in := *input
	in.QRCode = code

	unlock, err := uc.lock(ctx, code)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var res *model.MovementResult
	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.gate.Check(ctx, code); err != nil {
			return err
		}
		var err error
		res, err = uc.apply(ctx, &in)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("movement applied",
		zap.String("qr_code", code),
		zap.String("movement_type", string(in.MovementType)),
		zap.Int64("movement_id", res.MovementID),
		zap.Int64("new_total", res.NewTotal),
	)
	uc.publisher.Publish(ctx, events.New(events.MovementApplied, code, res))
	return res, nil
}

func (uc *stockUseCase) ApplyInUnit(ctx context.Context, input *dto.MovementInput) (*model.MovementResult, error) {
	if !database.InTx(ctx) {
		return nil, apperr.InvalidState("movement for %s must run inside a transaction", input.QRCode)
	}
	code, err := qrcode.Normalize(input.QRCode)
	if err != nil {
		return nil, err
	}
	in := *input
	in.QRCode = code
	return uc.apply(ctx, &in)
}

// apply runs the read-check-write for one movement. The caller holds the
// item lock and ctx carries the transaction.
func (uc *stockUseCase) apply(ctx context.Context, in *dto.MovementInput) (*model.MovementResult, error) {
	if !in.MovementType.Valid() {
		return nil, apperr.InvalidRequest("invalid movement type %q", in.MovementType)
	}
	if in.CreatedBy == "" {
		return nil, apperr.InvalidRequest("created_by is required")
	}

	it, err := uc.items.GetByCode(ctx, in.QRCode)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get item %s", in.QRCode)
	}
	latest, err := uc.repo.LatestCount(ctx, in.QRCode)
	if err != nil {
		return nil, apperr.Storage(err, "failed to read stock for %s", in.QRCode)
	}
	var current model.Quantities
	if latest != nil {
		current = latest.Quantities
	}

	var applied, next model.Quantities
	countType := model.CountTypeMovement

	switch in.MovementType {
	case model.MovementIn:
		if err := validateDirected(in.Quantities); err != nil {
			return nil, err
		}
		if it == nil {
			if it, err = uc.getOrCreate(ctx, in.QRCode, "", in.ToLocation); err != nil {
				return nil, err
			}
		}
		applied = in.Quantities
		next = current.Add(in.Quantities)

	case model.MovementOut:
		if err := validateDirected(in.Quantities); err != nil {
			return nil, err
		}
		if it == nil || latest == nil {
			return nil, apperr.NotFound("item %s has no counted stock", in.QRCode)
		}
		if err := stock.CheckAvailable(in.QRCode, current, in.Quantities); err != nil {
			return nil, err
		}
		applied = in.Quantities
		next = current.Sub(in.Quantities)

	case model.MovementAdjustment:
		countType = model.CountTypeAdjustment
		switch in.AdjustmentMode {
		case dto.AdjustSet, "":
			if b := in.Quantities.AnyNegative(); b != "" {
				return nil, apperr.InvalidRequest("%s quantity cannot be negative", b)
			}
			next = in.Quantities
			applied = next.Sub(current)
		case dto.AdjustDelta:
			if in.Quantities.IsZero() {
				return nil, apperr.InvalidRequest("adjustment must change at least one quantity")
			}
			if err := stock.CheckAvailable(in.QRCode, current, in.Quantities.Neg()); err != nil {
				return nil, err
			}
			applied = in.Quantities
			next = current.Add(in.Quantities)
		default:
			return nil, apperr.InvalidRequest("invalid adjustment mode %q", in.AdjustmentMode)
		}
		if it == nil {
			if it, err = uc.getOrCreate(ctx, in.QRCode, "", firstNonEmpty(in.ToLocation, in.FromLocation)); err != nil {
				return nil, err
			}
		}

	case model.MovementTransfer:
		if in.Quantities.IsZero() {
			return nil, apperr.InvalidRequest("transfer leg must move at least one quantity")
		}
		if it == nil || latest == nil {
			return nil, apperr.NotFound("item %s has no counted stock", in.QRCode)
		}
		if err := stock.CheckAvailable(in.QRCode, current, in.Quantities.Neg()); err != nil {
			return nil, err
		}
		applied = in.Quantities
		next = current.Add(in.Quantities)
	}

	now := uc.now()
	notes := in.Notes
	if notes == "" {
		notes = movementNote(in)
	}

	count := &model.StockCount{
		ItemID:     it.ID,
		QRCode:     in.QRCode,
		Quantities: next,
		CountType:  countType,
		CountDate:  now,
		Notes:      notes,
	}
	if _, err := uc.repo.InsertCount(ctx, count); err != nil {
		return nil, apperr.Storage(err, "failed to write ledger entry for %s", in.QRCode)
	}

	mv := &model.StockMovement{
		QRCode:       in.QRCode,
		MovementType: in.MovementType,
		FromLocation: optional(in.FromLocation),
		ToLocation:   optional(in.ToLocation),
		Quantities:   applied,
		Reason:       in.Reason,
		ReferenceDoc: in.ReferenceDoc,
		CreatedBy:    in.CreatedBy,
		Status:       model.MovementCompleted,
		StockCountID: count.ID,
		CreatedAt:    now,
	}
	if _, err := uc.repo.InsertMovement(ctx, mv); err != nil {
		return nil, apperr.Storage(err, "failed to write movement for %s", in.QRCode)
	}

	return &model.MovementResult{
		MovementID:   mv.ID,
		StockCountID: count.ID,
		Previous:     current,
		Applied:      applied,
		NewStock:     next,
		NewTotal:     next.Total(),
	}, nil
}

// validateDirected checks in/out quantities: none negative, one positive.
func validateDirected(q model.Quantities) error {
	if b := q.AnyNegative(); b != "" {
		return apperr.InvalidRequest("%s quantity cannot be negative", b)
	}
	if !q.AnyPositive() {
		return apperr.InvalidRequest("at least one quantity must be greater than zero")
	}
	return nil
}

func movementNote(in *dto.MovementInput) string {
	var label string
	switch in.MovementType {
	case model.MovementIn:
		label = "In"
	case model.MovementOut:
		label = "Out"
	case model.MovementTransfer:
		label = "Transfer"
	default:
		label = "Adjustment"
	}
	note := label
	if in.Reason != "" {
		note += " - " + in.Reason
	}
	if in.ReferenceDoc != "" {
		note += " - Ref: " + in.ReferenceDoc
	}
	return note
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (uc *stockUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	list, total, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to list movements")
	}
	return list, total, nil
}

func (uc *stockUseCase) MovementHistory(ctx context.Context, qrCode string, limit int) ([]model.StockMovement, error) {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	list, _, err := uc.repo.ListMovements(ctx, &dto.MovementFilters{QRCode: code, Page: 1, PageSize: limit})
	if err != nil {
		return nil, apperr.Storage(err, "failed to list movements for %s", code)
	}
	return list, nil
}

func (uc *stockUseCase) MovementStats(ctx context.Context, from, to *time.Time) (*model.MovementStats, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.InvalidRequest("date_to must not be before date_from")
	}
	stats, err := uc.repo.MovementStats(ctx, from, to)
	if err != nil {
		return nil, apperr.Storage(err, "failed to compute movement stats")
	}
	return stats, nil
}
