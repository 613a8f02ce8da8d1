package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/block"
	"github.com/fekuna/omnipos-stock-service/internal/block/dto"
	"github.com/fekuna/omnipos-stock-service/internal/events"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/qrcode"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

type blockUseCase struct {
	repo      block.Repository
	items     item.Repository
	tx        database.Transactor
	locker    lock.Locker
	publisher events.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewBlockUseCase(
	repo block.Repository,
	items item.Repository,
	tx database.Transactor,
	locker lock.Locker,
	publisher events.Publisher,
	log logger.ZapLogger,
) block.UseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &blockUseCase{
		repo:      repo,
		items:     items,
		tx:        tx,
		locker:    locker,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *blockUseCase) Block(ctx context.Context, input *dto.BlockInput) (*model.ItemBlock, error) {
	code, err := qrcode.Normalize(input.QRCode)
	if err != nil {
		return nil, err
	}
	if !input.BlockType.Valid() {
		return nil, apperr.InvalidRequest("invalid block type %q", input.BlockType)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperr.InvalidRequest("block reason is required")
	}
	actor := strings.TrimSpace(input.BlockedBy)
	if actor == "" {
		return nil, apperr.InvalidRequest("blocked_by is required")
	}

	unlock, err := uc.locker.Lock(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock item %s", code)
	}
	defer unlock()

	b := &model.ItemBlock{
		QRCode:    code,
		BlockType: input.BlockType,
		Reason:    reason,
		Notes:     input.Notes,
		Status:    model.BlockActive,
		BlockedBy: actor,
		BlockedAt: uc.now(),
	}

	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		it, err := uc.items.GetByCode(ctx, code)
		if err != nil {
			return apperr.Storage(err, "failed to get item %s", code)
		}
		if it == nil {
			return apperr.NotFound("item %s not found", code)
		}

		active, err := uc.repo.GetActive(ctx, code)
		if err != nil {
			return apperr.Storage(err, "failed to check block for %s", code)
		}
		if active != nil {
			return apperr.AlreadyBlocked(code, active.ID)
		}

		if _, err := uc.repo.Create(ctx, b); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.AlreadyBlocked(code, 0)
			}
			return apperr.Storage(err, "failed to block item %s", code)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.setItemStatus(ctx, code, model.ItemStatusBlocked)
	uc.logger.Info("item blocked",
		zap.String("qr_code", code),
		zap.Int64("block_id", b.ID),
		zap.String("block_type", string(b.BlockType)),
		zap.String("blocked_by", actor),
	)
	uc.publisher.Publish(ctx, events.New(events.BlockChanged, code, b))
	return b, nil
}

func (uc *blockUseCase) Unblock(ctx context.Context, qrCode, actor, notes string) (*model.ItemBlock, error) {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return nil, err
	}
	return uc.release(ctx, code, actor, notes, func(ctx context.Context) (*model.ItemBlock, error) {
		return uc.repo.GetActive(ctx, code)
	})
}

func (uc *blockUseCase) UnblockByID(ctx context.Context, id int64, actor, notes string) (*model.ItemBlock, error) {
	b, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get block %d", id)
	}
	if b == nil {
		return nil, apperr.NotFound("block %d not found", id)
	}
	return uc.release(ctx, b.QRCode, actor, notes, func(ctx context.Context) (*model.ItemBlock, error) {
		return uc.repo.GetByID(ctx, id)
	})
}

func (uc *blockUseCase) release(
	ctx context.Context,
	code, actor, notes string,
	load func(ctx context.Context) (*model.ItemBlock, error),
) (*model.ItemBlock, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, apperr.InvalidRequest("unblocked_by is required")
	}

	unlock, err := uc.locker.Lock(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock item %s", code)
	}
	defer unlock()

	var b *model.ItemBlock
	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = load(ctx)
		if err != nil {
			return apperr.Storage(err, "failed to get block for %s", code)
		}
		if b == nil || b.Status != model.BlockActive {
			return apperr.NotFound("no active block for item %s", code)
		}

		now := uc.now()
		b.Status = model.BlockReleased
		b.UnblockedBy = &actor
		b.UnblockedAt = &now
		b.Notes = appendNote(b.Notes, unblockNote(notes))

		if err := uc.repo.Release(ctx, b); err != nil {
			return apperr.Storage(err, "failed to release block %d", b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.setItemStatus(ctx, code, model.ItemStatusActive)
	uc.logger.Info("item unblocked",
		zap.String("qr_code", code),
		zap.Int64("block_id", b.ID),
		zap.String("unblocked_by", actor),
	)
	uc.publisher.Publish(ctx, events.New(events.BlockChanged, code, b))
	return b, nil
}

func unblockNote(notes string) string {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		notes = "no notes"
	}
	return "Unblocked: " + notes
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}

// setItemStatus mirrors the block state on the item. The block row is the
// source of truth, so a failure here is only logged. A deleted item keeps
// its status, and only a blocked item goes back to active.
func (uc *blockUseCase) setItemStatus(ctx context.Context, code string, status model.ItemStatus) {
	it, err := uc.items.GetByCode(ctx, code)
	if err == nil && it != nil && !mirrorsBlock(it.Status, status) {
		return
	}
	if err == nil {
		err = uc.items.UpdateStatus(ctx, code, status, uc.now())
	}
	if err != nil {
		uc.logger.Warn("failed to update item status",
			zap.String("qr_code", code),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func mirrorsBlock(current, next model.ItemStatus) bool {
	switch next {
	case model.ItemStatusActive:
		return current == model.ItemStatusBlocked
	case model.ItemStatusBlocked:
		return current != model.ItemStatusDeleted
	}
	return true
}

func (uc *blockUseCase) IsBlocked(ctx context.Context, qrCode string) (bool, error) {
	b, err := uc.ActiveBlock(ctx, qrCode)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

// ActiveBlock returns nil when the item is not blocked.
func (uc *blockUseCase) ActiveBlock(ctx context.Context, qrCode string) (*model.ItemBlock, error) {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return nil, err
	}
	b, err := uc.repo.GetActive(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to check block for %s", code)
	}
	return b, nil
}

func (uc *blockUseCase) List(ctx context.Context, filters *dto.BlockFilters) ([]model.ItemBlock, int, error) {
	list, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to list blocks")
	}
	return list, total, nil
}

func (uc *blockUseCase) History(ctx context.Context, qrCode string) ([]model.ItemBlock, error) {
	code, err := qrcode.Normalize(qrCode)
	if err != nil {
		return nil, err
	}
	list, err := uc.repo.ListByCode(ctx, code)
	if err != nil {
		return nil, apperr.Storage(err, "failed to list block history for %s", code)
	}
	return list, nil
}

func (uc *blockUseCase) Summary(ctx context.Context, from, to *time.Time) ([]model.BlockTypeSummary, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.InvalidRequest("date_to must not be before date_from")
	}
	s, err := uc.repo.Summary(ctx, from, to, uc.now())
	if err != nil {
		return nil, apperr.Storage(err, "failed to summarize blocks")
	}
	return s, nil
}
