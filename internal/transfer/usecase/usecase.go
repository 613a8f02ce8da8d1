package usecase

import (
	"context"
	"fmt"
	"sort"
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
	"github.com/fekuna/omnipos-stock-service/internal/transfer"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

type transferUseCase struct {
	repo      transfer.Repository
	items     item.Repository
	stock     stock.UseCase
	tx        database.Transactor
	locker    lock.Locker
	gate      block.Checker
	publisher events.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewTransferUseCase(
	repo transfer.Repository,
	items item.Repository,
	stockUC stock.UseCase,
	tx database.Transactor,
	locker lock.Locker,
	gate block.Checker,
	publisher events.Publisher,
	log logger.ZapLogger,
) transfer.UseCase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &transferUseCase{
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

// transferNumber is TR followed by the UTC creation time to the second.
func transferNumber(at time.Time) string {
	return "TR" + at.UTC().Format("20060102150405")
}

func (uc *transferUseCase) Create(ctx context.Context, input *dto.CreateTransferInput) (*model.LocationTransfer, error) {
	from := strings.TrimSpace(input.FromLocation)
	to := strings.TrimSpace(input.ToLocation)
	actor := strings.TrimSpace(input.CreatedBy)
	switch {
	case from == "" || to == "":
		return nil, apperr.InvalidRequest("from_location and to_location are required")
	case from == to:
		return nil, apperr.InvalidRequest("source and destination locations must be different")
	case len(input.Items) == 0:
		return nil, apperr.InvalidRequest("transfer must contain at least one item")
	case actor == "":
		return nil, apperr.InvalidRequest("created_by is required")
	}

	lines := make([]model.TransferItem, 0, len(input.Items))
	requested := map[string]model.Quantities{}
	for i, it := range input.Items {
		code, err := qrcode.Normalize(it.QRCode)
		if err != nil {
			return nil, apperr.InvalidRequest("item %d: %s", i+1, err.Error())
		}
		if b := it.Quantities.AnyNegative(); b != "" {
			return nil, apperr.InvalidRequest("item %d: %s quantity cannot be negative", i+1, b)
		}
		if !it.Quantities.AnyPositive() {
			return nil, apperr.InvalidRequest("item %d: at least one quantity must be greater than zero", i+1)
		}
		requested[code] = requested[code].Add(it.Quantities)
		lines = append(lines, model.TransferItem{
			QRCode:     code,
			Quantities: it.Quantities,
			Status:     model.TransferItemPending,
		})
	}
	codes := sortedCodes(requested)

	unlock, err := uc.locker.Lock(ctx, codes...)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock transfer items")
	}
	defer unlock()

	now := uc.now()
	t := &model.LocationTransfer{
		TransferNumber: transferNumber(now),
		FromLocation:   from,
		ToLocation:     to,
		TotalItems:     len(lines),
		Status:         model.TransferPending,
		Notes:          input.Notes,
		CreatedBy:      actor,
		CreatedAt:      now,
	}

	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, code := range codes {
			if err := uc.checkAvailableAt(ctx, code, from, requested[code]); err != nil {
				return err
			}
		}

		if _, err := uc.repo.Create(ctx, t); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.New(apperr.KindConflict, "transfer number %s already exists, retry", t.TransferNumber)
			}
			return apperr.Storage(err, "failed to create transfer")
		}
		for i := range lines {
			lines[i].TransferID = t.ID
			if _, err := uc.repo.AddItem(ctx, &lines[i]); err != nil {
				return apperr.Storage(err, "failed to add transfer item %s", lines[i].QRCode)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.Items = lines

	uc.logger.Info("transfer created",
		zap.Int64("transfer_id", t.ID),
		zap.String("transfer_number", t.TransferNumber),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("total_items", t.TotalItems),
	)
	uc.publisher.Publish(ctx, events.New(events.TransferCreated, t.TransferNumber, t))
	return t, nil
}

// checkAvailableAt treats an item's stock as held at its recorded
// location only; anywhere else it has none.
func (uc *transferUseCase) checkAvailableAt(ctx context.Context, code, location string, want model.Quantities) error {
	if err := uc.gate.Check(ctx, code); err != nil {
		return err
	}
	it, err := uc.items.GetByCode(ctx, code)
	if err != nil {
		return apperr.Storage(err, "failed to get item %s", code)
	}
	if it == nil {
		return apperr.NotFound("item %s not found", code)
	}

	var available model.Quantities
	if it.Location == location {
		snap, err := uc.stock.CurrentStock(ctx, code)
		if err != nil {
			return err
		}
		available = snap.Quantities
	}
	return stock.CheckAvailable(code, available, want)
}

func (uc *transferUseCase) Approve(ctx context.Context, id int64, approvedBy string) (*model.LocationTransfer, error) {
	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return nil, apperr.InvalidRequest("approved_by is required")
	}

	var t *model.LocationTransfer
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if t, err = uc.load(ctx, id); err != nil {
			return err
		}
		if t.Status != model.TransferPending {
			return apperr.InvalidState("cannot approve transfer with status: %s", t.Status)
		}

		now := uc.now()
		t.Status = model.TransferInTransit
		t.ApprovedBy = &approvedBy
		t.ApprovedAt = &now
		return uc.transition(ctx, t, model.TransferPending)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("transfer approved", zap.Int64("transfer_id", id), zap.String("approved_by", approvedBy))
	return t, nil
}

func (uc *transferUseCase) Receive(ctx context.Context, id int64, receivedBy string) (*model.LocationTransfer, error) {
	receivedBy = strings.TrimSpace(receivedBy)
	if receivedBy == "" {
		return nil, apperr.InvalidRequest("received_by is required")
	}

	// Read the lines first to know which item locks to take; the status is
	// checked again once the locks are held.
	t, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TransferInTransit {
		return nil, apperr.InvalidState("cannot receive transfer with status: %s", t.Status)
	}
	codes := make([]string, 0, len(t.Items))
	for _, l := range t.Items {
		codes = append(codes, l.QRCode)
	}

	unlock, err := uc.locker.Lock(ctx, codes...)
	if err != nil {
		return nil, apperr.Storage(err, "failed to lock transfer items")
	}
	defer unlock()

	err = uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if t, err = uc.load(ctx, id); err != nil {
			return err
		}
		if t.Status != model.TransferInTransit {
			return apperr.InvalidState("cannot receive transfer with status: %s", t.Status)
		}

		// Each item must still sit at the source with the summed line
		// quantities on hand.
		want := map[string]model.Quantities{}
		for _, l := range t.Items {
			want[l.QRCode] = want[l.QRCode].Add(l.Quantities)
		}
		for _, code := range sortedCodes(want) {
			if err := uc.checkAvailableAt(ctx, code, t.FromLocation, want[code]); err != nil {
				return err
			}
		}

		now := uc.now()
		ref := t.TransferNumber
		for i := range t.Items {
			line := &t.Items[i]
			if err := uc.repo.MarkItemReceived(ctx, line.ID, receivedBy, now); err != nil {
				return apperr.Storage(err, "failed to receive transfer item %s", line.QRCode)
			}

			_, err := uc.stock.ApplyInUnit(ctx, &stockdto.MovementInput{
				QRCode:       line.QRCode,
				MovementType: model.MovementTransfer,
				Quantities:   line.Quantities.Neg(),
				FromLocation: t.FromLocation,
				Reason:       fmt.Sprintf("Transfer out to %s", t.ToLocation),
				ReferenceDoc: ref,
				CreatedBy:    receivedBy,
			})
			if err != nil {
				return err
			}

			if err := uc.items.UpdateLocation(ctx, line.QRCode, t.ToLocation, now); err != nil {
				return apperr.Storage(err, "failed to move item %s", line.QRCode)
			}

			_, err = uc.stock.ApplyInUnit(ctx, &stockdto.MovementInput{
				QRCode:       line.QRCode,
				MovementType: model.MovementTransfer,
				Quantities:   line.Quantities,
				ToLocation:   t.ToLocation,
				Reason:       fmt.Sprintf("Transfer in from %s", t.FromLocation),
				ReferenceDoc: ref,
				CreatedBy:    receivedBy,
			})
			if err != nil {
				return err
			}

			line.Status = model.TransferItemReceived
			line.ReceivedBy = &receivedBy
			line.ReceivedAt = &now
		}

		t.Status = model.TransferCompleted
		t.CompletedBy = &receivedBy
		t.CompletedAt = &now
		return uc.transition(ctx, t, model.TransferInTransit)
	})
	if err != nil {
		uc.logger.Warn("transfer receive rolled back", zap.Int64("transfer_id", id), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("transfer completed",
		zap.Int64("transfer_id", id),
		zap.String("transfer_number", t.TransferNumber),
		zap.String("received_by", receivedBy),
	)
	uc.publisher.Publish(ctx, events.New(events.TransferCompleted, t.TransferNumber, t))
	return t, nil
}

func (uc *transferUseCase) Cancel(ctx context.Context, id int64, cancelledBy, reason string) (*model.LocationTransfer, error) {
	cancelledBy = strings.TrimSpace(cancelledBy)
	if cancelledBy == "" {
		return nil, apperr.InvalidRequest("cancelled_by is required")
	}

	var t *model.LocationTransfer
	err := uc.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if t, err = uc.load(ctx, id); err != nil {
			return err
		}
		if t.Status != model.TransferPending && t.Status != model.TransferInTransit {
			return apperr.InvalidState("cannot cancel transfer with status: %s", t.Status)
		}
		for _, l := range t.Items {
			if l.Status == model.TransferItemReceived {
				return apperr.InvalidState("cannot cancel transfer %s: item %s already received", t.TransferNumber, l.QRCode)
			}
		}

		prev := t.Status
		now := uc.now()
		t.Status = model.TransferCancelled
		t.CancelledBy = &cancelledBy
		t.CancelledAt = &now
		note := fmt.Sprintf("Cancelled by %s: %s", cancelledBy, strings.TrimSpace(reason))
		if t.Notes == "" {
			t.Notes = note
		} else {
			t.Notes += "\n" + note
		}
		return uc.transition(ctx, t, prev)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("transfer cancelled", zap.Int64("transfer_id", id), zap.String("cancelled_by", cancelledBy))
	uc.publisher.Publish(ctx, events.New(events.TransferCancelled, t.TransferNumber, t))
	return t, nil
}

func (uc *transferUseCase) transition(ctx context.Context, t *model.LocationTransfer, expected model.TransferStatus) error {
	ok, err := uc.repo.UpdateStatus(ctx, t, expected)
	if err != nil {
		return apperr.Storage(err, "failed to update transfer %d", t.ID)
	}
	if !ok {
		return apperr.InvalidState("transfer %d is no longer %s", t.ID, expected)
	}
	return nil
}

func (uc *transferUseCase) load(ctx context.Context, id int64) (*model.LocationTransfer, error) {
	t, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage(err, "failed to get transfer %d", id)
	}
	if t == nil {
		return nil, apperr.NotFound("transfer %d not found", id)
	}
	if t.Items, err = uc.repo.ListItems(ctx, id); err != nil {
		return nil, apperr.Storage(err, "failed to get items of transfer %d", id)
	}
	return t, nil
}

func (uc *transferUseCase) Get(ctx context.Context, id int64) (*model.LocationTransfer, error) {
	return uc.load(ctx, id)
}

func (uc *transferUseCase) List(ctx context.Context, filters *dto.TransferFilters) ([]model.LocationTransfer, int, error) {
	list, total, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperr.Storage(err, "failed to list transfers")
	}
	return list, total, nil
}

func (uc *transferUseCase) Summary(ctx context.Context, from, to *time.Time) ([]model.TransferStatusSummary, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.InvalidRequest("date_to must not be before date_from")
	}
	s, err := uc.repo.Summary(ctx, from, to)
	if err != nil {
		return nil, apperr.Storage(err, "failed to summarize transfers")
	}
	return s, nil
}

func sortedCodes(m map[string]model.Quantities) []string {
	codes := make([]string, 0, len(m))
	for c := range m {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
