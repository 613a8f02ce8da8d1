package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	blockRepo "github.com/fekuna/omnipos-stock-service/internal/block/repository"
	blockUC "github.com/fekuna/omnipos-stock-service/internal/block/usecase"
	itemRepo "github.com/fekuna/omnipos-stock-service/internal/item/repository"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	stockRepo "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/testutil"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

type fixture struct {
	uc     *stockUseCase
	repo   *stockRepo.SQLiteRepository
	blocks *blockRepo.SQLiteRepository
}

func newFixture(t *testing.T, mode blockUC.Mode) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.NewNop()

	blocks := blockRepo.NewSQLiteRepository(db)
	repo := stockRepo.NewSQLiteRepository(db)
	uc := NewStockUseCase(
		itemRepo.NewSQLiteRepository(db),
		repo,
		database.NewTxManager(db),
		lock.NewKeyedMutex(),
		blockUC.NewGate(blocks, mode, log),
		nil,
		log,
	)
	return &fixture{uc: uc.(*stockUseCase), repo: repo, blocks: blocks}
}

func (f *fixture) count(t *testing.T, code string, q model.Quantities) {
	t.Helper()
	if _, err := f.uc.RecordCount(context.Background(), &dto.RecordCountInput{QRCode: code, Quantities: q}); err != nil {
		t.Fatalf("failed to record count: %v", err)
	}
}

func (f *fixture) block(t *testing.T, code string) int64 {
	t.Helper()
	b := &model.ItemBlock{
		QRCode:    code,
		BlockType: model.BlockMaintenance,
		Reason:    "damaged rack",
		Status:    model.BlockActive,
		BlockedBy: "qa",
		BlockedAt: time.Now().UTC(),
	}
	id, err := f.blocks.Create(context.Background(), b)
	if err != nil {
		t.Fatalf("failed to create block: %v", err)
	}
	return id
}

func TestRecordCountThenCurrentStock(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := strings.Repeat("A", 17)

	id, err := f.uc.RecordCount(ctx, &dto.RecordCountInput{
		QRCode:     strings.ToLower(code),
		Quantities: model.Quantities{Unrestrict: 10, FOC: 2, RFB: 1},
		Location:   "WH-A",
	})
	if err != nil {
		t.Fatalf("RecordCount: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a count id")
	}

	snap, err := f.uc.CurrentStock(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.EverCounted || snap.Total != 13 || snap.Unrestrict != 10 || snap.FOC != 2 || snap.RFB != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	it, err := f.uc.GetItem(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if it.Location != "WH-A" {
		t.Errorf("expected auto-created item at WH-A, got %q", it.Location)
	}
}

func TestRecordCountValidation(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.RecordCountInput
	}{
		{"short code", dto.RecordCountInput{QRCode: "ABC"}},
		{"symbols", dto.RecordCountInput{QRCode: "ABCDEFGHIJKLMNOP-"}},
		{"negative", dto.RecordCountInput{QRCode: testutil.Code(1), Quantities: model.Quantities{FOC: -1}}},
		{"bad type", dto.RecordCountInput{QRCode: testutil.Code(1), CountType: "guess"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.RecordCount(ctx, &tt.input)
			if !errors.Is(err, apperr.ErrInvalidRequest) {
				t.Fatalf("expected invalid request, got %v", err)
			}
		})
	}

	snap, err := f.uc.CurrentStock(ctx, testutil.Code(1))
	if err != nil {
		t.Fatal(err)
	}
	if snap.EverCounted {
		t.Error("rejected count must not write")
	}
}

func TestCurrentStockLastWriteWins(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)

	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f.uc.now = func() time.Time { return fixed }

	f.count(t, code, model.Quantities{Unrestrict: 5})
	f.count(t, code, model.Quantities{Unrestrict: 7})

	snap, err := f.uc.CurrentStock(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Unrestrict != 7 {
		t.Fatalf("equal timestamps must resolve to the later id, got %d", snap.Unrestrict)
	}

	hist, err := f.uc.History(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(hist))
	}
}

func TestCountedStockNeverCounted(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)

	_, err := f.uc.CountedStock(context.Background(), testutil.Code(9))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyMovementOut(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10, FOC: 3})

	res, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementOut,
		Quantities:   model.Quantities{Unrestrict: 4},
		Reason:       "picking",
		ReferenceDoc: "SO-1",
		CreatedBy:    "alice",
	})
	if err != nil {
		t.Fatalf("ApplyMovement: %v", err)
	}
	want := model.Quantities{Unrestrict: 6, FOC: 3}
	if res.NewStock != want || res.NewTotal != 9 {
		t.Fatalf("unexpected result: %+v", res)
	}

	hist, err := f.uc.History(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if hist[0].Notes != "Out - picking - Ref: SO-1" {
		t.Errorf("unexpected ledger note %q", hist[0].Notes)
	}
	if hist[0].CountType != model.CountTypeMovement {
		t.Errorf("unexpected count type %q", hist[0].CountType)
	}
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10})

	_, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementOut,
		Quantities:   model.Quantities{Unrestrict: 15},
		CreatedBy:    "alice",
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Shortage == nil {
		t.Fatalf("expected shortage detail, got %v", err)
	}
	want := apperr.Shortage{QRCode: code, Bucket: model.BucketUnrestrict, Requested: 15, Available: 10, Shortfall: 5}
	if *ae.Shortage != want {
		t.Errorf("got %+v, want %+v", *ae.Shortage, want)
	}

	snap, _ := f.uc.CurrentStock(ctx, code)
	if snap.Unrestrict != 10 {
		t.Errorf("failed movement must not change stock, got %d", snap.Unrestrict)
	}
}

func TestApplyMovementOutNeverCounted(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)

	_, err := f.uc.ApplyMovement(context.Background(), &dto.MovementInput{
		QRCode:       testutil.Code(1),
		MovementType: model.MovementOut,
		Quantities:   model.Quantities{Unrestrict: 1},
		CreatedBy:    "alice",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApplyMovementInCreatesItem(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(2)

	res, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementIn,
		Quantities:   model.Quantities{RFB: 4},
		ToLocation:   "WH-B",
		CreatedBy:    "bob",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewStock.RFB != 4 || res.Previous != (model.Quantities{}) {
		t.Fatalf("unexpected result: %+v", res)
	}

	it, err := f.uc.GetItem(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if it.Location != "WH-B" {
		t.Errorf("expected item at WH-B, got %q", it.Location)
	}

	_, err = f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementIn,
		CreatedBy:    "bob",
	})
	if !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("zero quantity in must be rejected, got %v", err)
	}
}

func TestApplyMovementAdjustment(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10, FOC: 5})

	res, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementAdjustment,
		Quantities:   model.Quantities{Unrestrict: 8, FOC: 5, RFB: 1},
		CreatedBy:    "carol",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied != (model.Quantities{Unrestrict: -2, RFB: 1}) {
		t.Errorf("set adjustment should record the signed difference, got %+v", res.Applied)
	}

	res, err = f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:         code,
		MovementType:   model.MovementAdjustment,
		AdjustmentMode: dto.AdjustDelta,
		Quantities:     model.Quantities{FOC: -5},
		CreatedBy:      "carol",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewStock != (model.Quantities{Unrestrict: 8, RFB: 1}) {
		t.Errorf("unexpected stock after delta: %+v", res.NewStock)
	}

	_, err = f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:         code,
		MovementType:   model.MovementAdjustment,
		AdjustmentMode: dto.AdjustDelta,
		Quantities:     model.Quantities{RFB: -2},
		CreatedBy:      "carol",
	})
	if !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("delta below zero must fail, got %v", err)
	}

	_, err = f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:         code,
		MovementType:   model.MovementAdjustment,
		AdjustmentMode: dto.AdjustDelta,
		CreatedBy:      "carol",
	})
	if !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("zero delta must fail, got %v", err)
	}

	hist, _ := f.uc.History(ctx, code)
	if hist[0].CountType != model.CountTypeAdjustment {
		t.Errorf("adjustment entries carry count type adjustment, got %q", hist[0].CountType)
	}
}

func TestApplyMovementRejectsTransferAndMissingActor(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10})

	_, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementTransfer,
		Quantities:   model.Quantities{Unrestrict: -1},
		CreatedBy:    "alice",
	})
	if !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("expected transfer to be rejected, got %v", err)
	}

	_, err = f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementOut,
		Quantities:   model.Quantities{Unrestrict: 1},
	})
	if !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("expected missing actor to be rejected, got %v", err)
	}
}

func TestApplyInUnitRequiresTransaction(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)

	_, err := f.uc.ApplyInUnit(context.Background(), &dto.MovementInput{
		QRCode:       testutil.Code(1),
		MovementType: model.MovementTransfer,
		Quantities:   model.Quantities{Unrestrict: 1},
		CreatedBy:    "alice",
	})
	if !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestConcurrentOutsNeverOverdraw(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
				QRCode:       code,
				MovementType: model.MovementOut,
				Quantities:   model.Quantities{Unrestrict: 1},
				CreatedBy:    "picker",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 10 || rejected != 15 {
		t.Fatalf("expected 10 accepted and 15 rejected, got %d and %d", ok, rejected)
	}
	snap, _ := f.uc.CurrentStock(ctx, code)
	if snap.Unrestrict != 0 {
		t.Fatalf("expected stock 0, got %d", snap.Unrestrict)
	}
}

func TestBlockedItemEnforced(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10})
	blockID := f.block(t, code)

	_, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementOut,
		Quantities:   model.Quantities{Unrestrict: 1},
		CreatedBy:    "alice",
	})
	if !errors.Is(err, apperr.ErrBlocked) {
		t.Fatalf("expected blocked, got %v", err)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.BlockID != blockID {
		t.Errorf("expected block id %d, got %d", blockID, ae.BlockID)
	}

	_, err = f.uc.RecordCount(ctx, &dto.RecordCountInput{QRCode: code, Quantities: model.Quantities{Unrestrict: 3}})
	if !errors.Is(err, apperr.ErrBlocked) {
		t.Fatalf("expected blocked count, got %v", err)
	}
}

func TestBlockedItemAdvisory(t *testing.T) {
	f := newFixture(t, blockUC.ModeAdvisory)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10})
	f.block(t, code)

	res, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
		QRCode:       code,
		MovementType: model.MovementOut,
		Quantities:   model.Quantities{Unrestrict: 1},
		CreatedBy:    "alice",
	})
	if err != nil {
		t.Fatalf("advisory mode must let the write through: %v", err)
	}
	if res.NewStock.Unrestrict != 9 {
		t.Errorf("unexpected stock %d", res.NewStock.Unrestrict)
	}
}

func TestMovementHistoryAndStats(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(1)
	f.count(t, code, model.Quantities{Unrestrict: 10})

	for _, q := range []int64{1, 2, 3} {
		if _, err := f.uc.ApplyMovement(ctx, &dto.MovementInput{
			QRCode:       code,
			MovementType: model.MovementOut,
			Quantities:   model.Quantities{Unrestrict: q},
			CreatedBy:    "alice",
		}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := f.uc.MovementHistory(ctx, code, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Unrestrict != 3 {
		t.Fatalf("expected newest two movements first, got %+v", list)
	}

	stats, err := f.uc.MovementStats(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalMovements != 3 || stats.TotalQuantityMoved != 6 || stats.TotalItemsMoved != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	from := time.Now()
	to := from.Add(-time.Hour)
	if _, err := f.uc.MovementStats(ctx, &from, &to); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("expected inverted range to be rejected, got %v", err)
	}
}

func TestDeleteItemTakesItemLock(t *testing.T) {
	f := newFixture(t, blockUC.ModeEnforce)
	ctx := context.Background()
	code := testutil.Code(7)
	f.count(t, code, model.Quantities{Unrestrict: 1})

	release, err := f.uc.locker.Lock(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := f.uc.DeleteItem(short, code); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected delete to wait for the item lock, got %v", err)
	}
	it, err := f.uc.GetItem(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if it.Status != model.ItemStatusActive {
		t.Fatalf("item must stay active while locked, got %s", it.Status)
	}
	release()

	if err := f.uc.DeleteItem(ctx, code); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if it, _ = f.uc.GetItem(ctx, code); it.Status != model.ItemStatusDeleted {
		t.Errorf("expected deleted, got %s", it.Status)
	}
	if err := f.uc.DeleteItem(ctx, testutil.Code(8)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
