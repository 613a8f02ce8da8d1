package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	blockRepo "github.com/fekuna/omnipos-stock-service/internal/block/repository"
	blockUC "github.com/fekuna/omnipos-stock-service/internal/block/usecase"
	itemRepo "github.com/fekuna/omnipos-stock-service/internal/item/repository"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	stockdto "github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	stockRepo "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	stockUC "github.com/fekuna/omnipos-stock-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/testutil"
	"github.com/fekuna/omnipos-stock-service/internal/variance/dto"
	varianceRepo "github.com/fekuna/omnipos-stock-service/internal/variance/repository"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

type fixture struct {
	uc    *varianceUseCase
	stock stock.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.NewNop()
	tx := database.NewTxManager(db)
	locker := lock.NewKeyedMutex()

	items := itemRepo.NewSQLiteRepository(db)
	gate := blockUC.NewGate(blockRepo.NewSQLiteRepository(db), blockUC.ModeEnforce, log)
	s := stockUC.NewStockUseCase(items, stockRepo.NewSQLiteRepository(db), tx, locker, gate, nil, log)
	uc := NewVarianceUseCase(varianceRepo.NewSQLiteRepository(db), items, s, tx, locker, gate, nil, log)
	return &fixture{uc: uc.(*varianceUseCase), stock: s}
}

func (f *fixture) seed(t *testing.T, code string, q model.Quantities) {
	t.Helper()
	_, err := f.stock.RecordCount(context.Background(), &stockdto.RecordCountInput{QRCode: code, Quantities: q, Location: "WH-A"})
	if err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}
}

func (f *fixture) detect(t *testing.T, code string, counted model.Quantities) *model.DetectResult {
	t.Helper()
	res, err := f.uc.Detect(context.Background(), &dto.DetectInput{QRCode: code, Counted: counted, Reason: "cycle count"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return res
}

func TestDetectNoVarianceWritesNothing(t *testing.T) {
	f := newFixture(t)
	code := testutil.Code(1)
	f.seed(t, code, model.Quantities{Unrestrict: 10, FOC: 2})

	res := f.detect(t, code, model.Quantities{Unrestrict: 10, FOC: 2})
	if res.HasVariance || res.VarianceID != 0 {
		t.Fatalf("expected no variance, got %+v", res)
	}

	_, total, err := f.uc.List(context.Background(), &dto.VarianceFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("expected no stored variance, got %d", total)
	}
}

func TestDetectRecordsSignedVariance(t *testing.T) {
	f := newFixture(t)
	code := testutil.Code(1)
	f.seed(t, code, model.Quantities{Unrestrict: 10, FOC: 2})

	res := f.detect(t, code, model.Quantities{Unrestrict: 7, FOC: 3})
	if !res.HasVariance || res.Total != -2 || res.Kind != "shortage" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Variance != (model.Quantities{Unrestrict: -3, FOC: 1}) {
		t.Errorf("unexpected per-bucket variance %+v", res.Variance)
	}
	if res.Record.Location != "WH-A" {
		t.Errorf("location should default to the item's, got %q", res.Record.Location)
	}
}

func TestApproveAppliesAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := testutil.Code(1)
	f.seed(t, code, model.Quantities{Unrestrict: 10, FOC: 2})

	res := f.detect(t, code, model.Quantities{Unrestrict: 12, FOC: 2, RFB: 1})

	v, err := f.uc.Approve(ctx, res.VarianceID, "manager", "found in back room")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if v.Status != model.VarianceApproved || v.ApprovedBy == nil || *v.ApprovedBy != "manager" {
		t.Fatalf("unexpected variance: %+v", v)
	}

	snap, _ := f.stock.CurrentStock(ctx, code)
	if snap.Quantities != (model.Quantities{Unrestrict: 12, FOC: 2, RFB: 1}) {
		t.Errorf("stock must equal the counted figures, got %+v", snap.Quantities)
	}

	moves, _, err := f.stock.ListMovements(ctx, &stockdto.MovementFilters{QRCode: code})
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 1 || moves[0].MovementType != model.MovementAdjustment {
		t.Fatalf("expected one adjustment movement, got %+v", moves)
	}
	if moves[0].Quantities != (model.Quantities{Unrestrict: 2, RFB: 1}) || moves[0].ReferenceDoc == "" {
		t.Errorf("unexpected movement %+v", moves[0])
	}

	if _, err := f.uc.Approve(ctx, res.VarianceID, "manager", ""); !errors.Is(err, apperr.ErrAlreadyProcessed) {
		t.Errorf("expected already processed, got %v", err)
	}
}

func TestApproveStaleVariance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := testutil.Code(1)
	f.seed(t, code, model.Quantities{Unrestrict: 10})

	res := f.detect(t, code, model.Quantities{Unrestrict: 8})
	f.seed(t, code, model.Quantities{Unrestrict: 9})

	if _, err := f.uc.Approve(ctx, res.VarianceID, "manager", ""); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	snap, _ := f.stock.CurrentStock(ctx, code)
	if snap.Unrestrict != 9 {
		t.Errorf("stale approval must not touch stock, got %d", snap.Unrestrict)
	}
	list, _, _ := f.uc.List(ctx, &dto.VarianceFilters{Status: model.VariancePending})
	if len(list) != 1 {
		t.Errorf("variance must stay pending")
	}
}

func TestApproveUnknownVariance(t *testing.T) {
	f := newFixture(t)

	if _, err := f.uc.Approve(context.Background(), 77, "manager", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectLeavesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code := testutil.Code(1)
	f.seed(t, code, model.Quantities{Unrestrict: 10})

	res := f.detect(t, code, model.Quantities{Unrestrict: 4})

	v, err := f.uc.Reject(ctx, res.VarianceID, "manager", "miscount")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if v.Status != model.VarianceRejected || v.Reason != "cycle count | Rejected: miscount" {
		t.Errorf("unexpected variance: status %s reason %q", v.Status, v.Reason)
	}

	snap, _ := f.stock.CurrentStock(ctx, code)
	if snap.Unrestrict != 10 {
		t.Errorf("rejection must not touch stock, got %d", snap.Unrestrict)
	}

	if _, err := f.uc.Reject(ctx, res.VarianceID, "manager", ""); !errors.Is(err, apperr.ErrAlreadyProcessed) {
		t.Errorf("expected already processed, got %v", err)
	}
}

func TestVarianceStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		f.seed(t, testutil.Code(i), model.Quantities{Unrestrict: 10})
	}

	a := f.detect(t, testutil.Code(1), model.Quantities{Unrestrict: 12})
	f.detect(t, testutil.Code(2), model.Quantities{Unrestrict: 7})
	c := f.detect(t, testutil.Code(3), model.Quantities{Unrestrict: 11})

	if _, err := f.uc.Approve(ctx, a.VarianceID, "m", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Reject(ctx, c.VarianceID, "m", ""); err != nil {
		t.Fatal(err)
	}

	s, err := f.uc.Stats(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalVariances != 3 || s.PendingVariances != 1 || s.ApprovedVariances != 1 || s.RejectedVariances != 1 {
		t.Errorf("unexpected status counts: %+v", s)
	}
	if s.SurplusVariances != 2 || s.ShortageVariances != 1 {
		t.Errorf("unexpected direction counts: %+v", s)
	}
	if s.TotalAbsoluteVariance != 6 || s.NetVariance != 0 || s.MaxVariance != 3 {
		t.Errorf("unexpected magnitudes: %+v", s)
	}
	if s.ApprovalRate == nil || *s.ApprovalRate != 50 {
		t.Errorf("unexpected approval rate %v", s.ApprovalRate)
	}
}
