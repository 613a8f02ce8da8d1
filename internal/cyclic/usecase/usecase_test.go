package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	cyclicRepo "github.com/fekuna/omnipos-stock-service/internal/cyclic/repository"
	"github.com/fekuna/omnipos-stock-service/internal/cyclic/dto"
	itemRepo "github.com/fekuna/omnipos-stock-service/internal/item/repository"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	stockRepo "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	"github.com/fekuna/omnipos-stock-service/internal/testutil"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	uc     *cyclicUseCase
	items  *itemRepo.SQLiteRepository
	ledger *stockRepo.SQLiteRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	items := itemRepo.NewSQLiteRepository(db)
	uc := NewCyclicUseCase(cyclicRepo.NewSQLiteRepository(db), items, database.NewTxManager(db), 30, logger.NewNop())
	c := uc.(*cyclicUseCase)
	c.now = func() time.Time { return fixedNow }
	return &fixture{uc: c, items: items, ledger: stockRepo.NewSQLiteRepository(db)}
}

// item creates an item at location, counted daysAgo days before fixedNow;
// a negative daysAgo leaves it uncounted.
func (f *fixture) item(t *testing.T, code, location string, daysAgo int) {
	t.Helper()
	ctx := context.Background()
	it := &model.Item{QRCode: code, Location: location, Status: model.ItemStatusActive, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	if _, err := f.items.Create(ctx, it); err != nil {
		t.Fatal(err)
	}
	if daysAgo < 0 {
		return
	}
	_, err := f.ledger.InsertCount(ctx, &model.StockCount{
		ItemID:     it.ID,
		QRCode:     code,
		Quantities: model.Quantities{Unrestrict: 1},
		CountType:  model.CountTypeCyclic,
		CountDate:  fixedNow.Add(-time.Duration(daysAgo) * day),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestScheduleDuplicateLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.uc.Schedule(ctx, "WH-A", 7, "planner")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if !c.NextCountDate.Equal(fixedNow.Add(7 * day)) {
		t.Errorf("unexpected next count date %v", c.NextCountDate)
	}

	if _, err := f.uc.Schedule(ctx, "WH-A", 14, "planner"); !errors.Is(err, apperr.ErrDuplicateLocation) {
		t.Fatalf("expected duplicate location, got %v", err)
	}

	paused := model.CyclicPaused
	if _, err := f.uc.Update(ctx, c.ID, &dto.UpdateCyclicInput{Status: &paused}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Schedule(ctx, "WH-A", 14, "planner"); err != nil {
		t.Fatalf("paused schedule must free the location: %v", err)
	}

	active := model.CyclicActive
	if _, err := f.uc.Update(ctx, c.ID, &dto.UpdateCyclicInput{Status: &active}); !errors.Is(err, apperr.ErrDuplicateLocation) {
		t.Fatalf("reactivating must detect the duplicate, got %v", err)
	}
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.uc.Schedule(context.Background(), " ", 7, ""); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("expected missing location to fail, got %v", err)
	}
	if _, err := f.uc.Schedule(context.Background(), "WH-A", 0, ""); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("expected zero frequency to fail, got %v", err)
	}
}

func TestExecute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, testutil.Code(1), "WH-A", -1)
	f.item(t, testutil.Code(2), "WH-A", 3)
	f.item(t, testutil.Code(3), "WH-B", 3)

	c, err := f.uc.Schedule(ctx, "WH-A", 10, "planner")
	if err != nil {
		t.Fatal(err)
	}

	later := fixedNow.Add(2 * day)
	f.uc.now = func() time.Time { return later }

	res, err := f.uc.Execute(ctx, c.ID, "counter")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ItemsCount != 2 || res.Items[0].QRCode != testutil.Code(1) {
		t.Fatalf("expected two WH-A items, never-counted first, got %+v", res.Items)
	}
	if res.CyclicCount.LastCountDate == nil || !res.CyclicCount.LastCountDate.Equal(later) {
		t.Errorf("unexpected last count date %v", res.CyclicCount.LastCountDate)
	}
	if !res.CyclicCount.NextCountDate.Equal(later.Add(10 * day)) {
		t.Errorf("unexpected next count date %v", res.CyclicCount.NextCountDate)
	}

	if _, err := f.uc.Execute(ctx, 999, "counter"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	paused := model.CyclicPaused
	if _, err := f.uc.Update(ctx, c.ID, &dto.UpdateCyclicInput{Status: &paused}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Execute(ctx, c.ID, "counter"); !errors.Is(err, apperr.ErrInactive) {
		t.Errorf("expected inactive, got %v", err)
	}
}

func TestPendingForStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, testutil.Code(1), "WH-A", -1)
	f.item(t, testutil.Code(2), "WH-A", 40)
	f.item(t, testutil.Code(3), "WH-A", 5)

	pending, err := f.uc.PendingFor(ctx, "WH-A")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]model.CountStatus{
		testutil.Code(1): model.CountNeverCounted,
		testutil.Code(2): model.CountOverdue,
		testutil.Code(3): model.CountCurrent,
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 items, got %d", len(pending))
	}
	for _, p := range pending {
		if p.CountStatus != want[p.Item.QRCode] {
			t.Errorf("%s: got %s, want %s", p.Item.QRCode, p.CountStatus, want[p.Item.QRCode])
		}
		if p.ThresholdDays != 30 {
			t.Errorf("expected fallback threshold 30, got %d", p.ThresholdDays)
		}
	}

	if _, err := f.uc.Schedule(ctx, "WH-A", 3, "planner"); err != nil {
		t.Fatal(err)
	}
	pending, err = f.uc.PendingFor(ctx, "WH-A")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range pending {
		if p.Item.QRCode == testutil.Code(3) && p.CountStatus != model.CountOverdue {
			t.Errorf("schedule frequency must drive the threshold, got %s", p.CountStatus)
		}
	}
}

func TestUpdateRecomputesNextDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.uc.Schedule(ctx, "WH-A", 7, "planner")
	if err != nil {
		t.Fatal(err)
	}
	freq := 14
	updated, err := f.uc.Update(ctx, c.ID, &dto.UpdateCyclicInput{FrequencyDays: &freq})
	if err != nil {
		t.Fatal(err)
	}
	if !updated.NextCountDate.Equal(fixedNow.Add(14 * day)) {
		t.Errorf("next date must be based on creation when never executed, got %v", updated.NextCountDate)
	}

	bad := model.CyclicStatus("archived")
	if _, err := f.uc.Update(ctx, c.ID, &dto.UpdateCyclicInput{Status: &bad}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("expected invalid status, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.uc.Schedule(ctx, "WH-A", 7, "planner")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.uc.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.uc.Delete(ctx, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	list, err := f.uc.List(ctx, &dto.CyclicFilters{})
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty list, got %d (%v)", len(list), err)
	}
}

func TestPerformance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, testutil.Code(1), "WH-A", -1)
	f.item(t, testutil.Code(2), "WH-A", 40)
	f.item(t, testutil.Code(3), "WH-A", 5)

	if _, err := f.uc.Schedule(ctx, "WH-A", 7, "planner"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Schedule(ctx, "WH-EMPTY", 2, "planner"); err != nil {
		t.Fatal(err)
	}

	perf, err := f.uc.Performance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(perf) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(perf))
	}
	for _, p := range perf {
		switch p.Location {
		case "WH-A":
			if p.TotalItems != 3 || p.ItemsCountedOnTime != 1 {
				t.Errorf("unexpected counts: %+v", p)
			}
			if p.CompliancePercent == nil || *p.CompliancePercent != 33.33 {
				t.Errorf("unexpected compliance %v", p.CompliancePercent)
			}
			if p.ScheduleStatus != model.ScheduleOnSchedule {
				t.Errorf("unexpected schedule status %s", p.ScheduleStatus)
			}
		case "WH-EMPTY":
			if p.CompliancePercent != nil {
				t.Errorf("empty location has no compliance figure")
			}
			if p.ScheduleStatus != model.ScheduleDueSoon {
				t.Errorf("unexpected schedule status %s", p.ScheduleStatus)
			}
		}
	}
}

func TestScheduleStatus(t *testing.T) {
	now := fixedNow
	tests := []struct {
		next time.Time
		want model.ScheduleStatus
	}{
		{now.Add(-time.Hour), model.ScheduleOverdue},
		{now, model.ScheduleOverdue},
		{now.Add(2 * day), model.ScheduleDueSoon},
		{now.Add(3 * day), model.ScheduleDueSoon},
		{now.Add(4 * day), model.ScheduleOnSchedule},
	}
	for _, tt := range tests {
		if got := scheduleStatus(tt.next, now); got != tt.want {
			t.Errorf("next %v: got %s, want %s", tt.next, got, tt.want)
		}
	}
}
