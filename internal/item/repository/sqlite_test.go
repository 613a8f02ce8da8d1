package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/testutil"
	"github.com/jmoiron/sqlx"
)

func insertCount(t *testing.T, db *sqlx.DB, it *model.Item, unrestrict int64, at time.Time) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO stock_counts (item_id, qr_code, unrestrict, count_date) VALUES (?, ?, ?, ?)`,
		it.ID, it.QRCode, unrestrict, at)
	if err != nil {
		t.Fatal(err)
	}
}

func newItem(t *testing.T, r *SQLiteRepository, code, location string) *model.Item {
	t.Helper()
	now := time.Now().UTC()
	it := &model.Item{QRCode: code, Location: location, Status: model.ItemStatusActive, CreatedAt: now, UpdatedAt: now}
	if _, err := r.Create(context.Background(), it); err != nil {
		t.Fatal(err)
	}
	return it
}

func TestGetByCodeMissing(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))

	it, err := r.GetByCode(context.Background(), testutil.Code(1))
	if err != nil || it != nil {
		t.Fatalf("expected nil, nil; got %v, %v", it, err)
	}
}

func TestFindAllJoinsLatestCount(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	a := newItem(t, r, testutil.Code(1), "WH-A")
	newItem(t, r, testutil.Code(2), "WH-A")

	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	insertCount(t, db, a, 3, at.Add(-time.Hour))
	insertCount(t, db, a, 5, at)
	insertCount(t, db, a, 8, at) // same instant, higher id wins

	items, total, err := r.FindAll(ctx, &dto.ItemFilters{Location: "WH-A"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 items, got %d/%d", len(items), total)
	}
	for _, it := range items {
		switch it.QRCode {
		case a.QRCode:
			if it.Unrestrict == nil || *it.Unrestrict != 8 {
				t.Errorf("expected latest unrestrict 8, got %v", it.Unrestrict)
			}
			if !it.LastCountDate.Valid || !it.LastCountDate.Time.Equal(at) {
				t.Errorf("unexpected last count date %+v", it.LastCountDate)
			}
		default:
			if it.Unrestrict != nil || it.LastCountDate.Valid {
				t.Errorf("uncounted item must carry no stock, got %+v", it)
			}
		}
	}
}

func TestListByLocationOrdersNeverCountedFirst(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	recent := newItem(t, r, testutil.Code(1), "WH-A")
	old := newItem(t, r, testutil.Code(2), "WH-A")
	newItem(t, r, testutil.Code(3), "WH-A")
	newItem(t, r, testutil.Code(4), "WH-B")

	now := time.Now().UTC()
	insertCount(t, db, recent, 1, now)
	insertCount(t, db, old, 1, now.Add(-48*time.Hour))

	items, err := r.ListByLocation(ctx, "WH-A", model.ItemStatusActive)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{testutil.Code(3), testutil.Code(2), testutil.Code(1)}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, code := range want {
		if items[i].QRCode != code {
			t.Errorf("position %d: got %s, want %s", i, items[i].QRCode, code)
		}
	}
}

func TestUpdateLocationUnknownItem(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewDB(t))

	if err := r.UpdateLocation(context.Background(), testutil.Code(1), "WH-B", time.Now()); err == nil {
		t.Fatal("expected an error for an unknown item")
	}
}
