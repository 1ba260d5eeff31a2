package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
)

func TestPriceRepository_GetStorePrice_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPriceRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM store_prices").
		WithArgs("p-1", "evike").
		WillReturnRows(
			sqlmock.NewRows([]string{
				"product_id", "store_name", "price", "shipping_cost",
				"free_shipping_threshold", "in_stock", "url", "last_updated",
			}).AddRow("p-1", "evike", 389.99, 9.95, 150.0, true, "https://store.example/p/trident", now),
		)

	price, err := repo.GetStorePrice(context.Background(), "p-1", "evike")
	if err != nil {
		t.Fatalf("GetStorePrice() error = %v", err)
	}
	if price == nil {
		t.Fatal("expected a price row")
	}
	if price.Price != 389.99 {
		t.Errorf("expected price=389.99, got %f", price.Price)
	}
	if price.ShippingCost != 9.95 {
		t.Errorf("expected shipping_cost=9.95, got %f", price.ShippingCost)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPriceRepository_GetStorePrice_Absent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPriceRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM store_prices").
		WithArgs("p-1", "airsoftgi").
		WillReturnRows(sqlmock.NewRows([]string{
			"product_id", "store_name", "price", "shipping_cost",
			"free_shipping_threshold", "in_stock", "url", "last_updated",
		}))

	price, err := repo.GetStorePrice(context.Background(), "p-1", "airsoftgi")
	if err != nil {
		t.Fatalf("GetStorePrice() error = %v", err)
	}
	if price != nil {
		t.Errorf("expected nil for absent pair, got %+v", price)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPriceRepository_UpsertStorePrice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPriceRepository(db)

	now := time.Now()
	mock.ExpectExec("INSERT INTO store_prices").
		WithArgs("p-1", "evike", 389.99, 9.95, 150.0, true, "https://store.example/p/trident", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	price := &domain.StorePrice{
		ProductID:             "p-1",
		StoreID:               "evike",
		Price:                 389.99,
		ShippingCost:          9.95,
		FreeShippingThreshold: 150.0,
		InStock:               true,
		URL:                   "https://store.example/p/trident",
		LastUpdated:           now,
	}

	if err := repo.UpsertStorePrice(context.Background(), price); err != nil {
		t.Fatalf("UpsertStorePrice() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPriceRepository_AppendHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPriceRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO price_history").
		WithArgs("p-1", "evike", 349.99, true, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	entry := &domain.PriceHistoryEntry{
		ProductID:  "p-1",
		StoreID:    "evike",
		Price:      349.99,
		InStock:    true,
		RecordedAt: now,
	}

	if err := repo.AppendHistory(context.Background(), entry); err != nil {
		t.Fatalf("AppendHistory() error = %v", err)
	}
	if entry.ID != 7 {
		t.Errorf("expected id backfilled to 7, got %d", entry.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPriceRepository_ListHistory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPriceRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM price_history").
		WithArgs("p-1", "evike", 10).
		WillReturnRows(
			sqlmock.NewRows([]string{"id", "product_id", "store_name", "price", "in_stock", "recorded_at"}).
				AddRow(int64(2), "p-1", "evike", 349.99, true, now).
				AddRow(int64(1), "p-1", "evike", 389.99, true, now.Add(-24*time.Hour)),
		)

	entries, err := repo.ListHistory(context.Background(), "p-1", "evike", 10)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Price != 349.99 {
		t.Errorf("expected newest entry first, got price %f", entries[0].Price)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPriceRepository_ListHistory_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewPriceRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM price_history").
		WithArgs("p-9", "evike", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "store_name", "price", "in_stock", "recorded_at"}))

	entries, err := repo.ListHistory(context.Background(), "p-9", "evike", 10)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if entries == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
