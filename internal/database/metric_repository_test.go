package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
)

func TestMetricRepository_SaveMetrics(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewMetricRepository(db)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO performance_metrics").
		WithArgs("items_processed", 42.0, []byte(`{"store":"evike"}`), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO performance_metrics").
		WithArgs("items_new", 3.0, []byte(`{}`), now).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	metrics := []domain.Metric{
		{Name: "items_processed", Value: 42, Tags: map[string]string{"store": "evike"}, Timestamp: now},
		{Name: "items_new", Value: 3, Timestamp: now},
	}

	if err := repo.SaveMetrics(context.Background(), metrics); err != nil {
		t.Fatalf("SaveMetrics() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMetricRepository_SaveMetrics_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewMetricRepository(db)

	// An empty batch must not even open a transaction.
	if err := repo.SaveMetrics(context.Background(), nil); err != nil {
		t.Fatalf("SaveMetrics() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMetricRepository_SaveMetrics_RollbackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewMetricRepository(db)

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO performance_metrics").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	metrics := []domain.Metric{
		{Name: "items_processed", Value: 1, Timestamp: now},
	}

	if err := repo.SaveMetrics(context.Background(), metrics); err == nil {
		t.Fatal("expected error from failed insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMetricRepository_SaveAlert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewMetricRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO alerts").
		WithArgs("listing_errors", 25.0, 10.0, "too many errors", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	alert := &domain.Alert{
		MetricName: "listing_errors",
		Value:      25,
		Threshold:  10,
		Message:    "too many errors",
		FiredAt:    now,
	}

	if err := repo.SaveAlert(context.Background(), alert); err != nil {
		t.Fatalf("SaveAlert() error = %v", err)
	}
	if alert.ID != 3 {
		t.Errorf("expected id backfilled to 3, got %d", alert.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
