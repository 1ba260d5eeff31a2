package database_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jonesrussell/pricewatch/internal/database"
	"github.com/jonesrussell/pricewatch/internal/domain"
)

func TestOperationRepository_CreateOperation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewOperationRepository(db)

	start := time.Now()
	mock.ExpectExec("INSERT INTO agent_operations").
		WithArgs("op-1", "evike-agent", "evike", "scrape", "running", start, 0, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	op := &domain.Operation{
		ID:            "op-1",
		AgentName:     "evike-agent",
		TargetStore:   "evike",
		OperationType: "scrape",
		Status:        domain.OperationRunning,
		StartTime:     start,
	}

	if err := repo.CreateOperation(context.Background(), op); err != nil {
		t.Fatalf("CreateOperation() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOperationRepository_UpdateOperation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewOperationRepository(db)

	end := time.Now()
	errMsg := "fetch retries exhausted"

	mock.ExpectExec("UPDATE agent_operations").
		WithArgs("failed", end, 10, 8, 2, errMsg, "op-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	op := &domain.Operation{
		ID:             "op-1",
		Status:         domain.OperationFailed,
		EndTime:        &end,
		ItemsProcessed: 10,
		ItemsUpdated:   8,
		ItemsNew:       2,
		ErrorMessage:   &errMsg,
	}

	if err := repo.UpdateOperation(context.Background(), op); err != nil {
		t.Fatalf("UpdateOperation() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOperationRepository_UpdateOperation_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewOperationRepository(db)

	mock.ExpectExec("UPDATE agent_operations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	op := &domain.Operation{ID: "missing", Status: domain.OperationCompleted}

	err := repo.UpdateOperation(context.Background(), op)
	if err == nil {
		t.Fatal("expected error for missing operation")
	}
	if !strings.Contains(err.Error(), "operation not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOperationRepository_ListOperations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewOperationRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM agent_operations").
		WithArgs(5).
		WillReturnRows(
			sqlmock.NewRows([]string{
				"id", "agent_name", "target_store", "operation_type", "status", "start_time",
				"end_time", "items_processed", "items_updated", "items_new", "error_message",
			}).
				AddRow("op-2", "evike-agent", "evike", "scrape", "completed", now, now, 12, 10, 2, nil).
				AddRow("op-1", "evike-agent", "evike", "scrape", "failed", now.Add(-time.Hour), now.Add(-time.Hour), 0, 0, 0, "boom"),
		)

	ops, err := repo.ListOperations(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].ID != "op-2" {
		t.Errorf("expected newest first, got %s", ops[0].ID)
	}
	if ops[1].ErrorMessage == nil || *ops[1].ErrorMessage != "boom" {
		t.Errorf("expected error message preserved, got %v", ops[1].ErrorMessage)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestOperationRepository_CountByStatusSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewOperationRepository(db)

	since := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery("SELECT status, COUNT(.+) FROM agent_operations").
		WithArgs(since).
		WillReturnRows(
			sqlmock.NewRows([]string{"status", "count"}).
				AddRow("completed", 9).
				AddRow("failed", 1),
		)

	counts, err := repo.CountByStatusSince(context.Background(), since)
	if err != nil {
		t.Fatalf("CountByStatusSince() error = %v", err)
	}
	if counts["completed"] != 9 {
		t.Errorf("expected completed=9, got %d", counts["completed"])
	}
	if counts["failed"] != 1 {
		t.Errorf("expected failed=1, got %d", counts["failed"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
