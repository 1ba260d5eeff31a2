package domain

import (
	"time"
)

// Operation statuses.
const (
	OperationPending   = "pending"
	OperationRunning   = "running"
	OperationCompleted = "completed"
	OperationFailed    = "failed"
)

// Operation is one bounded unit of coordinator-managed work: a single
// scrape run for one store, with lifecycle status and result counters.
type Operation struct {
	ID             string     `db:"id"              json:"id"`
	AgentName      string     `db:"agent_name"      json:"agent_name"`
	TargetStore    string     `db:"target_store"    json:"target_store"`
	OperationType  string     `db:"operation_type"  json:"operation_type"`
	Status         string     `db:"status"          json:"status"`
	StartTime      time.Time  `db:"start_time"      json:"start_time"`
	EndTime        *time.Time `db:"end_time"        json:"end_time,omitempty"`
	ItemsProcessed int        `db:"items_processed" json:"items_processed"`
	ItemsUpdated   int        `db:"items_updated"   json:"items_updated"`
	ItemsNew       int        `db:"items_new"       json:"items_new"`
	ErrorMessage   *string    `db:"error_message"   json:"error_message,omitempty"`
}

// Terminal reports whether the operation reached a terminal status.
func (o *Operation) Terminal() bool {
	return o.Status == OperationCompleted || o.Status == OperationFailed
}

// OperationStats is the aggregate success-rate view over recent operations.
type OperationStats struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Running     int     `json:"running"`
	SuccessRate float64 `json:"success_rate"`
}

// Health statuses reported by SystemHealth.
const (
	HealthUnknown  = "unknown"
	HealthCritical = "critical"
	HealthDegraded = "degraded"
	HealthHealthy  = "healthy"
)

// SystemHealth summarizes operational health over the last 24 hours.
type SystemHealth struct {
	Status      string  `json:"status"`
	SuccessRate float64 `json:"success_rate"`
	Operations  int     `json:"operations"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Window      string  `json:"window"`
}
