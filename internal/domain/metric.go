package domain

import (
	"time"
)

// Metric is a single buffered performance measurement.
type Metric struct {
	Name      string    `db:"name"      json:"name"`
	Value     float64   `db:"value"     json:"value"`
	Tags      TagMap    `db:"tags"      json:"tags,omitempty"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Alert operators.
const (
	AlertGreaterThan = "gt"
	AlertLessThan    = "lt"
	AlertEqual       = "eq"
)

// AlertConfig is a static threshold rule evaluated against every recorded
// metric with a matching name.
type AlertConfig struct {
	MetricName string  `json:"metric_name" mapstructure:"metric_name"`
	Threshold  float64 `json:"threshold"   mapstructure:"threshold"`
	Operator   string  `json:"operator"    mapstructure:"operator"`
	Message    string  `json:"message"     mapstructure:"message"`
}

// Triggered reports whether the given metric value trips this alert.
func (a *AlertConfig) Triggered(value float64) bool {
	switch a.Operator {
	case AlertGreaterThan:
		return value > a.Threshold
	case AlertLessThan:
		return value < a.Threshold
	case AlertEqual:
		return value == a.Threshold
	default:
		return false
	}
}

// Alert is a fired alert persisted for operators.
type Alert struct {
	ID         int64     `db:"id"          json:"id"`
	MetricName string    `db:"metric_name" json:"metric_name"`
	Value      float64   `db:"value"       json:"value"`
	Threshold  float64   `db:"threshold"   json:"threshold"`
	Message    string    `db:"message"     json:"message"`
	FiredAt    time.Time `db:"fired_at"    json:"fired_at"`
}
