// Package monitoring provides buffered metric recording, threshold
// alerting and operation timing. Persistence is best effort: telemetry
// failures never abort the work being measured.
package monitoring

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// Defaults for the monitoring service.
const (
	// DefaultFlushInterval is the periodic flush cadence.
	DefaultFlushInterval = 60 * time.Second
	// DefaultBufferLimit triggers an immediate flush when reached.
	DefaultBufferLimit = 100
	// persistTimeout bounds each best-effort persistence call.
	persistTimeout = 10 * time.Second
)

// Store persists metrics and alerts.
type Store interface {
	SaveMetrics(ctx context.Context, metrics []domain.Metric) error
	SaveAlert(ctx context.Context, alert *domain.Alert) error
}

// Config configures the Service.
type Config struct {
	FlushInterval time.Duration
	BufferLimit   int
	Alerts        []domain.AlertConfig
}

// withDefaults fills zero values with package defaults.
func (c Config) withDefaults() Config {
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.BufferLimit <= 0 {
		c.BufferLimit = DefaultBufferLimit
	}
	return c
}

// Service buffers metrics in memory, evaluates alert thresholds on every
// recording, and flushes batches periodically or when the buffer fills.
// Failed flushes requeue the batch rather than dropping it.
type Service struct {
	store Store
	log   logger.Interface
	cfg   Config

	mu     sync.Mutex
	buffer []domain.Metric
	timers map[string]time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a monitoring service.
func New(store Store, cfg Config, log logger.Interface) *Service {
	return &Service{
		store:  store,
		log:    log.WithComponent("monitoring"),
		cfg:    cfg.withDefaults(),
		timers: make(map[string]time.Time),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the periodic flush loop.
func (s *Service) Start() {
	go s.flushLoop()
}

// Stop halts the flush loop and performs a final flush.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// flushLoop flushes the buffer on the configured cadence until stopped.
func (s *Service) flushLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush(context.Background())
		case <-s.stop:
			s.Flush(context.Background())
			return
		}
	}
}

// RecordMetric appends a metric to the buffer, evaluates alerts, and
// flushes when the buffer limit is reached.
func (s *Service) RecordMetric(name string, value float64, tags map[string]string) {
	metric := domain.Metric{
		Name:      name,
		Value:     value,
		Tags:      tags,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.buffer = append(s.buffer, metric)
	full := len(s.buffer) >= s.cfg.BufferLimit
	s.mu.Unlock()

	s.evaluateAlerts(name, value)

	if full {
		s.Flush(context.Background())
	}
}

// RecordOperationStart starts a timer keyed by name and sorted tags.
func (s *Service) RecordOperationStart(name string, tags map[string]string) {
	key := timerKey(name, tags)

	s.mu.Lock()
	s.timers[key] = time.Now()
	s.mu.Unlock()
}

// RecordOperationEnd stops the matching timer and records a
// "<name>_time" metric in milliseconds. A missing start is tolerated and
// yields zero duration.
func (s *Service) RecordOperationEnd(name string, tags map[string]string) time.Duration {
	key := timerKey(name, tags)

	s.mu.Lock()
	start, ok := s.timers[key]
	if ok {
		delete(s.timers, key)
	}
	s.mu.Unlock()

	if !ok {
		s.log.Warn("operation end without start", "operation", name)
		return 0
	}

	duration := time.Since(start)
	s.RecordMetric(name+"_time", float64(duration.Milliseconds()), tags)
	return duration
}

// Flush drains the buffer and persists the batch. On failure the batch is
// requeued at the front of the buffer.
func (s *Service) Flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	persistCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := s.store.SaveMetrics(persistCtx, batch); err != nil {
		s.log.Error("metric flush failed, requeueing batch",
			"count", len(batch),
			"error", err,
		)
		s.mu.Lock()
		s.buffer = append(batch, s.buffer...)
		s.mu.Unlock()
		return
	}

	s.log.Debug("metrics flushed", "count", len(batch))
}

// BufferedCount returns the number of unflushed metrics.
func (s *Service) BufferedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

// evaluateAlerts fires every configured alert matching the metric name
// whose condition holds. Alert persistence is best effort.
func (s *Service) evaluateAlerts(name string, value float64) {
	for i := range s.cfg.Alerts {
		alert := &s.cfg.Alerts[i]
		if alert.MetricName != name || !alert.Triggered(value) {
			continue
		}

		s.log.Warn("alert fired",
			"metric", name,
			"value", value,
			"threshold", alert.Threshold,
			"message", alert.Message,
		)

		persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		saveErr := s.store.SaveAlert(persistCtx, &domain.Alert{
			MetricName: name,
			Value:      value,
			Threshold:  alert.Threshold,
			Message:    alert.Message,
			FiredAt:    time.Now(),
		})
		cancel()

		if saveErr != nil {
			s.log.Error("alert persistence failed", "metric", name, "error", saveErr)
		}
	}
}

// timerKey builds a stable key from the operation name and sorted tags.
func timerKey(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}
