// Package pipeline implements the staged cleaning and standardization of
// raw listings before they reach the matching engine.
package pipeline

import (
	"time"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
	"github.com/jonesrussell/pricewatch/internal/taxonomy"
)

// Metric names emitted by the pipeline.
const (
	metricSuccessRate = "processing_success_rate"
	metricAnomalies   = "price_anomalies"
)

// MetricRecorder receives pipeline quality metrics.
type MetricRecorder interface {
	RecordMetric(name string, value float64, tags map[string]string)
}

// Pipeline runs the ordered stages clean, validate, enhance, detect
// anomalies, standardize over a batch of raw listings. Malformed listings
// are filtered, never fatal; a listing that survives validation satisfies
// the matcher's input invariant.
type Pipeline struct {
	log     logger.Interface
	metrics MetricRecorder
}

// New creates a Pipeline.
func New(log logger.Interface, metrics MetricRecorder) *Pipeline {
	return &Pipeline{
		log:     log.WithComponent("pipeline"),
		metrics: metrics,
	}
}

// Process runs all stages over the batch for one store.
func (p *Pipeline) Process(listings []domain.RawListing, storeID string) []domain.CleanedListing {
	total := len(listings)

	cleaned := cleanStage(listings)
	valid := validateStage(cleaned)

	if p.metrics != nil && total > 0 {
		rate := float64(len(valid)) / float64(total)
		p.metrics.RecordMetric(metricSuccessRate, rate, map[string]string{"store": storeID})
	}

	enhanced := enhanceStage(valid)
	flagged, anomalies := anomalyStage(enhanced)
	if p.metrics != nil && anomalies > 0 {
		p.metrics.RecordMetric(metricAnomalies, float64(anomalies), map[string]string{"store": storeID})
	}

	out := standardizeStage(flagged)

	p.log.Info("batch processed",
		"store", storeID,
		"total", total,
		"valid", len(valid),
		"anomalies", anomalies,
	)

	return out
}

// cleanStage trims strings, coerces textual prices and stamps the
// observation time.
func cleanStage(listings []domain.RawListing) []domain.RawListing {
	now := time.Now()
	out := make([]domain.RawListing, 0, len(listings))

	for _, l := range listings {
		l.Name = trimSpace(l.Name)
		l.Brand = trimSpace(l.Brand)
		l.URL = trimSpace(l.URL)
		l.ImageURL = trimSpace(l.ImageURL)
		l.Category = trimSpace(l.Category)
		l.PowerType = trimSpace(l.PowerType)

		if l.Price <= 0 && l.RawPrice != "" {
			l.Price = parsePrice(l.RawPrice)
		}
		if l.MinPrice <= 0 {
			l.MinPrice = l.Price
		}
		if l.MaxPrice <= 0 {
			l.MaxPrice = l.Price
		}

		l.ObservedAt = now
		out = append(out, l)
	}

	return out
}

// validateStage drops listings that violate the validity invariant.
func validateStage(listings []domain.RawListing) []domain.RawListing {
	out := make([]domain.RawListing, 0, len(listings))
	for _, l := range listings {
		if l.Valid() {
			out = append(out, l)
		}
	}
	return out
}

// enhanceStage reconciles inconsistent scraped price ranges against the
// listed price.
func enhanceStage(listings []domain.RawListing) []domain.RawListing {
	for i := range listings {
		if listings[i].Price < listings[i].MinPrice {
			listings[i].MinPrice = listings[i].Price
		}
		if listings[i].Price > listings[i].MaxPrice {
			listings[i].MaxPrice = listings[i].Price
		}
	}
	return listings
}

// anomalyStage flags prices outside the expected band for the listing's
// power type. Anomalies are advisory; nothing is dropped here.
func anomalyStage(listings []domain.RawListing) ([]domain.CleanedListing, int) {
	out := make([]domain.CleanedListing, 0, len(listings))
	anomalies := 0

	for _, l := range listings {
		band := taxonomy.PriceBandFor(l.PowerType)
		cl := domain.CleanedListing{RawListing: l}
		if l.Price < band.Min || l.Price > band.Max {
			cl.HasAnomaly = true
			anomalies++
		}
		out = append(out, cl)
	}

	return out, anomalies
}

// standardizeStage canonicalizes brand spelling and refreshes LastUpdated.
func standardizeStage(listings []domain.CleanedListing) []domain.CleanedListing {
	now := time.Now()
	for i := range listings {
		listings[i].Brand = taxonomy.CanonicalBrand(listings[i].Brand)
		listings[i].LastUpdated = now
	}
	return listings
}
