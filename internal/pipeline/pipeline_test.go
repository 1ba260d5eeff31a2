package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/pricewatch/internal/domain"
	"github.com/jonesrussell/pricewatch/internal/logger"
)

// recordedMetric captures one RecordMetric call.
type recordedMetric struct {
	name  string
	value float64
	tags  map[string]string
}

type fakeRecorder struct {
	metrics []recordedMetric
}

func (r *fakeRecorder) RecordMetric(name string, value float64, tags map[string]string) {
	r.metrics = append(r.metrics, recordedMetric{name: name, value: value, tags: tags})
}

func (r *fakeRecorder) find(name string) (recordedMetric, bool) {
	for _, m := range r.metrics {
		if m.name == name {
			return m, true
		}
	}
	return recordedMetric{}, false
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected float64
	}{
		{name: "dollar sign", raw: "$449.99", expected: 449.99},
		{name: "thousands separator", raw: "$1,299.00", expected: 1299.00},
		{name: "european decimal comma", raw: "1.299,00 kr", expected: 1299.00},
		{name: "plain number", raw: "350", expected: 350},
		{name: "surrounding text", raw: "Sale: 89.95 USD", expected: 89.95},
		{name: "no digits", raw: "Call for price", expected: 0},
		{name: "empty", raw: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, parsePrice(tt.raw), 1e-9)
		})
	}
}

func TestProcessCleansAndValidates(t *testing.T) {
	p := New(logger.NewNoOp(), nil)

	listings := []domain.RawListing{
		{
			Name:          "  Krytac Trident MK2 CRB  ",
			Brand:         " krytac ",
			RawPrice:      "$389.99",
			URL:           "https://store.example/trident",
			SourceStoreID: "evike",
		},
		{
			// no name, dropped by validation
			RawPrice:      "$10.00",
			URL:           "https://store.example/mystery",
			SourceStoreID: "evike",
		},
		{
			// unparseable price, dropped by validation
			Name:          "Ghost Listing",
			RawPrice:      "Call for price",
			URL:           "https://store.example/ghost",
			SourceStoreID: "evike",
		},
		{
			// negative price, dropped by validation
			Name:          "Refund Glitch",
			Price:         -5,
			URL:           "https://store.example/glitch",
			SourceStoreID: "evike",
		},
	}

	out := p.Process(listings, "evike")
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "Krytac Trident MK2 CRB", got.Name)
	assert.Equal(t, "Krytac", got.Brand, "brand must be canonicalized")
	assert.InDelta(t, 389.99, got.Price, 1e-9)
	assert.False(t, got.ObservedAt.IsZero())
	assert.False(t, got.LastUpdated.IsZero())
}

func TestProcessRecordsSuccessRate(t *testing.T) {
	recorder := &fakeRecorder{}
	p := New(logger.NewNoOp(), recorder)

	listings := []domain.RawListing{
		{Name: "Valid One", RawPrice: "$200", URL: "https://s.example/1", SourceStoreID: "evike"},
		{Name: "Valid Two", RawPrice: "$300", URL: "https://s.example/2", SourceStoreID: "evike"},
		{Name: "", RawPrice: "$300", URL: "https://s.example/3", SourceStoreID: "evike"},
		{Name: "No Price", RawPrice: "", URL: "https://s.example/4", SourceStoreID: "evike"},
	}

	p.Process(listings, "evike")

	metric, ok := recorder.find("processing_success_rate")
	require.True(t, ok)
	assert.InDelta(t, 0.5, metric.value, 1e-9)
	assert.Equal(t, "evike", metric.tags["store"])
}

func TestProcessFlagsPriceAnomaliesWithoutDropping(t *testing.T) {
	recorder := &fakeRecorder{}
	p := New(logger.NewNoOp(), recorder)

	listings := []domain.RawListing{
		// Within the aeg band.
		{Name: "Normal AEG", RawPrice: "$350", URL: "https://s.example/a", SourceStoreID: "evike", PowerType: "aeg"},
		// Far above the aeg band, flagged but kept.
		{Name: "Golden AEG", RawPrice: "$5,000", URL: "https://s.example/b", SourceStoreID: "evike", PowerType: "aeg"},
		// Below the spring band.
		{Name: "Toy Springer", RawPrice: "$5", URL: "https://s.example/c", SourceStoreID: "evike", PowerType: "spring"},
	}

	out := p.Process(listings, "evike")
	require.Len(t, out, 3, "anomalies are advisory and must not drop listings")

	byName := make(map[string]domain.CleanedListing, len(out))
	for _, l := range out {
		byName[l.Name] = l
	}

	assert.False(t, byName["Normal AEG"].HasAnomaly)
	assert.True(t, byName["Golden AEG"].HasAnomaly)
	assert.True(t, byName["Toy Springer"].HasAnomaly)

	metric, ok := recorder.find("price_anomalies")
	require.True(t, ok)
	assert.InDelta(t, 2, metric.value, 0)
}

func TestProcessReconcilesPriceRange(t *testing.T) {
	p := New(logger.NewNoOp(), nil)

	listings := []domain.RawListing{
		{
			Name:          "Range Listing",
			Price:         100,
			MinPrice:      150, // inconsistent, above the listed price
			MaxPrice:      90,  // inconsistent, below the listed price
			URL:           "https://s.example/r",
			SourceStoreID: "evike",
		},
	}

	out := p.Process(listings, "evike")
	require.Len(t, out, 1)

	assert.InDelta(t, 100, out[0].MinPrice, 0)
	assert.InDelta(t, 100, out[0].MaxPrice, 0)
}

func TestProcessEmptyBatch(t *testing.T) {
	recorder := &fakeRecorder{}
	p := New(logger.NewNoOp(), recorder)

	out := p.Process(nil, "evike")
	assert.Empty(t, out)
	assert.Empty(t, recorder.metrics, "no metrics for an empty batch")
}

func TestCleanStageStampsObservationTime(t *testing.T) {
	before := time.Now()
	out := cleanStage([]domain.RawListing{{Name: "X", Price: 100, URL: "https://s.example/x"}})
	require.Len(t, out, 1)
	assert.False(t, out[0].ObservedAt.Before(before))
}
