package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/salescope/salescope/internal/model"
	"github.com/salescope/salescope/internal/storage"
)

// DefaultZThreshold is the |z| cutoff used when the caller does not
// supply one.
const DefaultZThreshold = 2.5

// Detector flags per-segment sales outliers using z-scores.
type Detector struct {
	store storage.Store
}

// NewDetector creates a detector backed by the given store.
func NewDetector(store storage.Store) *Detector {
	return &Detector{store: store}
}

type segment struct {
	product string
	region  string
}

type factPoint struct {
	date   time.Time
	amount float64
}

// Detect groups the filtered fact set by (product, region), scores
// each point against its segment mean using the population standard
// deviation, and returns the points whose |z| meets the threshold.
// Segments with zero variance produce no anomalies. Results are
// ordered by product then region.
func (d *Detector) Detect(ctx context.Context, f model.Filter, threshold float64) ([]model.AnomalyPoint, error) {
	if threshold <= 0 {
		threshold = DefaultZThreshold
	}

	where, args := CompileFilter(f)
	rows, err := d.store.QueryRows(ctx, fmt.Sprintf(`
		SELECT product, region, date, sales_amount
		FROM fact_sales
		WHERE %s
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fact rows: %w", err)
	}
	defer rows.Close()

	groups := make(map[segment][]factPoint)
	for rows.Next() {
		var (
			product, region string
			date            time.Time
			amount          float64
		)
		if err := rows.Scan(&product, &region, &date, &amount); err != nil {
			return nil, err
		}
		key := segment{product: product, region: region}
		groups[key] = append(groups[key], factPoint{date: date, amount: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keys := make([]segment, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].product != keys[j].product {
			return keys[i].product < keys[j].product
		}
		return keys[i].region < keys[j].region
	})

	anomalies := make([]model.AnomalyPoint, 0)
	for _, key := range keys {
		anomalies = append(anomalies, segmentAnomalies(key, groups[key], threshold)...)
	}
	return anomalies, nil
}

// segmentAnomalies scores one segment's points. Scores keep their
// sign so callers can tell spikes from dips.
func segmentAnomalies(key segment, points []factPoint, threshold float64) []model.AnomalyPoint {
	if len(points) == 0 {
		return nil
	}

	var sum float64
	for _, p := range points {
		sum += p.amount
	}
	mean := sum / float64(len(points))

	var variance float64
	for _, p := range points {
		diff := p.amount - mean
		variance += diff * diff
	}
	std := math.Sqrt(variance / float64(len(points)))
	if std == 0 {
		return nil
	}

	var out []model.AnomalyPoint
	for _, p := range points {
		score := (p.amount - mean) / std
		if math.Abs(score) >= threshold {
			out = append(out, model.AnomalyPoint{
				Product:     key.product,
				Region:      key.region,
				Date:        p.date,
				SalesAmount: p.amount,
				Score:       score,
			})
		}
	}
	return out
}
