package marketdata

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
)

// ReturnSeries is a date-indexed table of returns, one column per
// asset. Rows are ordered by date ascending.
type ReturnSeries struct {
	dates  []time.Time
	assets []string
	data   [][]float64
}

// NewReturnSeries constructs a validated return series. Every row must
// have one value per asset.
func NewReturnSeries(dates []time.Time, assets []string, data [][]float64) (*ReturnSeries, error) {
	if len(assets) == 0 {
		return nil, errors.Data("return series requires at least one asset")
	}
	if len(dates) != len(data) {
		return nil, errors.Dataf("return series has %d dates but %d rows", len(dates), len(data))
	}
	for i, row := range data {
		if len(row) != len(assets) {
			return nil, errors.Dataf("return row %d has %d values, want %d", i, len(row), len(assets))
		}
	}

	return &ReturnSeries{
		dates:  append([]time.Time(nil), dates...),
		assets: append([]string(nil), assets...),
		data:   data,
	}, nil
}

// Len returns the number of observations.
func (r *ReturnSeries) Len() int { return len(r.data) }

// Assets returns the column ordering.
func (r *ReturnSeries) Assets() []string {
	return append([]string(nil), r.assets...)
}

// Dates returns the row index.
func (r *ReturnSeries) Dates() []time.Time {
	return append([]time.Time(nil), r.dates...)
}

// Row returns the returns for observation i keyed by asset.
func (r *ReturnSeries) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(r.assets))
	for j, asset := range r.assets {
		row[asset] = r.data[i][j]
	}
	return row
}

// At returns the return for observation i and the given asset.
func (r *ReturnSeries) At(i int, asset string) (float64, error) {
	for j, a := range r.assets {
		if a == asset {
			return r.data[i][j], nil
		}
	}
	return 0, errors.Dataf("return series has no column for asset %q", asset)
}

// Tail returns the last n observations. It fails when fewer than n
// / rows are available: insufficient window length is never silently
// tolerated.
func (r *ReturnSeries) Tail(n int) (*ReturnSeries, error) {
	if n <= 0 {
		return nil, errors.Configf("window length must be positive, got %d", n)
	}
	if len(r.data) < n {
		return nil, errors.Dataf("not enough data for window: have %d observations, need %d", len(r.data), n)
	}

	start := len(r.data) - n
	return &ReturnSeries{
		dates:  r.dates[start:],
		assets: r.assets,
		data:   r.data[start:],
	}, nil
}

// Select restricts the series to the given assets in the given order.
func (r *ReturnSeries) Select(assets []string) (*ReturnSeries, error) {
	cols := make([]int, len(assets))
	for i, asset := range assets {
		col := -1
		for j, a := range r.assets {
			if a == asset {
				col = j
				break
			}
		}
		if col < 0 {
			return nil, errors.Dataf("return series has no column for asset %q", asset)
		}
		cols[i] = col
	}

	data := make([][]float64, len(r.data))
	for i, row := range r.data {
		out := make([]float64, len(cols))
		for k, col := range cols {
			out[k] = row[col]
		}
		data[i] = out
	}

	return &ReturnSeries{
		dates:  r.dates,
		assets: append([]string(nil), assets...),
		data:   data,
	}, nil
}

// FilterRange keeps observations within [start, end]. Zero bounds are
// open.
func (r *ReturnSeries) FilterRange(start, end time.Time) *ReturnSeries {
	var dates []time.Time
	var data [][]float64
	for i, d := range r.dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		dates = append(dates, d)
		data = append(data, r.data[i])
	}
	return &ReturnSeries{dates: dates, assets: r.assets, data: data}
}

// Mean returns the per-asset sample mean, aligned to Assets().
func (r *ReturnSeries) Mean() []float64 {
	means := make([]float64, len(r.assets))
	col := make([]float64, len(r.data))
	for j := range r.assets {
		for i := range r.data {
			col[i] = r.data[i][j]
		}
		means[j] = stat.Mean(col, nil)
	}
	return means
}

// Covariance returns the sample covariance matrix aligned to Assets().
func (r *ReturnSeries) Covariance() (*mat.SymDense, error) {
	if len(r.data) < 2 {
		return nil, errors.Dataf("covariance needs at least 2 observations, have %d", len(r.data))
	}

	flat := make([]float64, 0, len(r.data)*len(r.assets))
	for _, row := range r.data {
		flat = append(flat, row...)
	}
	x := mat.NewDense(len(r.data), len(r.assets), flat)

	cov := mat.NewSymDense(len(r.assets), nil)
	stat.CovarianceMatrix(cov, x, nil)
	return cov, nil
}

// ScaleCovariance returns cov multiplied by a scalar, used to
// annualize daily covariance (factor 252).
func ScaleCovariance(cov *mat.SymDense, factor float64) *mat.SymDense {
	n := cov.SymmetricDim()
	scaled := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			scaled.SetSym(i, j, cov.At(i, j)*factor)
		}
	}
	return scaled
}
