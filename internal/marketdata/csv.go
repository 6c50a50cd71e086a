package marketdata

import (
	"encoding/csv"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

// dateLayouts are accepted date formats for the index column.
var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "01/02/2006"}

// CSVPriceLoader reads a price history CSV: one date index column and
// one numeric close-price column per ticker.
type CSVPriceLoader struct {
	path       string
	dateColumn string
	log        *logger.Logger
}

// NewCSVPriceLoader creates a loader for the given file. The date
// column defaults to "Date" when empty.
func NewCSVPriceLoader(path, dateColumn string) *CSVPriceLoader {
	if dateColumn == "" {
		dateColumn = "Date"
	}
	return &CSVPriceLoader{
		path:       path,
		dateColumn: dateColumn,
		log:        logger.GetLogger("marketdata.csv"),
	}
}

// PriceSeries is a date-indexed close-price table, rows sorted by date
// ascending.
type PriceSeries struct {
	dates  []time.Time
	assets []string
	data   [][]float64
}

// Assets returns the ticker ordering.
func (p *PriceSeries) Assets() []string {
	return append([]string(nil), p.assets...)
}

// Len returns the number of observations.
func (p *PriceSeries) Len() int { return len(p.data) }

// Latest returns the most recent price per ticker.
func (p *PriceSeries) Latest() (map[string]float64, error) {
	if len(p.data) == 0 {
		return nil, errors.Data("price series is empty")
	}
	last := p.data[len(p.data)-1]
	spot := make(map[string]float64, len(p.assets))
	for j, asset := range p.assets {
		spot[asset] = last[j]
	}
	return spot, nil
}

// LogReturns computes per-asset log returns, dropping the first row.
func (p *PriceSeries) LogReturns() (*ReturnSeries, error) {
	if len(p.data) < 2 {
		return nil, errors.Dataf("need at least 2 price rows to compute returns, have %d", len(p.data))
	}

	dates := make([]time.Time, 0, len(p.data)-1)
	data := make([][]float64, 0, len(p.data)-1)
	for i := 1; i < len(p.data); i++ {
		row := make([]float64, len(p.assets))
		for j := range p.assets {
			prev := p.data[i-1][j]
			cur := p.data[i][j]
			if prev <= 0 || cur <= 0 {
				return nil, errors.Dataf("non-positive price for %q at row %d", p.assets[j], i)
			}
			row[j] = math.Log(cur / prev)
		}
		dates = append(dates, p.dates[i])
		data = append(data, row)
	}

	return NewReturnSeries(dates, p.assets, data)
}

// LoadPrices parses the CSV into a PriceSeries. Every non-date column
// must be fully numeric; the rows are sorted by date.
func (l *CSVPriceLoader) LoadPrices() (*PriceSeries, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV %s", l.path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CSV %s", l.path)
	}
	if len(records) < 2 {
		return nil, errors.Dataf("CSV %s has no data rows", l.path)
	}

	header := records[0]
	dateCol := -1
	for i, name := range header {
		if name == l.dateColumn {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return nil, errors.Dataf("date column %q not found in CSV %s", l.dateColumn, l.path)
	}

	assets := make([]string, 0, len(header)-1)
	assetCols := make([]int, 0, len(header)-1)
	for i, name := range header {
		if i == dateCol {
			continue
		}
		assets = append(assets, name)
		assetCols = append(assetCols, i)
	}
	if len(assets) == 0 {
		return nil, errors.Dataf("CSV %s has no price columns", l.path)
	}

	type row struct {
		date   time.Time
		prices []float64
	}
	rows := make([]row, 0, len(records)-1)
	for line, record := range records[1:] {
		date, err := parseDate(record[dateCol])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid date at line %d of %s", line+2, l.path)
		}

		prices := make([]float64, len(assetCols))
		for k, col := range assetCols {
			v, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				return nil, errors.Dataf("non-numeric value %q in column %q at line %d of %s", record[col], assets[k], line+2, l.path)
			}
			prices[k] = v
		}
		rows = append(rows, row{date: date, prices: prices})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	series := &PriceSeries{
		dates:  make([]time.Time, len(rows)),
		assets: assets,
		data:   make([][]float64, len(rows)),
	}
	for i, r := range rows {
		series.dates[i] = r.date
		series.data[i] = r.prices
	}

	l.log.Debugf("loaded %d price rows for %d assets from %s", len(rows), len(assets), l.path)
	return series, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Dataf("unrecognized date %q", s)
}
