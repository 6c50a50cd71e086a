package store

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rzzdr/var-engine/config"
	"github.com/rzzdr/var-engine/internal/marketdata"
	"github.com/rzzdr/var-engine/pkg/utils/errors"
	"github.com/rzzdr/var-engine/pkg/utils/logger"
)

var datasetNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// DatasetInfo describes a stored price dataset.
type DatasetInfo struct {
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	Columns    []string  `json:"columns"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// DatasetStore manages price history CSV files under a single
// directory. Writes are serialized; reads are concurrent.
type DatasetStore struct {
	dir        string
	dateColumn string
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewDatasetStore creates the store, creating the dataset directory if
// needed.
func NewDatasetStore(cfg config.DataConfig) (*DatasetStore, error) {
	if err := os.MkdirAll(cfg.DatasetDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create dataset directory %s", cfg.DatasetDir)
	}

	return &DatasetStore{
		dir:        cfg.DatasetDir,
		dateColumn: cfg.DateColumn,
		log:        logger.GetLogger("store.dataset"),
	}, nil
}

// Save writes a dataset, replacing any existing one with the same
// name. The upload lands in a temp file first so a failed write never
// corrupts an existing dataset.
func (s *DatasetStore) Save(name string, r io.Reader) (*DatasetInfo, error) {
	name = strings.TrimSuffix(name, ".csv")
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".upload-*.csv")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, errors.Wrap(err, "failed to write dataset")
	}
	if err := tmp.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to write dataset")
	}

	// Reject files the risk models will not be able to load.
	loader := marketdata.NewCSVPriceLoader(tmp.Name(), s.dateColumn)
	if _, err := loader.LoadPrices(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, errors.Wrap(err, "failed to store dataset")
	}

	s.log.Infow("dataset saved", "name", name)
	return s.describe(path, name)
}

// List returns all stored datasets sorted by name.
func (s *DatasetStore) List() ([]DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dataset directory")
	}

	infos := make([]DatasetInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".csv")
		info, err := s.describe(filepath.Join(s.dir, entry.Name()), name)
		if err != nil {
			s.log.Warnw("skipping unreadable dataset", "name", name, "error", err)
			continue
		}
		infos = append(infos, *info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Get describes a single dataset.
func (s *DatasetStore) Get(name string) (*DatasetInfo, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NotFound("dataset " + name + " not found")
	}
	return s.describe(path, name)
}

// Delete removes a dataset.
func (s *DatasetStore) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("dataset " + name + " not found")
		}
		return errors.Wrapf(err, "failed to delete dataset %s", name)
	}

	s.log.Infow("dataset deleted", "name", name)
	return nil
}

// Load parses a dataset into the market data bundle the risk models
// consume.
func (s *DatasetStore) Load(name string, horizon float64) (*marketdata.MarketData, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NotFound("dataset " + name + " not found")
	}

	loader := marketdata.NewCSVPriceLoader(path, s.dateColumn)
	prices, err := loader.LoadPrices()
	if err != nil {
		return nil, err
	}
	return marketdata.FromPrices(prices, horizon)
}

func (s *DatasetStore) path(name string) (string, error) {
	name = strings.TrimSuffix(name, ".csv")
	if !datasetNamePattern.MatchString(name) {
		return "", errors.InvalidArgumentf("invalid dataset name %q", name)
	}
	return filepath.Join(s.dir, name+".csv"), nil
}

func (s *DatasetStore) describe(path, name string) (*DatasetInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat dataset %s", name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", name)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Dataf("dataset %s has no header: %v", name, err)
	}

	rows := 0
	for {
		if _, err := reader.Read(); err != nil {
			break
		}
		rows++
	}

	return &DatasetInfo{
		Name:       name,
		Rows:       rows,
		Columns:    header,
		SizeBytes:  stat.Size(),
		ModifiedAt: stat.ModTime().UTC(),
	}, nil
}
