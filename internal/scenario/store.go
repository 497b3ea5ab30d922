package scenario

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"ai-patient/pkg"
)

// Store holds the scenarios loaded at startup.  It is never mutated after
// Load returns, so concurrent reads need no locking.
type Store struct {
	byID  map[string]*Scenario
	order []string
}

// NewStore builds a store from already parsed scenarios.  Later entries
// with a duplicate id replace earlier ones but keep the earlier position.
func NewStore(scenarios ...*Scenario) *Store {
	s := &Store{byID: make(map[string]*Scenario, len(scenarios))}
	for _, sc := range scenarios {
		s.put(sc)
	}
	return s
}

func (s *Store) put(sc *Scenario) (replaced bool) {
	if _, ok := s.byID[sc.ID]; ok {
		s.byID[sc.ID] = sc
		return true
	}
	s.byID[sc.ID] = sc
	s.order = append(s.order, sc.ID)
	return false
}

// Load reads every *.yaml and *.yml file in dir.  A file that cannot be
// read or parsed is logged and skipped.  A missing directory yields an
// empty store; any other directory error is returned.
func Load(dir string, logger *slog.Logger) (*Store, error) {
	s := NewStore()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("scenario directory not found", slog.String("dir", dir))
			return s, nil
		}
		return nil, errors.Wrapf(err, "read scenario directory %s", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isScenarioFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		sc, err := loadFile(path)
		if err != nil {
			logger.Error("failed to load scenario", slog.String("path", path), slog.Any("error", err))
			continue
		}
		if s.put(sc) {
			logger.Warn("duplicate scenario id, later file wins",
				slog.String("id", sc.ID), slog.String("path", path))
		}
		logger.Info("loaded scenario", slog.String("id", sc.ID), slog.String("path", path))
	}
	return s, nil
}

func isScenarioFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func loadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, stem)
}

// Get returns the scenario with the given id.
func (s *Store) Get(id string) (*Scenario, bool) {
	sc, ok := s.byID[id]
	return sc, ok
}

// List returns id and title of every scenario in load order.
func (s *Store) List() []pkg.ScenarioSummary {
	out := make([]pkg.ScenarioSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, pkg.ScenarioSummary{ID: id, Title: s.byID[id].DisplayTitle()})
	}
	return out
}

// Len returns the number of loaded scenarios.
func (s *Store) Len() int {
	return len(s.order)
}
