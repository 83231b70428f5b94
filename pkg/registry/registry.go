// pkg/registry/registry.go
package registry

import (
	"fmt"
	"os"
	"sync"
	"time"

	"agent-router/internal/common/errors"
	"agent-router/internal/common/logger"
	"agent-router/internal/models"
	"agent-router/internal/router/keyword"

	"gopkg.in/yaml.v3"
)

// Registry loads the route table from YAML and memoizes the parsed result
// by file modification time. A broken or missing file degrades to the
// empty table so every query falls through to escalation instead of the
// router crashing.
type Registry struct {
	path string
	log  logger.Logger

	mu      sync.Mutex
	table   *models.RouteTable
	index   *keyword.Index
	modTime time.Time
	loaded  bool
}

// New creates a registry for the route table at path. Nothing is read
// until the first Table or Index call.
func New(path string, log logger.Logger) *Registry {
	return &Registry{path: path, log: log}
}

// Table returns the current route table, re-reading the file only when its
// modification time changed.
func (r *Registry) Table() *models.RouteTable {
	table, _ := r.ensure()
	return table
}

// Index returns the compiled keyword index for the current table.
func (r *Registry) Index() *keyword.Index {
	_, index := r.ensure()
	return index
}

// Clear drops the memoized table so the next access re-reads the file,
// independently of the classification cache.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.table = nil
	r.index = nil
	r.modTime = time.Time{}
}

// ensure refreshes the memoized table when the file changed on disk and
// returns the current table and index. Both are captured under the same
// lock acquisition so a concurrent Clear can never hand a caller nil.
func (r *Registry) ensure() (*models.RouteTable, *keyword.Index) {
	info, statErr := os.Stat(r.path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if statErr != nil {
		if !r.loaded || r.table == nil {
			r.degrade(errors.NewConfigLoadError(r.path, statErr))
		}
		return r.table, r.index
	}

	if r.loaded && r.table != nil && info.ModTime().Equal(r.modTime) {
		return r.table, r.index
	}

	table, err := LoadTable(r.path)
	if err != nil {
		r.degrade(err)
		r.modTime = info.ModTime()
		return r.table, r.index
	}

	r.table = table
	r.index = keyword.NewIndex(table.Keywords)
	r.modTime = info.ModTime()
	r.loaded = true

	r.log.Info("Route table loaded", map[string]interface{}{
		"path":    r.path,
		"intents": len(table.Routes),
	})
	return r.table, r.index
}

// degrade installs the empty table after a load failure.
func (r *Registry) degrade(err error) {
	r.log.WithError(err).Error("Route table unavailable, using empty configuration", map[string]interface{}{
		"path": r.path,
	})
	r.table = models.EmptyRouteTable()
	r.index = keyword.NewIndex(nil)
	r.loaded = true
}

// LoadTable reads, schema-validates and decodes a route table file.
func LoadTable(path string) (*models.RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigLoadError(path, err)
	}

	// Decode generically first so the schema sees the raw document.
	var document map[string]interface{}
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, errors.NewConfigLoadError(path, err)
	}
	if err := validateTable(document); err != nil {
		return nil, errors.NewConfigLoadError(path, err)
	}

	var table models.RouteTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, errors.NewConfigLoadError(path, err)
	}

	if table.Keywords == nil {
		table.Keywords = map[string][]string{}
	}
	if table.Routes == nil {
		table.Routes = map[string]models.Route{}
	}
	if table.Workflows == nil {
		table.Workflows = map[string][]string{}
	}

	return &table, nil
}

// Describe renders a short summary for startup logs and the route linter.
func Describe(table *models.RouteTable) string {
	return fmt.Sprintf("intents=%d workflows=%d triggers=%d skips=%d",
		len(table.Routes), len(table.Workflows), len(table.Triggers), len(table.Skips))
}
