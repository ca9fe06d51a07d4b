package orgs

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/crewplane/crewplane/pkg/observability"
	"github.com/crewplane/crewplane/pkg/registry"
)

// catalogFile is the on-disk YAML shape of the system plan catalog.
type catalogFile struct {
	Plans []catalogPlan `yaml:"plans"`
}

type catalogPlan struct {
	Name           string            `yaml:"name"`
	MaxEmployees   int               `yaml:"max_employees"`
	EnabledModules []registry.Module `yaml:"enabled_modules"`

	ModuleFeatures map[registry.Module]map[registry.Feature]bool `yaml:"module_features"`
}

// Catalog holds the predefined system plans, loaded from a YAML file and
// validated against the capability registry. It supports hot reload via
// fsnotify so operators can adjust plan definitions without a restart; a
// reload that fails validation is rejected and the previous catalog stays
// in effect.
type Catalog struct {
	mu    sync.RWMutex
	path  string
	plans map[string]*SubscriptionPlan
	log   *observability.Logger
}

// LoadCatalog reads and validates the system plan catalog at path.
func LoadCatalog(path string, log *observability.Logger) (*Catalog, error) {
	c := &Catalog{path: path, log: log}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Plan returns the system plan with the given name.
func (c *Catalog) Plan(name string) (*SubscriptionPlan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[name]
	return p, ok
}

// Names returns the names of all loaded system plans.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.plans))
	for name := range c.plans {
		out = append(out, name)
	}
	return out
}

// Watch reloads the catalog when the file changes. It blocks until stop is
// closed and is intended to run in its own goroutine.
func (c *Catalog) Watch(stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.path); err != nil {
		return fmt.Errorf("failed to watch plan catalog %s: %w", c.path, err)
	}

	for {
		select {
		case <-stop:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := c.reload(); err != nil {
				c.log.WithError(err).Warn("plan catalog reload rejected, keeping previous catalog")
				continue
			}
			c.log.WithField("path", c.path).Info("plan catalog reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.WithError(err).Warn("plan catalog watcher error")
		}
	}
}

func (c *Catalog) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read plan catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(file.Plans) == 0 {
		return fmt.Errorf("plan catalog %s defines no plans", c.path)
	}

	plans := make(map[string]*SubscriptionPlan, len(file.Plans))
	for _, cp := range file.Plans {
		plan := &SubscriptionPlan{
			Name:           cp.Name,
			EnabledModules: cp.EnabledModules,
			ModuleFeatures: cp.ModuleFeatures,
			MaxEmployees:   cp.MaxEmployees,
			IsSystemPlan:   true,
		}
		if err := plan.Validate(); err != nil {
			return err
		}
		if _, dup := plans[plan.Name]; dup {
			return fmt.Errorf("plan catalog defines %q twice", plan.Name)
		}
		plans[plan.Name] = plan
	}

	c.mu.Lock()
	c.plans = plans
	c.mu.Unlock()
	return nil
}
