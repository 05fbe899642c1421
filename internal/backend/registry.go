package backend

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/config"
	"nathanbeddoewebdev/perfsight/internal/util"
)

// Factory opens a backend from the user configuration.
type Factory func(cfg *config.Config, log *zap.Logger) (Manager, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register makes a backend available under name. It panics on an empty
// name, a nil factory or a duplicate registration.
func Register(name string, factory Factory) {
	normalizedName := util.NormalizeKey(name)
	if normalizedName == "" {
		panic("backend: empty backend name")
	}
	if factory == nil {
		panic("backend: nil factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[normalizedName]; exists {
		panic(fmt.Sprintf("backend: backend %q already registered", name))
	}

	registry[normalizedName] = factory
}

// Open builds the backend registered under name.
func Open(name string, cfg *config.Config, log *zap.Logger) (Manager, error) {
	normalizedName := util.NormalizeKey(name)
	mu.RLock()
	factory, ok := registry[normalizedName]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("backend: unknown backend %q", name)
	}

	if cfg == nil {
		cfg = &config.Config{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	m, err := factory(cfg, log)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Reset clears the registry. Intended for use in tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[string]Factory{}
}

// List returns the registered backend names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
