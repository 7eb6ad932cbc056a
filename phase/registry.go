package phase

import (
	"fmt"
	"sort"
	"sync"

	"github.com/quartzproof/rigprep/config"
)

var (
	defaultRegistry = make(map[string]Factory)
	registryMutex   = &sync.RWMutex{}
)

// Register adds a phase factory under its name. It returns an error if
// a phase with the same name is already registered.
func Register(name string, factory Factory) error {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := defaultRegistry[name]; exists {
		return fmt.Errorf("phase with name '%s' already registered", name)
	}
	defaultRegistry[name] = factory
	return nil
}

// Get builds a fresh phase instance by name from the run's settings. It
// returns an error if the name is not registered.
func Get(name string, settings *config.Settings) (Phase, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	factory, exists := defaultRegistry[name]
	if !exists {
		return nil, fmt.Errorf("phase with name '%s' not found in registry", name)
	}
	return factory(settings), nil
}

// Names returns the registered phase names, sorted for stable help
// output.
func Names() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	names := make([]string, 0, len(defaultRegistry))
	for name := range defaultRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
