package plugins

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultCategory is assigned to plugins that declare no category.
const DefaultCategory = "Other"

var (
	// plugins is the package-level registry map
	registered = make(map[string]Plugin)
	// mu protects concurrent access to the registry map
	mu sync.RWMutex
)

// Register adds a plugin to the registry
func Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	manifest := plugin.Manifest()
	if manifest == nil {
		return fmt.Errorf("plugin has nil manifest")
	}
	if errs := ValidateManifest(manifest); len(errs) > 0 {
		return fmt.Errorf("refusing to register invalid manifest: %v", errs)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := registered[manifest.ID]; exists {
		return fmt.Errorf("plugin already registered: %s", manifest.ID)
	}

	registered[manifest.ID] = plugin
	return nil
}

// Unregister removes a plugin from the registry
func Unregister(id string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := registered[id]; !exists {
		return &NotFoundError{ID: id}
	}

	delete(registered, id)
	return nil
}

// Get retrieves a plugin by ID
func Get(id string) (Plugin, error) {
	mu.RLock()
	defer mu.RUnlock()

	plugin, exists := registered[id]
	if !exists {
		return nil, &NotFoundError{ID: id}
	}

	return plugin, nil
}

// Has checks if a plugin is registered
func Has(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, exists := registered[id]
	return exists
}

// List returns all registered plugins ordered by ID
func List() []Plugin {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Plugin, 0, len(registered))
	for _, plugin := range registered {
		result = append(result, plugin)
	}
	sortByID(result)

	return result
}

// ListByCategory returns all plugins in a display category
func ListByCategory(category string) []Plugin {
	mu.RLock()
	defer mu.RUnlock()

	var result []Plugin
	for _, plugin := range registered {
		if strings.EqualFold(MetadataFor(plugin).Category, category) {
			result = append(result, plugin)
		}
	}
	sortByID(result)

	return result
}

// ListMetadata returns the display records of all registered plugins,
// ordered by display order then ID
func ListMetadata() []Metadata {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Metadata, 0, len(registered))
	for _, plugin := range registered {
		result = append(result, MetadataFor(plugin))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// Count returns the number of registered plugins
func Count() int {
	mu.RLock()
	defer mu.RUnlock()

	return len(registered)
}

// Clear removes all plugins from the registry
func Clear() {
	mu.Lock()
	defer mu.Unlock()

	registered = make(map[string]Plugin)
}

// MetadataFor builds the display record for a plugin. Plugins that
// implement MetadataProvider control their own record; everything else is
// derived from the manifest.
func MetadataFor(plugin Plugin) Metadata {
	if provider, ok := plugin.(MetadataProvider); ok {
		return provider.Metadata()
	}

	manifest := plugin.Manifest()
	category := manifest.Category
	if category == "" {
		category = DefaultCategory
	}

	return Metadata{
		ID:       manifest.ID,
		Name:     manifest.Name,
		Category: category,
		Icon:     manifest.Icon,
		Badge:    "native",
		Order:    100,
	}
}

func sortByID(list []Plugin) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Manifest().ID < list[j].Manifest().ID
	})
}
