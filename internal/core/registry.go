package core

import (
	"fmt"
	"sort"
	"sync"
)

// LoadOrder is the order in which entities must be loaded so that foreign
// keys resolve: dictionary and users first, payments last.
var LoadOrder = []string{"dictionary", "users", "plans", "credits", "payments"}

var (
	registry   = make(map[string]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if an entity with the same key is already registered.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("entity already registered: %s", def.Info.Key))
	}

	// Populate Columns from FieldSpecs if not set
	if len(def.Info.Columns) == 0 && len(def.FieldSpecs) > 0 {
		def.Info.Columns = make([]string, len(def.FieldSpecs))
		for i, field := range def.FieldSpecs {
			def.Info.Columns[i] = field.Name
		}
	}
	if def.Info.Table == "" {
		def.Info.Table = def.Info.Key
	}
	if def.Info.FileName == "" {
		def.Info.FileName = def.Info.Key + ".csv"
	}

	registry[def.Info.Key] = def
}

// Get returns an entity definition by key.
// Returns false if not found.
func Get(key string) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered definitions in LoadOrder.
// Entities missing from LoadOrder follow, sorted by key.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		ri, rj := loadRank(result[i].Info.Key), loadRank(result[j].Info.Key)
		if ri != rj {
			return ri < rj
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Names returns the keys of all registered entities in LoadOrder.
func Names() []string {
	defs := All()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Info.Key
	}
	return names
}

func loadRank(key string) int {
	for i, k := range LoadOrder {
		if k == key {
			return i
		}
	}
	return len(LoadOrder)
}

// Clear removes all registered entities.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]EntityDefinition)
}
