package renderer

import (
	"fmt"
	"sort"
	"sync"
)

// DisplayFactory constrói um Display ligado a um Publisher
type DisplayFactory func(pub Publisher) Display

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DisplayFactory)
)

// Register registra uma fábrica de displays sob um nome. Nomes
// duplicados substituem o registro anterior.
func Register(name string, factory DisplayFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewDisplay instancia o display registrado sob o nome dado
func NewDisplay(name string, pub Publisher) (Display, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("display desconhecido: %q (disponíveis: %v)", name, Names())
	}
	return factory(pub), nil
}

// Names retorna os nomes registrados em ordem alfabética
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
