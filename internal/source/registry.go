package source

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry holds the source tools available to a run, keyed by capability
// name. Registration happens before fan-out; lookups afterward are
// read-mostly.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]SourceTool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]SourceTool),
	}
}

// Register adds a tool under its capability name, replacing any previous
// tool for that capability.
func (r *Registry) Register(tool SourceTool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns the tool for a capability name.
func (r *Registry) Get(capability string) (SourceTool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[capability]
	if !ok {
		return nil, &ErrUnknownCapability{Capability: capability}
	}
	return tool, nil
}

// Capabilities returns the registered capability names, sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// routingFile is the YAML shape of a user routing override file.
type routingFile struct {
	Routing map[string]string `yaml:"routing"`
}

// LoadRoutingTable reads a YAML routing override file and merges it over the
// built-in table. A missing file is not an error; the defaults apply.
func LoadRoutingTable(path string) (RoutingTable, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultRouting(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}

	var file routingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}

	overrides := make(RoutingTable, len(file.Routing))
	for sig, cap := range file.Routing {
		overrides[Signal(sig)] = cap
	}
	return DefaultRouting().Merge(overrides), nil
}
