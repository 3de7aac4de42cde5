package pool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vk/sotgo/internal/entity"
	"github.com/vk/sotgo/internal/signal"
)

// ObjectConflictError is returned when an entity name is already taken.
type ObjectConflictError struct {
	Name  string
	Class string
}

func (e *ObjectConflictError) Error() string {
	return fmt.Sprintf("another entity is already registered with the name %q (%s)", e.Name, e.Class)
}

// UnknownObjectError is returned when a name does not match any entity.
type UnknownObjectError struct {
	Name string
}

func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("unknown entity %q", e.Name)
}

// Pool holds the entities of one controller session.
type Pool struct {
	mu       sync.RWMutex
	entities map[string]entity.Object
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		entities: make(map[string]entity.Object),
	}
}

// Add registers an entity under its name.
func (p *Pool) Add(obj entity.Object) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.entities[obj.Name()]; ok {
		return &ObjectConflictError{Name: obj.Name(), Class: existing.Class()}
	}
	p.entities[obj.Name()] = obj
	return nil
}

// Remove unregisters an entity. Its signals are not unplugged.
func (p *Pool) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entities[name]; !ok {
		return &UnknownObjectError{Name: name}
	}
	delete(p.entities, name)
	return nil
}

// Get retrieves an entity by name.
func (p *Pool) Get(name string) (entity.Object, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	obj, ok := p.entities[name]
	if !ok {
		return nil, &UnknownObjectError{Name: name}
	}
	return obj, nil
}

// Has reports whether an entity is registered under name.
func (p *Pool) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.entities[name]
	return ok
}

// Objects returns every entity, sorted by name.
func (p *Pool) Objects() []entity.Object {
	p.mu.RLock()
	defer p.mu.RUnlock()

	objs := make([]entity.Object, 0, len(p.entities))
	for _, obj := range p.entities {
		objs = append(objs, obj)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Name() < objs[j].Name() })
	return objs
}

// List returns the entities whose class starts with classPrefix, sorted by
// name. "Feature" lists every feature kind.
func (p *Pool) List(classPrefix string) []entity.Object {
	var out []entity.Object
	for _, obj := range p.Objects() {
		if strings.HasPrefix(obj.Class(), classPrefix) {
			out = append(out, obj)
		}
	}
	return out
}

// Signal resolves a signal path, "entity.signal".
func (p *Pool) Signal(path string) (signal.Port, error) {
	idx := strings.LastIndex(path, ".")
	if idx <= 0 || idx == len(path)-1 {
		return nil, fmt.Errorf("invalid signal path %q: expected entity.signal", path)
	}
	obj, err := p.Get(path[:idx])
	if err != nil {
		return nil, err
	}
	return obj.Signal(path[idx+1:])
}

// Plug wires two signals by path.
func (p *Pool) Plug(srcPath, dstPath string) error {
	src, err := p.Signal(srcPath)
	if err != nil {
		return fmt.Errorf("plug source: %w", err)
	}
	dst, err := p.Signal(dstPath)
	if err != nil {
		return fmt.Errorf("plug destination: %w", err)
	}
	return signal.PlugPorts(src, dst)
}
