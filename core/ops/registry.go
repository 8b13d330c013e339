package ops

import (
	"context"
	"fmt"
	"sync"
)

// Command is a catalog entry shown by /help.
type Command interface {
	Name() string
	Description() string
}

// Op is a command whose whole answer is a single text message.
type Op interface {
	Command
	Execute(ctx context.Context, args string) (string, error)
}

// Registry holds registered commands keyed by name, in registration order.
type Registry struct {
	mu    sync.RWMutex
	cmds  map[string]Command
	order []string
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]Command)}
}

// Register adds a command. Returns an error if the name is already registered.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := cmd.Name()
	if _, exists := r.cmds[name]; exists {
		return fmt.Errorf("command already registered: %s", name)
	}
	r.cmds[name] = cmd
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for wiring code, panicking on duplicates.
func (r *Registry) MustRegister(cmds ...Command) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Get returns the command with the given name, or nil if not found.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cmds[name]
}

// List returns all registered commands in registration order.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, len(r.order))
	for i, name := range r.order {
		result[i] = r.cmds[name]
	}
	return result
}
