package logger

import (
	"sync"
)

// registry hands out one logger per component. Loggers set with Register are
// kept until Unregister; loggers derived from the global logger are dropped
// whenever the global logger changes.
var registry = &loggerRegistry{
	pinned:  make(map[string]*Logger),
	derived: make(map[string]*Logger),
}

type loggerRegistry struct {
	mu      sync.Mutex
	pinned  map[string]*Logger
	derived map[string]*Logger
}

// Register pins l as the logger returned by Get(name).
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.pinned[name] = l
}

// Unregister removes a logger pinned with Register.
func Unregister(name string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.pinned, name)
}

// Get returns the logger for a component: the pinned one if any, otherwise
// the global logger tagged with name. Repeated calls return the same value
// until the global logger is replaced.
func Get(name string) *Logger {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if l, ok := registry.pinned[name]; ok {
		return l
	}
	if l, ok := registry.derived[name]; ok {
		return l
	}
	l := GetGlobalLogger().WithComponent(name)
	registry.derived[name] = l
	return l
}

func forgetDerived() {
	registry.mu.Lock()
	registry.derived = make(map[string]*Logger)
	registry.mu.Unlock()
}
