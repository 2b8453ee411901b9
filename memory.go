package salesframe

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable represents any resource that holds Arrow memory.
//
// Tables, Records and Results implement it. The recommended pattern is to
// use defer for cleanup:
//
//	rep, err := salesframe.Run(ctx, &cfg)
//	if err != nil {
//		return err
//	}
//	defer rep.Release()
type Releasable interface {
	Release()
}

// MemoryManager tracks intermediate resources of a run and releases them
// together. It is safe for concurrent use.
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex
}

// NewMemoryManager creates a new memory manager with the given allocator
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}
	return &MemoryManager{
		allocator: allocator,
		resources: make([]Releasable, 0),
	}
}

// Allocator returns the allocator resources should be created with
func (m *MemoryManager) Allocator() memory.Allocator {
	return m.allocator
}

// Track adds a resource to be released by ReleaseAll
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources, most recent first, and clears
// the tracking list.
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.resources) - 1; i >= 0; i-- {
		m.resources[i].Release()
	}
	m.resources = m.resources[:0]
}

// WithMemoryManager creates a memory manager, executes fn with it, and
// releases all tracked resources afterwards.
func WithMemoryManager(allocator memory.Allocator, fn func(*MemoryManager) error) error {
	manager := NewMemoryManager(allocator)
	defer manager.ReleaseAll()
	return fn(manager)
}
