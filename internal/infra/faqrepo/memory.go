package faqrepo

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

// MemoryRepository is an in-memory faq.Repository used for tests/dev.
type MemoryRepository struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	records   map[string]faq.Entry
	commits   int
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]faq.Entry)}
}

// EnsureSchema implements faq.Repository.
func (r *MemoryRepository) EnsureSchema(_ context.Context, dimension int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dimension = dimension
	return nil
}

// UpsertBatch implements faq.Repository.
func (r *MemoryRepository) UpsertBatch(_ context.Context, entries []faq.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		if _, exists := r.records[entry.ID]; !exists {
			r.order = append(r.order, entry.ID)
		}
		entry.Embedding = append([]float32(nil), entry.Embedding...)
		r.records[entry.ID] = entry
	}
	r.commits++
	return nil
}

// Nearest implements faq.Repository using euclidean distance, matching pgvector's <-> operator.
func (r *MemoryRepository) Nearest(_ context.Context, embedding []float32, k int) ([]faq.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]faq.Match, 0, len(r.order))
	for _, id := range r.order {
		entry := r.records[id]
		matches = append(matches, faq.Match{Entry: entry, Distance: euclideanDistance(embedding, entry.Embedding)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Count implements faq.Repository.
func (r *MemoryRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}

// Entries returns stored entries in first-insert order.
func (r *MemoryRepository) Entries() []faq.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]faq.Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

// Commits reports how many UpsertBatch calls have been applied.
func (r *MemoryRepository) Commits() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commits
}

func euclideanDistance(a, b []float32) float64 {
	length := len(a)
	if len(b) < length {
		length = len(b)
	}
	var sum float64
	for i := 0; i < length; i++ {
		diff := float64(a[i] - b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

var _ faq.Repository = (*MemoryRepository)(nil)
