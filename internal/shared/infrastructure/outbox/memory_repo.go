package outbox

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps messages in process. It backs the in-memory store.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	messages map[int64]*Message
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{messages: make(map[int64]*Message)}
}

func (r *MemoryRepository) SaveBatch(_ context.Context, msgs []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.nextID++
		m.ID = r.nextID
		cp := *m
		r.messages[m.ID] = &cp
	}
	return nil
}

func (r *MemoryRepository) FetchDue(_ context.Context, now time.Time, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Message
	for _, m := range r.messages {
		if m.DueAt(now) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) MarkPublished(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(m *Message) { m.PublishedAt = &at })
}

func (r *MemoryRepository) MarkFailed(_ context.Context, id int64, reason string, nextRetryAt time.Time) error {
	return r.update(id, func(m *Message) {
		m.RetryCount++
		m.LastError = &reason
		m.NextRetryAt = &nextRetryAt
	})
}

func (r *MemoryRepository) MarkDead(_ context.Context, id int64, reason string, at time.Time) error {
	return r.update(id, func(m *Message) {
		m.RetryCount++
		m.DeadLetteredAt = &at
		m.DeadLetterReason = &reason
	})
}

func (r *MemoryRepository) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.messages {
		if m.PublishedAt != nil && m.PublishedAt.Before(cutoff) {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

// All returns a copy of every stored message ordered by ID.
func (r *MemoryRepository) All() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, 0, len(r.messages))
	for _, m := range r.messages {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryRepository) update(id int64, fn func(*Message)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	fn(m)
	return nil
}
