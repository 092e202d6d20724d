package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore keeps all bot state in process memory, for local runs and
// tests. Same contracts as the Postgres driver, including first-writer-wins
// message claims.
type InMemoryStore struct {
	mu        sync.Mutex
	claims    map[string]string
	sessions  map[string]SessionRecord
	messages  []MessageRecord
	orders    []OrderRecord
	outbox    []OutboxRecord
	products  map[string][]Product
	nextMsgID int64
	nextOrdID int64
	nextOutID int64
	nextPrdID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		claims:   make(map[string]string),
		sessions: make(map[string]SessionRecord),
		products: make(map[string][]Product),
	}
}

func (s *InMemoryStore) ClaimMessage(_ context.Context, messageID, conversationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.claims[messageID]; seen {
		return false, nil
	}
	s.claims[messageID] = conversationID
	return true, nil
}

func (s *InMemoryStore) LoadSession(_ context.Context, conversationID string) (SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[conversationID]
	if !ok {
		return DefaultSession(conversationID), nil
	}
	return rec, nil
}

func (s *InMemoryStore) SaveSession(_ context.Context, rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	s.sessions[rec.ConversationID] = rec
	return nil
}

func (s *InMemoryStore) SetPaused(_ context.Context, conversationID string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[conversationID]
	if !ok {
		rec = DefaultSession(conversationID)
		rec.UpdatedAt = time.Now().UTC()
	}
	rec.Paused = paused
	s.sessions[conversationID] = rec
	return nil
}

func (s *InMemoryStore) GetPaused(_ context.Context, conversationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[conversationID]
	if !ok {
		return false, nil
	}
	return rec.Paused, nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, rec MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsgID++
	rec.ID = s.nextMsgID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, rec)
	return nil
}

func (s *InMemoryStore) ListConversations(_ context.Context, limit int) ([]ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}

	byID := make(map[string]*ConversationSummary)
	for _, m := range s.messages {
		c, ok := byID[m.ConversationID]
		if !ok {
			c = &ConversationSummary{ConversationID: m.ConversationID}
			byID[m.ConversationID] = c
		}
		if m.CreatedAt.After(c.LastAt) {
			c.LastAt = m.CreatedAt
		}
		if m.Direction == DirectionIn {
			c.InboundCount++
		} else {
			c.OutboundCount++
		}
	}

	out := make([]ConversationSummary, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListMessages(_ context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 200
	}
	out := make([]MessageRecord, 0, limit)
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveOrder(_ context.Context, rec OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOrdID++
	rec.ID = s.nextOrdID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.orders = append(s.orders, rec)
	return nil
}

func (s *InMemoryStore) ListOrders(_ context.Context) ([]OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OrderRecord, len(s.orders))
	for i, o := range s.orders {
		out[len(s.orders)-1-i] = o
	}
	return out, nil
}

func (s *InMemoryStore) AddOutbox(_ context.Context, conversationID, message, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextOutID++
	s.outbox = append(s.outbox, OutboxRecord{
		ID:             s.nextOutID,
		ConversationID: conversationID,
		Message:        message,
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	})
	return nil
}

// Outbox exposes the failed-send log for tests and local inspection.
func (s *InMemoryStore) Outbox() []OutboxRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OutboxRecord, len(s.outbox))
	copy(out, s.outbox)
	return out
}

func (s *InMemoryStore) ListProducts(_ context.Context, tenantSlug string, limit, offset int) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	all := s.products[tenantSlug]
	// Newest first, like the Postgres driver.
	out := make([]Product, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *InMemoryStore) CountProducts(_ context.Context, tenantSlug string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products[tenantSlug]), nil
}

func (s *InMemoryStore) GetProduct(_ context.Context, tenantSlug string, productID int64) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products[tenantSlug] {
		if p.ID == productID {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *InMemoryStore) CreateProduct(_ context.Context, product Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPrdID++
	product.ID = s.nextPrdID
	if product.Currency == "" {
		product.Currency = "BRL"
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.TenantSlug] = append(s.products[product.TenantSlug], product)
	return product, nil
}

func (s *InMemoryStore) UpdateProduct(_ context.Context, tenantSlug string, productID int64, patch ProductPatch) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.products[tenantSlug]
	for i := range list {
		if list[i].ID != productID {
			continue
		}
		p := &list[i]
		if patch.SKU != nil {
			p.SKU = *patch.SKU
		}
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.PriceCents != nil {
			p.PriceCents = *patch.PriceCents
		}
		if patch.Currency != nil {
			p.Currency = *patch.Currency
		}
		if patch.ImageURL != nil {
			p.ImageURL = *patch.ImageURL
		}
		if !patch.Empty() {
			p.UpdatedAt = time.Now().UTC()
		}
		return *p, nil
	}
	return Product{}, ErrNotFound
}

func (s *InMemoryStore) DeleteProduct(_ context.Context, tenantSlug string, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.products[tenantSlug]
	for i := range list {
		if list[i].ID == productID {
			s.products[tenantSlug] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) Ping(context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }
