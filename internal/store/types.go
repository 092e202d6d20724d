package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("record not found")

// Direction of a logged message relative to the remote party.
type Direction string

const (
	DirectionIn       Direction = "in"
	DirectionOutBot   Direction = "out-bot"
	DirectionOutHuman Direction = "out-human"
)

// SessionRecord is the persisted conversation state: one row per remote party,
// upsert semantics. Form data stays raw JSON here; decoding and staleness are
// the engine's concern.
type SessionRecord struct {
	ConversationID string    `json:"wa_id"`
	State          string    `json:"state"`
	DataJSON       string    `json:"data_json"`
	UpdatedAt      time.Time `json:"updated_at"`
	Paused         bool      `json:"pause_bot"`
}

// MessageRecord is one entry of the append-only conversation log.
type MessageRecord struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"wa_id"`
	Direction      Direction `json:"direction"`
	ContentType    string    `json:"type"`
	Body           string    `json:"body"`
	ExternalID     string    `json:"wa_message_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderRecord is an immutable completed-form snapshot. The engine never
// mutates it after creation.
type OrderRecord struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"wa_id"`
	Date           string    `json:"date"`
	Type           string    `json:"type"`
	Quantity       string    `json:"quantity"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// OutboxRecord holds an outbound message whose delivery failed, kept for
// retry and audit.
type OutboxRecord struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"wa_id"`
	Message        string    `json:"message"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary aggregates the message log per remote party for the
// operator inbox.
type ConversationSummary struct {
	ConversationID string    `json:"wa_id"`
	LastAt         time.Time `json:"last_at"`
	InboundCount   int       `json:"in_msgs"`
	OutboundCount  int       `json:"out_msgs"`
}

// Product belongs to one tenant's catalog, identified by slug.
type Product struct {
	ID          int64     `json:"id"`
	TenantSlug  string    `json:"tenant_slug"`
	SKU         string    `json:"sku,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int       `json:"price_cents"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductPatch is a partial product update; nil fields are left untouched.
type ProductPatch struct {
	SKU         *string `json:"sku"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int    `json:"price_cents"`
	Currency    *string `json:"currency"`
	ImageURL    *string `json:"image_url"`
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.SKU == nil && p.Name == nil && p.Description == nil &&
		p.PriceCents == nil && p.Currency == nil && p.ImageURL == nil
}

// Store persists all bot state. Session saves are last-writer-wins by design:
// concurrent webhook deliveries for one conversation may race, which is
// accepted at this message rate. ClaimMessage is the one operation with a
// hard atomicity requirement.
type Store interface {
	// ClaimMessage records an externally-assigned message id, returning true
	// exactly once per id. Implemented as an atomic insert-if-absent.
	ClaimMessage(ctx context.Context, messageID, conversationID string) (bool, error)

	// LoadSession returns the stored session, or a default START session
	// (not persisted) when none exists.
	LoadSession(ctx context.Context, conversationID string) (SessionRecord, error)
	// SaveSession upserts the full session record.
	SaveSession(ctx context.Context, rec SessionRecord) error
	// SetPaused toggles the human-handoff flag without touching state or
	// form data, creating a minimal session if absent.
	SetPaused(ctx context.Context, conversationID string, paused bool) error
	// GetPaused reports the handoff flag; false when no session exists.
	GetPaused(ctx context.Context, conversationID string) (bool, error)

	AppendMessage(ctx context.Context, rec MessageRecord) error
	ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error)

	SaveOrder(ctx context.Context, rec OrderRecord) error
	ListOrders(ctx context.Context) ([]OrderRecord, error)

	AddOutbox(ctx context.Context, conversationID, message, reason string) error

	ListProducts(ctx context.Context, tenantSlug string, limit, offset int) ([]Product, error)
	CountProducts(ctx context.Context, tenantSlug string) (int, error)
	GetProduct(ctx context.Context, tenantSlug string, productID int64) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, tenantSlug string, productID int64, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, tenantSlug string, productID int64) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// DefaultSession is what LoadSession returns for an unseen conversation.
func DefaultSession(conversationID string) SessionRecord {
	return SessionRecord{
		ConversationID: conversationID,
		State:          "START",
		DataJSON:       "{}",
	}
}
