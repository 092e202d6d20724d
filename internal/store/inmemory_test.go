package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestClaimMessageFirstWriterWins(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first, err := s.ClaimMessage(ctx, "wamid.1", "5511999")
	if err != nil {
		t.Fatalf("ClaimMessage() error = %v", err)
	}
	second, err := s.ClaimMessage(ctx, "wamid.1", "5511999")
	if err != nil {
		t.Fatalf("ClaimMessage() error = %v", err)
	}
	if !first || second {
		t.Fatalf("claims = (%v, %v), want (true, false)", first, second)
	}

	// A different conversation id does not unlock an already-claimed id.
	again, err := s.ClaimMessage(ctx, "wamid.1", "5511000")
	if err != nil {
		t.Fatalf("ClaimMessage() error = %v", err)
	}
	if again {
		t.Fatalf("claim with different conversation = true, want false")
	}
}

func TestClaimMessageConcurrent(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	const racers = 32
	var wg sync.WaitGroup
	results := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ClaimMessage(ctx, "wamid.race", "5511999")
			if err != nil {
				t.Errorf("ClaimMessage() error = %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
}

func TestLoadSessionDefaultNotPersisted(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	rec, err := s.LoadSession(ctx, "5511999")
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if rec.State != "START" || rec.DataJSON != "{}" || rec.Paused {
		t.Fatalf("default session = %+v", rec)
	}

	// The default must not have been written.
	paused, err := s.GetPaused(ctx, "5511999")
	if err != nil {
		t.Fatalf("GetPaused() error = %v", err)
	}
	if paused {
		t.Fatalf("GetPaused on absent session = true, want false")
	}
	if len(s.sessions) != 0 {
		t.Fatalf("sessions persisted = %d, want 0", len(s.sessions))
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	saved := SessionRecord{
		ConversationID: "5511999",
		State:          "AWAITING_TYPE",
		DataJSON:       `{"date":"15/02"}`,
		UpdatedAt:      time.Now().UTC().Truncate(time.Second),
		Paused:         true,
	}
	if err := s.SaveSession(ctx, saved); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	got, err := s.LoadSession(ctx, "5511999")
	if err != nil {
		t.Fatalf("LoadSession() error = %v", err)
	}
	if got.State != saved.State || got.DataJSON != saved.DataJSON || !got.Paused {
		t.Fatalf("round trip = %+v, want %+v", got, saved)
	}

	// Save the loaded record back unchanged: state and data must not drift.
	if err := s.SaveSession(ctx, got); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	again, _ := s.LoadSession(ctx, "5511999")
	if again.State != saved.State || again.DataJSON != saved.DataJSON {
		t.Fatalf("second round trip drifted: %+v", again)
	}
}

func TestSetPausedCreatesMinimalSession(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.SetPaused(ctx, "5511999", true); err != nil {
		t.Fatalf("SetPaused() error = %v", err)
	}

	paused, err := s.GetPaused(ctx, "5511999")
	if err != nil {
		t.Fatalf("GetPaused() error = %v", err)
	}
	if !paused {
		t.Fatalf("GetPaused = false, want true")
	}

	rec, _ := s.LoadSession(ctx, "5511999")
	if rec.State != "START" || rec.DataJSON != "{}" {
		t.Fatalf("minimal session = %+v, want START with empty data", rec)
	}
}

func TestSetPausedKeepsFormState(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.SaveSession(ctx, SessionRecord{
		ConversationID: "5511999",
		State:          "AWAITING_QUANTITY",
		DataJSON:       `{"date":"15/02","type":"festa"}`,
		UpdatedAt:      time.Now().UTC(),
	})
	if err := s.SetPaused(ctx, "5511999", true); err != nil {
		t.Fatalf("SetPaused() error = %v", err)
	}

	rec, _ := s.LoadSession(ctx, "5511999")
	if rec.State != "AWAITING_QUANTITY" || rec.DataJSON != `{"date":"15/02","type":"festa"}` {
		t.Fatalf("pause must not touch form progress, got %+v", rec)
	}
	if !rec.Paused {
		t.Fatalf("Paused = false, want true")
	}

	if err := s.SetPaused(ctx, "5511999", false); err != nil {
		t.Fatalf("SetPaused() error = %v", err)
	}
	rec, _ = s.LoadSession(ctx, "5511999")
	if rec.Paused || rec.State != "AWAITING_QUANTITY" {
		t.Fatalf("resume must only clear the flag, got %+v", rec)
	}
}

func TestMessagesAppendOnlyOrdered(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, body := range []string{"oi", "menu", "1"} {
		if err := s.AppendMessage(ctx, MessageRecord{
			ConversationID: "5511999",
			Direction:      DirectionIn,
			ContentType:    "text",
			Body:           body,
		}); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}
	_ = s.AppendMessage(ctx, MessageRecord{
		ConversationID: "5511999",
		Direction:      DirectionOutBot,
		ContentType:    "text",
		Body:           "resposta",
	})

	msgs, err := s.ListMessages(ctx, "5511999", 0)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("len(msgs) = %d, want 4", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID <= msgs[i-1].ID {
			t.Fatalf("messages out of insertion order: %+v", msgs)
		}
	}
}

func TestListConversationsAggregates(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.AppendMessage(ctx, MessageRecord{ConversationID: "a", Direction: DirectionIn, ContentType: "text", Body: "oi"})
	_ = s.AppendMessage(ctx, MessageRecord{ConversationID: "a", Direction: DirectionOutBot, ContentType: "text", Body: "menu"})
	_ = s.AppendMessage(ctx, MessageRecord{ConversationID: "b", Direction: DirectionIn, ContentType: "text", Body: "olá"})

	convs, err := s.ListConversations(ctx, 10)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("len(convs) = %d, want 2", len(convs))
	}
	for _, c := range convs {
		if c.ConversationID == "a" && (c.InboundCount != 1 || c.OutboundCount != 1) {
			t.Fatalf("conversation a counts = %+v", c)
		}
	}
}

func TestOrdersNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_ = s.SaveOrder(ctx, OrderRecord{ConversationID: "a", Date: "15/02", Type: "festa", Quantity: "100", Status: "AGUARDANDO_HUMANO"})
	_ = s.SaveOrder(ctx, OrderRecord{ConversationID: "b", Date: "20/02", Type: "presente", Quantity: "50", Status: "AGUARDANDO_HUMANO"})

	orders, err := s.ListOrders(ctx)
	if err != nil {
		t.Fatalf("ListOrders() error = %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(orders))
	}
	if orders[0].ConversationID != "b" {
		t.Fatalf("orders not newest-first: %+v", orders)
	}
}

func TestProductsCRUD(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	created, err := s.CreateProduct(ctx, Product{TenantSlug: "doceria", Name: "Brigadeiro", PriceCents: 250})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if created.ID == 0 || created.Currency != "BRL" {
		t.Fatalf("created = %+v", created)
	}

	n, _ := s.CountProducts(ctx, "doceria")
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if n, _ := s.CountProducts(ctx, "outra"); n != 0 {
		t.Fatalf("tenant isolation broken: count = %d", n)
	}

	price := 300
	updated, err := s.UpdateProduct(ctx, "doceria", created.ID, ProductPatch{PriceCents: &price})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if updated.PriceCents != 300 || updated.Name != "Brigadeiro" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := s.UpdateProduct(ctx, "doceria", 999, ProductPatch{PriceCents: &price}); err != ErrNotFound {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}

	deleted, err := s.DeleteProduct(ctx, "doceria", created.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteProduct() = (%v, %v), want (true, nil)", deleted, err)
	}
	if _, err := s.GetProduct(ctx, "doceria", created.ID); err != ErrNotFound {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
}
