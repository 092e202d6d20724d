package engine

import (
	"strings"
	"testing"
	"time"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fresh(state State, dataJSON string) Snapshot {
	return Snapshot{State: state, DataJSON: dataJSON, UpdatedAt: now.Add(-time.Minute)}
}

func TestOrderIntentClearsPriorData(t *testing.T) {
	e := New(0)
	res := e.Transition(fresh(StateStart, `{"date":"stale"}`), "1", now)

	if res.State != StateAwaitingDate {
		t.Fatalf("State = %q, want %q", res.State, StateAwaitingDate)
	}
	if len(res.Data) != 0 {
		t.Fatalf("Data = %v, want empty", res.Data)
	}
	if res.Reply != promptDateText {
		t.Fatalf("Reply = %q, want date prompt", res.Reply)
	}
}

func TestLinearChainCommitsOrder(t *testing.T) {
	e := New(0)
	snap := Snapshot{}

	steps := []struct {
		text      string
		wantState State
	}{
		{"1", StateAwaitingDate},
		{"15/02", StateAwaitingType},
		{"festa", StateAwaitingQuantity},
		{"100", StateAwaitingNotes},
		{"não", StateAwaitingConfirmation},
		{"sim", StateStart},
	}

	var last Result
	for _, step := range steps {
		last = e.Transition(snap, step.text, now)
		if last.State != step.wantState {
			t.Fatalf("after %q: State = %q, want %q", step.text, last.State, step.wantState)
		}
		snap = Snapshot{State: last.State, DataJSON: EncodeData(last.Data), UpdatedAt: now}
	}

	if last.Order == nil {
		t.Fatalf("confirmation should commit an order")
	}
	if last.Order.Date != "15/02" || last.Order.Type != "festa" || last.Order.Quantity != "100" {
		t.Fatalf("unexpected order: %+v", last.Order)
	}
	if last.Order.Notes != "" {
		t.Fatalf("Notes = %q, want empty after negation word", last.Order.Notes)
	}
	if last.Order.Status != OrderStatus {
		t.Fatalf("Status = %q, want %q", last.Order.Status, OrderStatus)
	}
	if len(last.Data) != 0 {
		t.Fatalf("Data = %v, want cleared after commit", last.Data)
	}
}

func TestFieldsStoredVerbatim(t *testing.T) {
	e := New(0)
	res := e.Transition(fresh(StateAwaitingDate, "{}"), "  Sábado que vem, 15/02  ", now)
	if got := res.Data[FieldDate]; got != "Sábado que vem, 15/02" {
		t.Fatalf("date = %q, want trimmed input verbatim", got)
	}
}

func TestGlobalCommandsOverrideState(t *testing.T) {
	e := New(0)
	mid := fresh(StateAwaitingQuantity, `{"date":"15/02","type":"festa"}`)

	cases := []struct {
		text      string
		wantReply string
	}{
		{"cancelar", cancelText},
		{"CANCELAR", cancelText},
		{"ajuda", menuText},
		{"menu", menuText},
		{" 0 ", menuText},
	}
	for _, tc := range cases {
		res := e.Transition(mid, tc.text, now)
		if res.State != StateStart {
			t.Fatalf("%q: State = %q, want START", tc.text, res.State)
		}
		if len(res.Data) != 0 {
			t.Fatalf("%q: Data = %v, want empty", tc.text, res.Data)
		}
		if res.Reply != tc.wantReply {
			t.Fatalf("%q: Reply = %q, want %q", tc.text, res.Reply, tc.wantReply)
		}
	}
}

func TestPriceIntentKeepsState(t *testing.T) {
	e := New(0)
	res := e.Transition(fresh(StateStart, "{}"), "2", now)
	if res.State != StateStart {
		t.Fatalf("State = %q, want START", res.State)
	}
	if res.Reply != priceText {
		t.Fatalf("Reply = %q, want price info", res.Reply)
	}
}

func TestHumanIntentDoesNotCommitAnything(t *testing.T) {
	e := New(0)
	res := e.Transition(fresh(StateStart, "{}"), "3", now)
	if res.State != StateStart || res.Order != nil {
		t.Fatalf("State = %q, Order = %v, want START and no order", res.State, res.Order)
	}
	if res.Reply != handoffText {
		t.Fatalf("Reply = %q, want handoff notice", res.Reply)
	}
}

func TestUnrecognizedInputFallsBackToMenu(t *testing.T) {
	e := New(0)
	res := e.Transition(fresh(StateStart, "{}"), "bom dia", now)
	if res.State != StateStart || res.Reply != menuText {
		t.Fatalf("State = %q, Reply = %q, want START + menu", res.State, res.Reply)
	}
}

func TestStaleSessionFoldsToStart(t *testing.T) {
	e := New(90 * time.Minute)
	snap := Snapshot{
		State:     StateAwaitingQuantity,
		DataJSON:  `{"date":"15/02","type":"festa"}`,
		UpdatedAt: now.Add(-2 * time.Hour),
	}

	res := e.Transition(snap, "oi", now)
	if res.From != StateStart {
		t.Fatalf("From = %q, want stale session read as START", res.From)
	}
	if res.Reply != menuText {
		t.Fatalf("Reply = %q, want menu", res.Reply)
	}
}

func TestFreshSessionInsideWindowKeepsState(t *testing.T) {
	e := New(90 * time.Minute)
	snap := Snapshot{
		State:     StateAwaitingQuantity,
		DataJSON:  `{"date":"15/02","type":"festa"}`,
		UpdatedAt: now.Add(-89 * time.Minute),
	}

	res := e.Transition(snap, "100", now)
	if res.State != StateAwaitingNotes {
		t.Fatalf("State = %q, want AWAITING_NOTES", res.State)
	}
	if res.Data[FieldQuantity] != "100" || res.Data[FieldDate] != "15/02" {
		t.Fatalf("Data = %v, want accumulated fields kept", res.Data)
	}
}

func TestMalformedDataDegradesToEmptyForm(t *testing.T) {
	e := New(0)
	res := e.Transition(fresh(StateAwaitingNotes, "{not json"), "sem lactose", now)
	if res.State != StateAwaitingConfirmation {
		t.Fatalf("State = %q, want AWAITING_CONFIRMATION", res.State)
	}
	if res.Data[FieldNotes] != "sem lactose" {
		t.Fatalf("notes = %q, want stored despite corrupt prior data", res.Data[FieldNotes])
	}
}

func TestUnknownStateResetsToMenu(t *testing.T) {
	e := New(0)
	snap := fresh(State("SOMETHING_ELSE"), "{}")
	if KnownState(snap.State) {
		t.Fatalf("test state should be unknown")
	}

	res := e.Transition(snap, "oi", now)
	if res.State != StateStart || res.Reply != menuText {
		t.Fatalf("State = %q, Reply = %q, want defensive reset to menu", res.State, res.Reply)
	}
}

func TestConfirmationDeclineClearsForm(t *testing.T) {
	e := New(0)
	snap := fresh(StateAwaitingConfirmation, `{"date":"15/02","type":"festa","quantity":"100","notes":""}`)

	res := e.Transition(snap, "melhor não", now)
	if res.State != StateStart || res.Order != nil {
		t.Fatalf("State = %q, Order = %v, want START and no order", res.State, res.Order)
	}
	if len(res.Data) != 0 {
		t.Fatalf("Data = %v, want cleared", res.Data)
	}
	if !strings.Contains(res.Reply, menuText) {
		t.Fatalf("Reply should fall back to menu, got %q", res.Reply)
	}
}

func TestSummaryShowsDashForEmptyNotes(t *testing.T) {
	e := New(0)
	snap := fresh(StateAwaitingNotes, `{"date":"15/02","type":"festa","quantity":"100"}`)

	res := e.Transition(snap, "n", now)
	if !strings.Contains(res.Reply, "Obs: —") {
		t.Fatalf("summary should show dash for empty notes, got %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "Data: 15/02") {
		t.Fatalf("summary should include collected fields, got %q", res.Reply)
	}
}

func TestDecodeDataTolerance(t *testing.T) {
	cases := []string{"", "   ", "null", "[1,2]", `{"a":1}`}
	for _, raw := range cases {
		if got := DecodeData(raw); len(got) != 0 {
			t.Fatalf("DecodeData(%q) = %v, want empty map", raw, got)
		}
	}
	if got := DecodeData(`{"date":"15/02"}`); got["date"] != "15/02" {
		t.Fatalf("DecodeData valid payload = %v", got)
	}
}
