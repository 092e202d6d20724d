package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// State is the position of a conversation inside the order-intake form.
type State string

const (
	StateStart                State = "START"
	StateAwaitingDate         State = "AWAITING_DATE"
	StateAwaitingType         State = "AWAITING_TYPE"
	StateAwaitingQuantity     State = "AWAITING_QUANTITY"
	StateAwaitingNotes        State = "AWAITING_NOTES"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
)

// Form data keys accumulated across the linear intake states.
const (
	FieldDate     = "date"
	FieldType     = "type"
	FieldQuantity = "quantity"
	FieldNotes    = "notes"
)

// OrderStatus is the status every committed order starts with. Status changes
// after commit belong to the human operator, never to the engine.
const OrderStatus = "AGUARDANDO_HUMANO"

var knownStates = map[State]bool{
	StateStart:                true,
	StateAwaitingDate:         true,
	StateAwaitingType:         true,
	StateAwaitingQuantity:     true,
	StateAwaitingNotes:        true,
	StateAwaitingConfirmation: true,
}

// KnownState reports whether s is part of the state enumeration. Anything else
// is a stored inconsistency that Transition resets to the menu.
func KnownState(s State) bool {
	return knownStates[s]
}

// Global commands, recognized in any state before state dispatch.
var (
	helpWords   = wordSet("ajuda", "help", "?")
	cancelWords = wordSet("cancelar", "cancela", "parar", "sair")
	resetWords  = wordSet("novo", "novo pedido", "reiniciar", "recomeçar", "menu", "start", "0")

	affirmativeWords = wordSet("sim", "s", "ok", "pode", "confirmo", "confirmar")
	negationWords    = wordSet("nao", "não", "n")

	orderIntents = wordSet("1", "encomenda", "fazer encomenda", "quero encomendar")
	priceIntents = wordSet("2", "preço", "precos", "preços", "opções", "opcoes")
	humanIntents = wordSet("3", "humano", "atendente", "confeiteira", "falar")
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Snapshot is a stored session as the engine sees it: raw state tag, raw form
// data JSON and the time of the last transition. The engine, not the store,
// decides whether the snapshot is still fresh.
type Snapshot struct {
	State     State
	DataJSON  string
	UpdatedAt time.Time
}

// Order is the side effect of a confirmed form: an immutable intake snapshot
// handed to the order ledger. Notes travel with the summary but are not part
// of the persisted order record.
type Order struct {
	Date     string
	Type     string
	Quantity string
	Notes    string
	Status   string
}

// Result is the outcome of one transition: the effective state the input was
// dispatched from, the state and data to persist, the reply to send and, on
// confirmation only, the order to commit.
type Result struct {
	From  State
	State State
	Data  map[string]string
	Reply string
	Order *Order
}

// Engine is the pure decision function of the bot. It holds only the
// inactivity window; all conversation state comes in through the Snapshot
// and goes out through the Result.
type Engine struct {
	inactivity time.Duration
}

// DefaultInactivityWindow resets an idle form after 90 minutes.
const DefaultInactivityWindow = 90 * time.Minute

func New(inactivity time.Duration) *Engine {
	if inactivity <= 0 {
		inactivity = DefaultInactivityWindow
	}
	return &Engine{inactivity: inactivity}
}

// Transition computes the next session and reply for one inbound text.
// It never fails: unrecognized input falls back to the current prompt or the
// menu, malformed stored data degrades to an empty form, and an unknown state
// tag resets to START.
func (e *Engine) Transition(snap Snapshot, text string, now time.Time) Result {
	t := strings.TrimSpace(text)
	low := strings.ToLower(t)

	state, data := e.fold(snap, now)

	// Global commands escape any state, including mid-form.
	switch {
	case helpWords[low], resetWords[low]:
		return Result{From: state, State: StateStart, Data: map[string]string{}, Reply: menuText}
	case cancelWords[low]:
		return Result{From: state, State: StateStart, Data: map[string]string{}, Reply: cancelText}
	}

	switch state {
	case StateStart:
		switch {
		case orderIntents[t]:
			return Result{From: state, State: StateAwaitingDate, Data: map[string]string{}, Reply: promptDateText}
		case priceIntents[t]:
			return Result{From: state, State: state, Data: data, Reply: priceText}
		case humanIntents[t]:
			// Announces the handoff; pausing the bot stays an operator action.
			return Result{From: state, State: state, Data: data, Reply: handoffText}
		default:
			return Result{From: state, State: state, Data: data, Reply: menuText}
		}

	case StateAwaitingDate:
		data[FieldDate] = t
		return Result{From: state, State: StateAwaitingType, Data: data, Reply: promptTypeText}

	case StateAwaitingType:
		data[FieldType] = t
		return Result{From: state, State: StateAwaitingQuantity, Data: data, Reply: promptQuantityText}

	case StateAwaitingQuantity:
		data[FieldQuantity] = t
		return Result{From: state, State: StateAwaitingNotes, Data: data, Reply: promptNotesText}

	case StateAwaitingNotes:
		if negationWords[low] {
			data[FieldNotes] = ""
		} else {
			data[FieldNotes] = t
		}
		return Result{From: state, State: StateAwaitingConfirmation, Data: data, Reply: summaryText(data)}

	case StateAwaitingConfirmation:
		if affirmativeWords[low] {
			order := &Order{
				Date:     data[FieldDate],
				Type:     data[FieldType],
				Quantity: data[FieldQuantity],
				Notes:    data[FieldNotes],
				Status:   OrderStatus,
			}
			return Result{From: state, State: StateStart, Data: map[string]string{}, Reply: confirmedText, Order: order}
		}
		return Result{From: state, State: StateStart, Data: map[string]string{}, Reply: declinedText}

	default:
		// Unreachable by construction; recover by going back to the menu.
		return Result{From: state, State: StateStart, Data: map[string]string{}, Reply: menuText}
	}
}

// fold applies the staleness window and decodes the stored form data. The
// stored record itself is untouched; an expired or unparseable snapshot is
// simply read as a fresh one.
func (e *Engine) fold(snap Snapshot, now time.Time) (State, map[string]string) {
	if snap.State == "" {
		return StateStart, map[string]string{}
	}
	if !snap.UpdatedAt.IsZero() && now.Sub(snap.UpdatedAt) > e.inactivity {
		return StateStart, map[string]string{}
	}
	return snap.State, DecodeData(snap.DataJSON)
}

// DecodeData parses stored form data, degrading to an empty form on any
// malformed payload. Corrupt state is never surfaced to the end user.
func DecodeData(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return map[string]string{}
	}
	var data map[string]string
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data == nil {
		return map[string]string{}
	}
	return data
}

// EncodeData serializes form data for storage.
func EncodeData(data map[string]string) string {
	if len(data) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func summaryText(data map[string]string) string {
	notes := data[FieldNotes]
	if notes == "" {
		notes = "—"
	}
	return fmt.Sprintf(
		"Confira se está tudo certo ✅\n"+
			"- Data: %s\n"+
			"- Tipo: %s\n"+
			"- Quantidade: %s\n"+
			"- Obs: %s\n\n"+
			"Posso enviar para a confeiteira? (sim/não)\n"+
			"Dica: 'não' volta ao menu e você refaz.",
		data[FieldDate], data[FieldType], data[FieldQuantity], notes,
	)
}
