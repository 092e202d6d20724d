package whatsapp

// Webhook payload shapes for inbound Cloud API events. Only the fields the
// bot reads are declared; everything else in the event is ignored.

type WebhookPayload struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Messages []InboundMessage `json:"messages"`
}

// InboundMessage is one message inside a webhook delivery. ID is the
// externally-assigned message id used for dedup; it can be absent on
// malformed payloads, in which case the message is processed unconditionally.
type InboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *Text  `json:"text,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

// Body returns the text content, empty for non-text messages.
func (m InboundMessage) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}
