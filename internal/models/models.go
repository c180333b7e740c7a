package models

// AllParticipants is the reserved recipient meaning "everyone in the room".
const AllParticipants = "Todos"

// Kind is the wire value of a message's "type" field.
type Kind string

const (
	KindStatus  Kind = "status"
	KindPublic  Kind = "message"
	KindPrivate Kind = "private_message"

	// KindUnknown is what any other wire token decodes to, including the
	// "private-message" spelling some old clients sent.
	KindUnknown Kind = ""
)

func (k *Kind) UnmarshalText(b []byte) error {
	switch v := Kind(b); v {
	case KindStatus, KindPublic, KindPrivate:
		*k = v
	default:
		*k = KindUnknown
	}
	return nil
}

// Postable reports whether a client may send a message of this kind.
func (k Kind) Postable() bool {
	return k == KindPublic || k == KindPrivate
}

type Participant struct {
	Name string `json:"name"`
}

// Message is one entry of the room feed. It is compared by value.
type Message struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type Kind   `json:"type"`
	Time string `json:"time"`
}

// Request payloads

type SendMessagePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type Kind   `json:"type"`
}

type StatusPayload struct {
	Name string `json:"name"`
}
