// Package message implements the Bayeux wire message: a JSON object with a
// fixed set of recognized keys plus a lazily-computed, write-once
// serialized form.
package message

import (
	"encoding/json"
	"sync"
)

// Advice carries reconnection hints from server to client.
type Advice struct {
	Reconnect        string `json:"reconnect,omitempty"` // "retry" | "handshake" | "none"
	Timeout          *int64 `json:"timeout,omitempty"`
	Interval         *int64 `json:"interval,omitempty"`
	MultipleClients  bool   `json:"multiple-clients,omitempty"`
}

// Ext is the free-form extension payload (`ext.ack`, `ext.authentication`, ...).
type Ext map[string]interface{}

// Message is a single Bayeux message, inbound or outbound.
//
// Only the typed fields below are decoded and encoded; keys the
// protocol does not recognize are dropped on decode. Once Serialize (or
// MarshalJSON) has run, the cached JSON is returned unchanged — that is
// the "immutability after serialize" invariant from the data model:
// once json has been computed it does not reflect later writes.
type Message struct {
	Channel                  string      `json:"channel,omitempty"`
	ClientID                 string      `json:"clientId,omitempty"`
	ID                       string      `json:"id,omitempty"`
	Data                     interface{} `json:"data,omitempty"`
	Subscription             interface{} `json:"subscription,omitempty"` // string or []string
	Ext                      Ext         `json:"ext,omitempty"`
	Advice                   *Advice     `json:"advice,omitempty"`
	Successful               *bool       `json:"successful,omitempty"`
	Error                    string      `json:"error,omitempty"`
	Version                  string      `json:"version,omitempty"`
	SupportedConnectionTypes []string    `json:"supportedConnectionTypes,omitempty"`
	ConnectionType           string      `json:"connectionType,omitempty"`

	// Reply is the non-serialized back-reference the Broker attaches to
	// every inbound message so handlers can build the response in place.
	Reply *Message `json:"-"`

	mu       sync.Mutex
	cached   []byte
	hasCache bool
}

// New returns an empty message addressed to channel.
func New(channel string) *Message {
	return &Message{Channel: channel}
}

// SetSuccessful sets the successful field to v.
func (m *Message) SetSuccessful(v bool) *Message {
	m.Successful = &v
	return m
}

// IsSuccessful reports whether the message is marked successful.
func (m *Message) IsSuccessful() bool {
	return m.Successful != nil && *m.Successful
}

// SetError sets the error code string ("code::tag" form per spec §6).
func (m *Message) SetError(code string) *Message {
	m.Error = code
	v := false
	m.Successful = &v
	return m
}

// EnsureAdvice returns the message's Advice, creating it if absent.
func (m *Message) EnsureAdvice() *Advice {
	if m.Advice == nil {
		m.Advice = &Advice{}
	}
	return m.Advice
}

// Serialize returns the cached JSON encoding of the message, computing it
// on first call. Subsequent mutation of the message does not change the
// returned bytes — callers that need fresh output must build a new
// Message.
func (m *Message) Serialize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serializeLocked()
}

func (m *Message) serializeLocked() ([]byte, error) {
	if m.hasCache {
		return m.cached, nil
	}
	b, err := json.Marshal((*wireMessage)(m))
	if err != nil {
		return nil, err
	}
	m.cached = b
	m.hasCache = true
	return b, nil
}

// wireMessage shares Message's field layout but not its methods, so
// marshaling it does not recurse into MarshalJSON.
type wireMessage Message

// MarshalJSON makes every encoding/json.Marshal call — including one
// embedding this message in a slice via SerializeBatch — honor the
// write-once cache instead of re-deriving JSON from (possibly since
// mutated) fields.
func (m *Message) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.serializeLocked()
}

// Decode parses a single Bayeux message from raw JSON.
func Decode(raw []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeBatch parses a JSON array of Bayeux messages, the shape every
// Bayeux request body takes.
func DecodeBatch(raw []byte) ([]*Message, error) {
	var msgs []*Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SubscriptionChannels normalizes the Subscription field (string or list)
// into a slice. Returns ok=false if the field is missing, empty, or
// neither a string nor a list of strings.
func (m *Message) SubscriptionChannels() ([]string, bool) {
	switch v := m.Subscription.(type) {
	case string:
		if v == "" {
			return nil, false
		}
		return []string{v}, true
	case []string:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case []interface{}:
		if len(v) == 0 {
			return nil, false
		}
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Serialize a batch of messages into a single JSON array, the canonical
// Bayeux response body shape.
func SerializeBatch(msgs []*Message) ([]byte, error) {
	// json.Marshal on the slice calls each element's MarshalJSON, so every
	// message reuses its write-once cache: queued messages were primed by
	// Serialize at enqueue time, and replies are cached here on first use.
	return json.Marshal(msgs)
}
