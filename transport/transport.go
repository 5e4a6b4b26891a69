// Package transport implements the HTTP long-polling surface of the
// protocol: parsing the POSTed message batch, resolving a session from
// the browser cookie, folding messages through the broker, and
// assembling the response array (spec.md §4.5).
package transport

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/johnjansen/bayeux/ack"
	"github.com/johnjansen/bayeux/broker"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// Transport is the net/http-facing adapter over a Broker.
type Transport struct {
	broker *broker.Broker
	cfg    broker.Config
}

func New(b *broker.Broker, cfg broker.Config) *Transport {
	return &Transport{broker: b, cfg: cfg}
}

// ServeHTTP is the entrypoint the host's HTTP router invokes directly.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	msgs, err := message.DecodeBatch(raw)
	if err != nil || len(msgs) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if !t.validateBatch(msgs) {
		http.Error(w, "protocol violation", http.StatusBadRequest)
		return
	}

	browserID, hadCookie := t.browserID(r)
	if browserID == "" {
		browserID, err = generateBrowserID()
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	replies, queued, setCookie, status := t.handleBatch(r, msgs, browserID, hadCookie)

	if setCookie {
		http.SetCookie(w, t.cookie(browserID))
	}

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	body := make([]*message.Message, 0, len(queued)+len(replies))
	body = append(body, queued...)
	body = append(body, replies...)

	out, err := message.SerializeBatch(body)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// validateBatch enforces the one protocol-level rule the transport
// itself owns: a /meta/handshake must be the only message in its
// request (spec §4.5 step 4, §8 invariant).
func (t *Transport) validateBatch(msgs []*message.Message) bool {
	hasHandshake := false
	for _, m := range msgs {
		if m.Channel == "/meta/handshake" {
			hasHandshake = true
		}
	}
	return !hasHandshake || len(msgs) == 1
}

func generateBrowserID() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (t *Transport) browserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(t.cfg.BrowserCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (t *Transport) cookie(browserID string) *http.Cookie {
	c := &http.Cookie{
		Name:     t.cfg.BrowserCookieName,
		Value:    browserID,
		Path:     "/",
		HttpOnly: t.cfg.BrowserCookieHTTPOnly,
		Secure:   t.cfg.BrowserCookieSecure,
	}
	switch t.cfg.BrowserCookieSameSite {
	case "Strict":
		c.SameSite = http.SameSiteStrictMode
	case "Lax":
		c.SameSite = http.SameSiteLaxMode
	case "None":
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func lookupAckExtension(s *session.Session) *ack.SessionExtension {
	for _, ext := range s.Extensions() {
		if a, ok := ext.(*ack.SessionExtension); ok {
			return a
		}
	}
	return nil
}
