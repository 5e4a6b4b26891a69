package broker

import (
	"github.com/johnjansen/bayeux/extension"
	"github.com/johnjansen/bayeux/message"
	"github.com/johnjansen/bayeux/session"
)

// IncomingHook is a server-scoped extension's inbound hook. Unlike
// session.IncomingHook, an error here propagates and aborts the
// pipeline (spec §9's documented asymmetry) rather than being caught.
type IncomingHook interface {
	Incoming(b *Broker, s *session.Session, m *message.Message) (cont bool, err error)
}

// OutgoingHook is a server-scoped extension's outbound hook, run over
// the broadcast path before subscriber fan-out and over each reply.
type OutgoingHook interface {
	Outgoing(b *Broker, sender, receiver *session.Session, m *message.Message) (cont bool, err error)
}

// Extension is any server-scoped extension; it may implement zero, one
// or both hooks above.
type Extension interface{}

// AddExtension registers ext, appending it to the incoming order and
// (implicitly, via reverse iteration) the outgoing order, per spec
// §4.1 step 9: "outgoing extensions are LIFO relative to incoming".
func (b *Broker) AddExtension(ext Extension) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.extensions = append(b.extensions, ext)
}

// RemoveExtension unregisters ext, matched by identity against a
// previous AddExtension call. A no-op if ext was never registered.
func (b *Broker) RemoveExtension(ext Extension) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.extensions {
		if e == ext {
			b.extensions = append(b.extensions[:i], b.extensions[i+1:]...)
			return
		}
	}
}

func (b *Broker) extensionsSnapshot() []Extension {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Extension(nil), b.extensions...)
}

// foldIncoming runs every registered extension's IncomingHook in
// registration order, stopping at the first veto or error. The actual
// short-circuit logic lives in package extension; this just builds the
// step closures.
func (b *Broker) foldIncoming(s *session.Session, m *message.Message) (bool, error) {
	exts := b.extensionsSnapshot()
	steps := make([]extension.Step, 0, len(exts))
	for _, ext := range exts {
		hook, ok := ext.(IncomingHook)
		if !ok {
			continue
		}
		steps = append(steps, func() (bool, error) { return hook.Incoming(b, s, m) })
	}
	return extension.Fold(steps)
}

// foldOutgoing runs every registered extension's OutgoingHook in
// reverse registration order.
func (b *Broker) foldOutgoing(sender, receiver *session.Session, m *message.Message) (bool, error) {
	exts := b.extensionsSnapshot()
	steps := make([]extension.Step, 0, len(exts))
	for i := len(exts) - 1; i >= 0; i-- {
		hook, ok := exts[i].(OutgoingHook)
		if !ok {
			continue
		}
		steps = append(steps, func() (bool, error) { return hook.Outgoing(b, sender, receiver, m) })
	}
	return extension.Fold(steps)
}
