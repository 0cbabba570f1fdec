package events

// Event is a single notification.
type Event struct {
	Type    Type
	Payload any
}

// Handler processes specific event types.
// Systems implement this interface to receive routed events.
type Handler interface {
	// HandleEvent is called synchronously from Emit
	HandleEvent(ev Event)

	// EventTypes returns the event types this handler processes
	EventTypes() []Type
}

// HandlerFunc adapts a function to a single-type Handler.
type HandlerFunc struct {
	Types []Type
	Fn    func(ev Event)
}

// HandleEvent implements Handler.
func (h HandlerFunc) HandleEvent(ev Event) { h.Fn(ev) }

// EventTypes implements Handler.
func (h HandlerFunc) EventTypes() []Type { return h.Types }

// Router dispatches events to registered handlers.
//
// Dispatch is synchronous: Emit returns after every handler for the type has
// run, in registration order. A handler may Emit further events; they are
// delivered depth-first before the outer Emit returns.
type Router struct {
	handlers [typeCount][]Handler
	counts   [typeCount]uint64
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Register adds a handler for its declared event types.
func (r *Router) Register(h Handler) {
	for _, t := range h.EventTypes() {
		if !t.Valid() {
			continue
		}
		r.handlers[t] = append(r.handlers[t], h)
	}
}

// Subscribe registers fn for one event type.
func (r *Router) Subscribe(t Type, fn func(ev Event)) {
	r.Register(HandlerFunc{Types: []Type{t}, Fn: fn})
}

// Emit delivers an event to every handler registered for its type.
func (r *Router) Emit(t Type, payload any) {
	if r == nil || !t.Valid() {
		return
	}
	r.counts[t]++
	ev := Event{Type: t, Payload: payload}
	for _, h := range r.handlers[t] {
		h.HandleEvent(ev)
	}
}

// HandlerCount returns the number of handlers registered for the given type.
func (r *Router) HandlerCount(t Type) int {
	if !t.Valid() {
		return 0
	}
	return len(r.handlers[t])
}

// Count returns how many times a type has been emitted.
func (r *Router) Count(t Type) uint64 {
	if !t.Valid() {
		return 0
	}
	return r.counts[t]
}

// Counts returns emit counts keyed by type name, skipping zeros.
func (r *Router) Counts() map[string]uint64 {
	out := make(map[string]uint64)
	for i, c := range r.counts {
		if c > 0 {
			out[Type(i).String()] = c
		}
	}
	return out
}
