package peer

import "github.com/protei/hss/internal/diameter"

// HandlerFunc processes an inbound request and returns the answer to
// send back. Handlers run on a worker goroutine, not the reader, so a
// slow handler never blocks reading the next frame off the wire.
type HandlerFunc func(req *diameter.Message) *diameter.Message

type routeKey struct {
	applicationID uint32
	commandCode   uint32
}

// Router dispatches inbound requests to the handler registered for
// their (application-id, command-code) pair.
type Router struct {
	handlers map[routeKey]HandlerFunc
}

// NewRouter builds an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[routeKey]HandlerFunc)}
}

// Handle registers h for the given application-id and command code.
func (r *Router) Handle(applicationID, commandCode uint32, h HandlerFunc) {
	r.handlers[routeKey{applicationID, commandCode}] = h
}

// Dispatch looks up and invokes the handler for req. It returns nil,
// false when no handler is registered; the caller is responsible for
// answering DIAMETER_COMMAND_UNSUPPORTED in that case.
func (r *Router) Dispatch(req *diameter.Message) (*diameter.Message, bool) {
	h, ok := r.handlers[routeKey{req.Header.ApplicationID, req.Header.CommandCode}]
	if !ok {
		return nil, false
	}
	return h(req), true
}
