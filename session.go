package ambimix

import "github.com/google/uuid"

// Session is one render or preview of a graph
type Session struct {
	ID        string
	Graph     *Graph
	Transport *TransportController
}

// NewSession returns a session with an idle transport
func NewSession(graph *Graph, settings Settings) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Graph:     graph,
		Transport: NewTransportController(settings),
	}
}
