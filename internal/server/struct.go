package server

import (
	"github.com/hztools/hzsync/internal/identity"
	"github.com/hztools/hzsync/internal/poller"
	"github.com/hztools/hzsync/internal/rcon"
	"github.com/hztools/hzsync/internal/save"
	"github.com/hztools/hzsync/internal/storage"
	"github.com/hztools/hzsync/internal/tasks"
)

// Server holds the dependencies required to handle the local status API.
type Server struct {
	// storage provides read access to counters and event history.
	storage *storage.Repository

	// pipeline answers all save-derived queries and runs background parses.
	pipeline *save.Pipeline

	// poller exposes the most recent live fetch snapshot.
	poller *poller.Poller

	// resolver maps player names to steam ids for the player lookup endpoint.
	resolver *identity.Resolver

	// manager runs ad-hoc RCON commands for the command endpoint.
	manager *rcon.Manager

	// pool receives the detached staleness-triggered parse tasks.
	pool *tasks.Pool

	// authToken is the secret required on every endpoint; the API refuses to
	// start without one.
	authToken string

	// connectedLog locates the server's connect log for last-seen timestamps
	// on the status endpoint.
	connectedLog string
}
