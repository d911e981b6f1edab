// Package game provides an A2S (Steam Source query) probe used to tell a
// dead game server apart from a dead RCON listener when a fetch degrades to
// offline.
package game

import (
	"github.com/woozymasta/a2s/pkg/a2s"

	"github.com/hztools/hzsync/internal/config"
)

// Probe queries the game server's Steam query port for A2S_INFO. A nil error
// means the server process itself is up even if RCON is not answering.
func Probe(host string, options config.SteamQuery) (*a2s.Info, error) {
	client, err := a2s.New(host, options.Port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.Timeout

	return client.GetInfo()
}
