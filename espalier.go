// Package espalier wires the document synchronization core to its default
// store adapters: Redis as the authoritative primary store and Firebase
// Realtime Database as the presentation view store.
//
// Most programs call [Connect] once at startup and define their document
// kinds on the returned registry:
//
//	reg, err := espalier.Connect(ctx,
//	    redisstore.Config{Addr: "localhost:6379"},
//	    fireview.Config{DatabaseURL: dbURL, CredentialsFile: credPath},
//	    nil,
//	)
//
// Kinds that need a different store pair declare their own connections in
// their [document.Definition]; everything else falls back to the pair
// installed here. See package document for the synchronization semantics.
package espalier

import (
	"context"
	"log/slog"

	"github.com/jacentio/espalier/document"
	"github.com/jacentio/espalier/fireview"
	"github.com/jacentio/espalier/redisstore"
)

// Connect builds the default Redis + Firebase connection pair and returns
// a registry with it installed. A nil logger defaults to slog.Default().
func Connect(ctx context.Context, primary redisstore.Config, view fireview.Config, logger *slog.Logger) (*document.Registry, error) {
	viewStore, err := fireview.New(ctx, view, logger)
	if err != nil {
		return nil, err
	}

	reg := document.NewRegistry()
	reg.Connect(document.Connections{
		Primary: redisstore.New(primary),
		View:    viewStore,
	})
	return reg, nil
}
