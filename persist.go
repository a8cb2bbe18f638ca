package atomq

import (
	"context"
	"fmt"
	"os"

	"github.com/zoobzio/capitan"
)

// Persister writes a client's dehydrated cache state to a file. The written
// snapshot is the same shape FileSource and Hydrator consume, so a
// Persister/Hydrator pair round-trips the cache across process restarts.
type Persister struct {
	client Client
	path   string
	codec  Codec
}

// NewPersister creates a Persister writing the client's cache to path.
// Default codec is JSON; configure instances with the chainable methods
// before calling Persist().
func NewPersister(client Client, path string) *Persister {
	return &Persister{
		client: client,
		path:   path,
		codec:  JSONCodec{},
	}
}

// Codec sets the codec for serializing dehydrated state.
// Default: JSONCodec.
func (p *Persister) Codec(codec Codec) *Persister {
	p.codec = codec
	return p
}

// Persist dehydrates the client and writes the encoded snapshot. The write
// goes through a temp file and rename so a FileSource watching the path
// never reads a partial snapshot.
func (p *Persister) Persist(ctx context.Context) error {
	state, err := p.client.Dehydrate()
	if err != nil {
		capitan.Emit(ctx, DehydrationFailed,
			KeyStage.Field("dehydrate"),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("dehydrate failed: %w", err)
	}

	data, err := p.codec.Marshal(state)
	if err != nil {
		capitan.Emit(ctx, DehydrationFailed,
			KeyStage.Field("encode"),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("encode failed: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		capitan.Emit(ctx, DehydrationFailed,
			KeyStage.Field("write"),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("write failed: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		capitan.Emit(ctx, DehydrationFailed,
			KeyStage.Field("write"),
			KeyError.Field(err.Error()),
		)
		return fmt.Errorf("write failed: %w", err)
	}

	capitan.Emit(ctx, DehydrationWritten,
		KeyQueries.Field(len(state.Queries)),
		KeyPath.Field(p.path),
	)
	return nil
}
