package solr

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"ipif/internal/util"
	"ipif/pkg/logger"
)

// DefaultChunkSize is used when UpdateOpts.ChunkSize is not set.
const DefaultChunkSize = 5000

// UpdateOpts control chunking and commit behavior of Upsert.
type UpdateOpts struct {
	// ChunkSize is the maximum number of documents sent per update
	// request. Defaults to DefaultChunkSize.
	ChunkSize int
	// CommitPerChunk commits after every chunk instead of once at the
	// end of the run.
	CommitPerChunk bool
	// MaxRetries is the number of attempts per chunk. Defaults to 1.
	MaxRetries int
}

// UpdateError reports the failing chunk of an upsert run. Chunks already
// submitted before the failing one stay committed; retrying the run from
// the reported chunk is safe because upserts are idempotent per id.
type UpdateError struct {
	Chunk int
	DocID string
	Err   error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("solr update chunk %d (first doc %q): %v", e.Chunk, e.DocID, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Upsert streams documents into the core in chunks. Documents carry their
// own unique "id"; resubmitting a document with the same id overwrites the
// prior version, so duplicate ids within one run are harmless.
// It returns the number of documents submitted.
func (c *Client) Upsert(ctx context.Context, docs iter.Seq2[map[string]any, error], opts UpdateOpts) (int, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var (
		chunk []map[string]any
		total int
		n     int
	)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := c.sendChunk(ctx, chunk, opts); err != nil {
			return &UpdateError{Chunk: n, DocID: docID(chunk[0]), Err: err}
		}
		logger.Debug("Submitted update chunk", "chunk", n, "docs", len(chunk))
		total += len(chunk)
		n++
		chunk = chunk[:0]
		return nil
	}

	for doc, err := range docs {
		if err != nil {
			return total, fmt.Errorf("document stream: %w", err)
		}
		chunk = append(chunk, doc)
		if len(chunk) >= chunkSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	if !opts.CommitPerChunk {
		if err := c.Commit(ctx); err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Client) sendChunk(ctx context.Context, chunk []map[string]any, opts UpdateOpts) error {
	body, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("marshal chunk: %w", err)
	}
	rawQuery := ""
	if opts.CommitPerChunk {
		rawQuery = "commit=true"
	}
	return util.RetryErrWithContext(ctx, opts.MaxRetries, func(ctx context.Context) error {
		return c.post(ctx, "/update", rawQuery, body, nil)
	})
}

// Commit makes all submitted documents visible to searches.
func (c *Client) Commit(ctx context.Context) error {
	return c.post(ctx, "/update", "", []byte(`{"commit":{}}`), nil)
}

func docID(doc map[string]any) string {
	if id, ok := doc["id"].(string); ok {
		return id
	}
	return ""
}
