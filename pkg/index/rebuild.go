package index

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ipif/pkg/graph"
	"ipif/pkg/logger"
	"ipif/pkg/solr"
)

// Upserter is the index writer side of a rebuild run.
type Upserter interface {
	Upsert(ctx context.Context, docs iter.Seq2[map[string]any, error], opts solr.UpdateOpts) (int, error)
}

// RebuildOpts control parallelism and write batching of a rebuild run.
type RebuildOpts struct {
	// Workers is the number of persons built concurrently. Defaults to 4.
	Workers int
	// ChunkSize, CommitPerChunk and MaxRetries are passed through to the
	// index writer.
	ChunkSize      int
	CommitPerChunk bool
	MaxRetries     int
}

// RebuildStats summarizes one rebuild run.
type RebuildStats struct {
	Persons   int64
	Documents int
	Skipped   int64
	Duration  time.Duration
}

// buildAll derives every index document of one person: the person document
// plus source, factoid and statement documents per source context.
// Documents that fail to build are logged and skipped; the count of skips
// is returned alongside.
func (b *Builder) buildAll(ctx context.Context, p graph.Person) ([]map[string]any, int64) {
	var (
		out     []map[string]any
		skipped int64
	)
	emit := func(m map[string]any, err error) {
		if err != nil {
			logger.Warn("Skipping document", "person", p.ID, "error", err)
			skipped++
			return
		}
		out = append(out, m)
	}

	if doc, err := b.BuildPerson(ctx, p); err != nil {
		emit(nil, err)
	} else {
		emit(doc.SolrDoc())
	}

	contexts, err := b.contexts(ctx, p)
	if err != nil {
		emit(nil, &BuildError{DocType: TypeSource, ID: PersonDocID(p), Err: err})
		return out, skipped
	}
	for _, ref := range contexts {
		if ctx.Err() != nil {
			return out, skipped
		}
		if doc, err := b.BuildSource(ctx, p, ref); err != nil {
			emit(nil, err)
		} else {
			emit(doc.SolrDoc())
		}
		if doc, err := b.BuildFactoid(ctx, p, ref); err != nil {
			emit(nil, err)
		} else {
			emit(doc.SolrDoc())
		}
		if docs, err := b.BuildStatements(ctx, p, ref); err != nil {
			emit(nil, err)
		} else {
			for _, st := range docs {
				emit(st.SolrDoc())
			}
		}
	}
	return out, skipped
}

// Documents enumerates every index document of the store sequentially.
// Build failures of single documents are logged and skipped; only person
// enumeration failures terminate the sequence.
func Documents(ctx context.Context, reader graph.Reader) iter.Seq2[map[string]any, error] {
	b := NewBuilder(reader)
	return func(yield func(map[string]any, error) bool) {
		for p, err := range reader.Persons(ctx) {
			if err != nil {
				yield(nil, fmt.Errorf("enumerate persons: %w", err))
				return
			}
			docs, _ := b.buildAll(ctx, p)
			for _, doc := range docs {
				if !yield(doc, nil) {
					return
				}
			}
		}
	}
}

// Rebuild streams every index document of the store into the index,
// building persons concurrently. The run is idempotent: document ids are
// stable, so a failed run can simply be repeated.
func Rebuild(ctx context.Context, reader graph.Reader, sink Upserter, opts RebuildOpts) (RebuildStats, error) {
	start := time.Now()
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := NewBuilder(reader)
	docs := make(chan map[string]any, 2*workers)
	var persons, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	produceErr := make(chan error, 1)
	go func() {
		defer close(docs)
		var enumErr error
		for p, err := range reader.Persons(gctx) {
			if err != nil {
				enumErr = fmt.Errorf("enumerate persons: %w", err)
				break
			}
			persons.Add(1)
			g.Go(func() error {
				built, skip := b.buildAll(gctx, p)
				skipped.Add(skip)
				for _, doc := range built {
					select {
					case docs <- doc:
					case <-gctx.Done():
						return gctx.Err()
					}
				}
				return nil
			})
		}
		if werr := g.Wait(); enumErr == nil {
			enumErr = werr
		}
		produceErr <- enumErr
	}()

	seq := func(yield func(map[string]any, error) bool) {
		for doc := range docs {
			if !yield(doc, nil) {
				return
			}
		}
	}
	total, upErr := sink.Upsert(ctx, seq, solr.UpdateOpts{
		ChunkSize:      opts.ChunkSize,
		CommitPerChunk: opts.CommitPerChunk,
		MaxRetries:     opts.MaxRetries,
	})
	if upErr != nil {
		cancel()
	}
	for range docs {
		// Unblock producers still waiting to send.
	}
	err := <-produceErr
	if upErr != nil {
		err = upErr
	}

	stats := RebuildStats{
		Persons:   persons.Load(),
		Documents: total,
		Skipped:   skipped.Load(),
		Duration:  time.Since(start),
	}
	if err != nil {
		logger.Error("Index rebuild failed", "persons", stats.Persons, "documents", stats.Documents, "error", err)
		return stats, err
	}
	logger.Info("Index rebuild finished",
		"persons", stats.Persons,
		"documents", stats.Documents,
		"skipped", stats.Skipped,
		"duration", stats.Duration.Round(time.Millisecond))
	return stats, nil
}
