package solr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"
)

func docSeq(docs ...map[string]any) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for _, doc := range docs {
			if !yield(doc, nil) {
				return
			}
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(NewClientParams{BaseURL: srv.URL + "/solr/test"})
	if err != nil {
		t.Fatalf("NewClient(): %v", err)
	}
	return c
}

func TestUpsert_ChunksAndCommitsOnce(t *testing.T) {
	var updates, commits int
	var chunkSizes []int

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var chunk []map[string]any
		if err := json.Unmarshal(body, &chunk); err == nil {
			updates++
			chunkSizes = append(chunkSizes, len(chunk))
		} else {
			commits++
		}
		w.Write([]byte(`{}`))
	})

	docs := docSeq(
		map[string]any{"id": "1"},
		map[string]any{"id": "2"},
		map[string]any{"id": "3"},
	)
	total, err := c.Upsert(context.Background(), docs, UpdateOpts{ChunkSize: 2})
	if err != nil {
		t.Fatalf("Upsert(): %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if updates != 2 || len(chunkSizes) != 2 || chunkSizes[0] != 2 || chunkSizes[1] != 1 {
		t.Fatalf("chunks = %v (updates %d)", chunkSizes, updates)
	}
	if commits != 1 {
		t.Fatalf("commits = %d, want one final commit", commits)
	}
}

func TestUpsert_CommitPerChunkSetsParameter(t *testing.T) {
	var commitParams []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		commitParams = append(commitParams, r.URL.Query().Get("commit"))
		w.Write([]byte(`{}`))
	})

	docs := docSeq(map[string]any{"id": "1"}, map[string]any{"id": "2"})
	_, err := c.Upsert(context.Background(), docs, UpdateOpts{ChunkSize: 1, CommitPerChunk: true})
	if err != nil {
		t.Fatalf("Upsert(): %v", err)
	}
	if len(commitParams) != 2 {
		t.Fatalf("requests = %d, want 2 (no separate final commit)", len(commitParams))
	}
	for _, p := range commitParams {
		if p != "true" {
			t.Fatalf("commit params = %v, want true on every chunk", commitParams)
		}
	}
}

func TestUpsert_ReportsFailingChunk(t *testing.T) {
	var requests int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`boom`))
			return
		}
		w.Write([]byte(`{}`))
	})

	docs := docSeq(
		map[string]any{"id": "a"},
		map[string]any{"id": "b"},
	)
	total, err := c.Upsert(context.Background(), docs, UpdateOpts{ChunkSize: 1})
	if err == nil {
		t.Fatalf("Upsert() should fail on the second chunk")
	}
	var uerr *UpdateError
	if !errors.As(err, &uerr) {
		t.Fatalf("error should be an UpdateError, got %v", err)
	}
	if uerr.Chunk != 1 || uerr.DocID != "b" {
		t.Fatalf("UpdateError = chunk %d doc %q", uerr.Chunk, uerr.DocID)
	}
	if total != 1 {
		t.Fatalf("total = %d, want the one successfully submitted doc", total)
	}
}

func TestUpsert_StreamErrorAborts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	streamErr := errors.New("database gone")
	docs := func(yield func(map[string]any, error) bool) {
		if !yield(map[string]any{"id": "1"}, nil) {
			return
		}
		yield(nil, streamErr)
	}
	_, err := c.Upsert(context.Background(), docs, UpdateOpts{})
	if err == nil || !errors.Is(err, streamErr) {
		t.Fatalf("Upsert() = %v, want wrapped stream error", err)
	}
}

func TestSearch_SendsFiltersAndParsesResponse(t *testing.T) {
	var req map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &req)
		w.Write([]byte(`{"response":{"numFound":7,"docs":[{"doc_id":"42"}]}}`))
	})

	res, err := c.Search(context.Background(), Query{
		Filters: []Expr{Raw("doc_type:person"), Eq("label", "Muster")},
		Offset:  30,
		Limit:   30,
	})
	if err != nil {
		t.Fatalf("Search(): %v", err)
	}
	if res.NumFound != 7 || len(res.Docs) != 1 || res.Docs[0]["doc_id"] != "42" {
		t.Fatalf("response = %+v", res)
	}

	if req["query"] != "*:*" {
		t.Fatalf("query = %v, want match-all default", req["query"])
	}
	filters, ok := req["filter"].([]any)
	if !ok || len(filters) != 2 || filters[0] != "doc_type:person" {
		t.Fatalf("filter = %#v", req["filter"])
	}
	if req["offset"] != float64(30) {
		t.Fatalf("offset = %v", req["offset"])
	}
	if req["fields"] != "*,[child]" {
		t.Fatalf("fields = %v, want the child transformer so nested children come back", req["fields"])
	}
}
