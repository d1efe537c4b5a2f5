package solr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client talks to one Solr core over its JSON APIs: the update API for
// document upserts and the JSON Request API for queries.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClientParams contains configuration for creating a Client.
type NewClientParams struct {
	// BaseURL is the full core URL, e.g. http://localhost:8983/solr/ipif.
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a client for the Solr core at params.BaseURL.
func NewClient(params NewClientParams) (*Client, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("solr base url is required")
	}
	u, err := url.Parse(params.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse solr url: %w", err)
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Query is one paginated search against the core.
type Query struct {
	// Query is the main query expression; nil means match-all.
	Query Expr
	// Filters are applied as independent filter clauses. Child-scoped
	// clauses keep their per-child semantics only when passed as
	// separate entries here.
	Filters []Expr
	Offset  int
	Limit   int
	Sort    string
}

// Response holds the hits of one query.
type Response struct {
	NumFound int64
	Docs     []map[string]any
}

type jsonRequest struct {
	Query  string   `json:"query"`
	Filter []string `json:"filter,omitempty"`
	Fields string   `json:"fields,omitempty"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
	Sort   string   `json:"sort,omitempty"`
}

type jsonResponse struct {
	Response struct {
		NumFound int64            `json:"numFound"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
	Error struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"error"`
}

// Search runs q against the core and returns the matching documents
// together with the total hit count.
func (c *Client) Search(ctx context.Context, q Query) (*Response, error) {
	// Nested child documents are not part of the default field list, so
	// hits would come back without their embedded children.
	req := jsonRequest{
		Query:  "*:*",
		Fields: "*,[child]",
		Offset: q.Offset,
		Limit:  q.Limit,
		Sort:   q.Sort,
	}
	if q.Query != nil {
		req.Query = q.Query.Render()
	}
	for _, f := range q.Filters {
		if f == nil {
			continue
		}
		req.Filter = append(req.Filter, f.Render())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var parsed jsonResponse
	if err := c.post(ctx, "/select", "", body, &parsed); err != nil {
		return nil, err
	}
	return &Response{
		NumFound: parsed.Response.NumFound,
		Docs:     parsed.Response.Docs,
	}, nil
}

func (c *Client) post(ctx context.Context, path, rawQuery string, body []byte, out any) error {
	u := c.baseURL.JoinPath(path)
	u.RawQuery = rawQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("solr request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read solr response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("solr returned %d: %s", res.StatusCode, truncate(data, 512))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode solr response: %w", err)
		}
	}
	return nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
