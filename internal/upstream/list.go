package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListQuery describes one page worth of a collection read.
type ListQuery struct {
	Page    int
	PerPage int
	Filters map[string]string
}

// Values encodes the query using the backend's bracket convention
// (filter[field]=value). Filters with an empty value are omitted
// entirely: the backend treats a present-but-empty filter differently
// from an absent one, so omission is a hard contract here.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	for key, val := range q.Filters {
		if key == "" || val == "" {
			continue
		}
		v.Set("filter["+key+"]", val)
	}
	return v
}

// Meta is the pagination block every collection endpoint returns.
type Meta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	From        int `json:"from"`
}

// PageEnvelope is the standard paginated response wrapper. It is replaced
// wholesale on each fetch and never mutated in place.
type PageEnvelope[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// RowNumber returns the 1-based global row number for Data[i].
func (e PageEnvelope[T]) RowNumber(i int) int {
	return e.Meta.From + i
}

// List fetches one page of a collection endpoint.
func List[T any](ctx context.Context, c *Client, token, resource string, q ListQuery) (PageEnvelope[T], error) {
	var envelope PageEnvelope[T]
	resp, err := c.do(ctx, token, http.MethodGet, resource, q.Values(), nil)
	if err != nil {
		return envelope, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return envelope, fmt.Errorf("upstream: decode page envelope: %w", err)
	}
	return envelope, nil
}
