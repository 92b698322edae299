package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Detail fetches a single record. A body with success:false becomes a
// NotFoundError carrying the server message.
func Detail[T any](ctx context.Context, c *Client, token, resource, id string) (T, error) {
	var zero T
	resp, err := c.do(ctx, token, http.MethodGet, resource+"/"+id, nil, nil)
	if err != nil {
		return zero, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return zero, fmt.Errorf("upstream: decode detail envelope: %w", err)
	}
	if !envelope.Success {
		return zero, &NotFoundError{Message: envelope.Message}
	}
	var record T
	if err := json.Unmarshal(envelope.Data, &record); err != nil {
		return zero, fmt.Errorf("upstream: decode detail record: %w", err)
	}
	return record, nil
}
