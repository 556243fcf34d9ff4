// Package main provides a TCP server for AetherDB: one line in, one
// JSON response line out.
package main

import (
	"encoding/json"
)

// Response is the server's reply to any line the client sends.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "auth", "query" or "commit"
	Result  json.RawMessage `json:"result,omitempty"`
}

// AuthResponse is the payload of a successful AUTH exchange.
type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user"`
	Token         string `json:"token,omitempty"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// QueryResponse carries tabular SELECT results. Cells are the display
// form of each value; NULL renders as "NULL".
type QueryResponse struct {
	Columns     []string   `json:"columns"`
	Data        [][]string `json:"data"`
	RecordsRead int        `json:"records_read"`
	TimeMs      float64    `json:"time_ms"`
}

// CommitResponse carries the counts of a mutating statement.
type CommitResponse struct {
	TablesCreated  int     `json:"tables_created,omitempty"`
	TablesRenamed  int     `json:"tables_renamed,omitempty"`
	ColumnsAdded   int     `json:"columns_added,omitempty"`
	RecordsWritten int     `json:"records_written,omitempty"`
	RecordsUpdated int     `json:"records_updated,omitempty"`
	RecordsDeleted int     `json:"records_deleted,omitempty"`
	TimeMs         float64 `json:"time_ms"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
