package db

import (
	"fmt"
	"os"
	"strings"

	"github.com/Sky-Genesis-Enterprise/aetherdb-cli/core"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

type Result interface {
	Type() ResultType
	Display()
}

// QueryResult is the outcome of a SELECT.
type QueryResult struct {
	Columns          []string   `json:"columns"`
	Rows             []core.Row `json:"rows"`
	ExecutionTimeSec float64    `json:"execution_time_sec"`
}

// CommitResult is the outcome of a mutating statement.
type CommitResult struct {
	TablesCreated    int     `json:"tables_created,omitempty"`
	TablesRenamed    int     `json:"tables_renamed,omitempty"`
	ColumnsAdded     int     `json:"columns_added,omitempty"`
	RecordsWritten   int     `json:"records_written,omitempty"`
	RecordsUpdated   int     `json:"records_updated,omitempty"`
	RecordsDeleted   int     `json:"records_deleted,omitempty"`
	ExecutionTimeSec float64 `json:"execution_time_sec"`
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	switch {
	case secs < 0.001:
		return "<1ms"
	case secs < 1:
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	case secs < 60:
		if secs < 10 {
			return fmt.Sprintf("%.1fs", secs)
		}
		return fmt.Sprintf("%ds", int(secs))
	default:
		mins := int(secs / 60)
		rest := int(secs) % 60
		if rest == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm%ds", mins, rest)
	}
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommitResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display() {
	if len(result.Rows) > 0 {
		RenderTable(os.Stdout, result.Columns, result.Rows)
	}
	fmt.Printf("%d rows (%s)\n", len(result.Rows), result.ExecutionTime())
}

func (result CommitResult) Display() {
	var parts []string
	if result.TablesCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d table(s) created", result.TablesCreated))
	}
	if result.TablesRenamed > 0 {
		parts = append(parts, fmt.Sprintf("%d table(s) renamed", result.TablesRenamed))
	}
	if result.ColumnsAdded > 0 {
		parts = append(parts, fmt.Sprintf("%d column(s) added", result.ColumnsAdded))
	}
	if result.RecordsWritten > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) written", result.RecordsWritten))
	}
	if result.RecordsUpdated > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) updated", result.RecordsUpdated))
	}
	if result.RecordsDeleted > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) deleted", result.RecordsDeleted))
	}

	if len(parts) == 0 {
		fmt.Printf("OK (%s)\n", result.ExecutionTime())
	} else {
		fmt.Printf("%s (%s)\n", strings.Join(parts, ", "), result.ExecutionTime())
	}
}
