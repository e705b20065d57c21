package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-stations/internal/db"
)

// DBHandler handles the read-only warehouse endpoints.
type DBHandler struct {
	store *db.Store
}

// NewDBHandler creates a new database handler. store may be nil.
func NewDBHandler(store *db.Store) *DBHandler {
	return &DBHandler{store: store}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("warehouse"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("warehouse"))
}

// TablesBody is the response for listing tables.
type TablesBody struct {
	Tables []string `json:"tables" doc:"List of table names"`
}

// ListTables returns all DuckDB tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	tables, err := h.store.Tables(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL statement (SELECT, WITH, SHOW, DESCRIBE, SUMMARIZE)" example:"SELECT province, count(*) FROM stations GROUP BY province"`
	}
}

// QueryBody is the response for SQL queries.
type QueryBody struct {
	db.Result
	Count int `json:"count" doc:"Number of rows returned"`
}

// Query executes a read-only SQL statement against DuckDB.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*struct{ Body QueryBody }, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	res, err := h.store.Query(ctx, input.Body.Query)
	if errors.Is(err, db.ErrNotReadOnly) {
		return nil, huma.Error403Forbidden("Only read-only statements are allowed")
	}
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	return &struct{ Body QueryBody }{Body: QueryBody{Result: *res, Count: len(res.Rows)}}, nil
}
