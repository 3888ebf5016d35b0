package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/askdb/askdb/internal/pipeline"
)

type queryRequest struct {
	Query string `json:"query"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(w, http.StatusNotImplemented, "query pipeline is not configured")
		return
	}

	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "No query provided")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := deps.Pipeline.Run(r.Context(), request.Query)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.SchemaProvider == nil {
		writeError(w, http.StatusNotImplemented, "schema provider is not configured")
		return
	}

	description, err := deps.SchemaProvider.Describe(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to describe database schema")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": description})
}

// writePipelineError maps pipeline failures to the wire shape.
// Client-side failures (bad input, rejected or failing SQL) are 400s;
// upstream failures before SQL exists (schema, generation) are 500s.
func writePipelineError(w http.ResponseWriter, err error) {
	var pipelineErr *pipeline.Error
	if !errors.As(err, &pipelineErr) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusBadRequest
	switch pipelineErr.Kind {
	case pipeline.KindSchemaUnavailable, pipeline.KindGenerationFailed:
		status = http.StatusInternalServerError
	}

	payload := map[string]any{"error": pipelineErr.Message}
	if pipelineErr.GeneratedSQL != "" {
		payload["generated_sql"] = pipelineErr.GeneratedSQL
	}
	writeJSON(w, status, payload)
}
