package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tasklist/internal/service"
)

var errMissingID = errors.New("task has no id")

// wireTask is the JSON shape of a task on the REST Task Service.
// Services disagree on the identifier field (`_id` for document stores, `id`
// elsewhere) and on its type, so both names are accepted and numbers are
// normalized to their decimal text.
type wireTask struct {
	ID        string
	Title     string
	Completed bool
}

func (w *wireTask) UnmarshalJSON(data []byte) error {
	var raw struct {
		UnderscoreID json.RawMessage `json:"_id"`
		ID           json.RawMessage `json:"id"`
		Title        string          `json:"title"`
		Completed    bool            `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	idField := raw.UnderscoreID
	if len(idField) == 0 || string(idField) == "null" {
		idField = raw.ID
	}
	id, err := decodeID(idField)
	if err != nil {
		return err
	}
	if id == "" {
		return errMissingID
	}

	w.ID = id
	w.Title = raw.Title
	w.Completed = raw.Completed
	return nil
}

// decodeID turns a JSON string or number into an opaque string token.
func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("unsupported task id: %s", strings.TrimSpace(string(raw)))
	}
	return n.String(), nil
}

func (w wireTask) toTask() service.Task {
	return service.Task{ID: w.ID, Title: w.Title, Completed: w.Completed}
}

// createRequest is the POST /tasks body.
type createRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// updateRequest is the PUT /tasks/{id} body; only changed fields are sent.
type updateRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}
