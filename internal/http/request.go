package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 64 << 10

// numberOrString accepts a JSON number or string so clients may send
// amounts either way. Null and absent both leave Set false.
type numberOrString struct {
	Value string
	Set   bool
}

func (n *numberOrString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &n.Value); err != nil {
			return err
		}
	} else {
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("expected number or string, got %s", data)
		}
		n.Value = num.String()
	}
	n.Set = true
	return nil
}

type createExpenseRequest struct {
	Category    string         `json:"category"`
	Amount      numberOrString `json:"amount"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
}

type updateExpenseRequest struct {
	Category    string         `json:"category"`
	Amount      numberOrString `json:"amount"`
	Date        *string        `json:"date"`
	Description *string        `json:"description"`
}

type createCategoryRequest struct {
	Name      string `json:"name"`
	MergeInto string `json:"merge_into"`
}

type setBudgetRequest struct {
	Limit numberOrString `json:"limit"`
}

// decodeJSON reads a single JSON object from the request body into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// parseID parses the {id} path segment.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", raw)
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// queryBool reads a boolean query parameter, false when absent or invalid.
func queryBool(r *http.Request, key string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && b
}
