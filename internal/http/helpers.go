package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"igreja/internal/core"
)

const (
	// HeaderRole carries the caller's role, set by the fronting application.
	HeaderRole = "X-Role"

	maxJSONBody  = 1 << 20
	maxPhotoBody = 5 << 20
)

var errMissingRole = errors.New("missing or unknown " + HeaderRole + " header")

// roleFrom resolves the caller's role from the request.
func roleFrom(r *http.Request) (core.Role, error) {
	role, err := core.ParseRole(r.Header.Get(HeaderRole))
	if err != nil {
		return "", errMissingRole
	}
	return role, nil
}

// withRole rejects requests without a valid role before calling next.
func withRole(next func(http.ResponseWriter, *http.Request, core.Role)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := roleFrom(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
			return
		}
		next(w, r, role)
	}
}

// pathID parses the {id} path value.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

// queryInt reads an optional integer parameter; absent yields def.
func queryInt(r *http.Request, name string, def int, verr *core.ValidationError) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		verr.Add(name, "must be a number")
		return def
	}
	return n
}

// decodeJSON decodes a size-limited body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// sanitizeInput drops control characters except tab and newlines, and trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
