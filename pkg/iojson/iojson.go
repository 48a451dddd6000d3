// Package iojson writes indented JSON for command output.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Error is the JSON shape written when output cannot be produced.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func marshalFailure(msg string, err error) string {
	bits, _ := json.Marshal(Error{Message: msg, Data: map[string]any{"json_error": err.Error()}})
	return string(bits)
}

// WriteWith writes obj as indented JSON to w. Marshaling failures are
// reported to ew as an Error object and returned.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(ew, marshalFailure("marshal output", err))
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write calls WriteWith with [os.Stdout] and [os.Stderr].
func Write(obj any) error {
	return WriteWith(os.Stdout, os.Stderr, obj)
}
