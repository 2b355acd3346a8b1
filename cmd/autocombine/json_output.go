package main

import (
	"encoding/json"
	"io"
)

// writeJSONLine encodes v as a single compact JSON line.
func writeJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
