package service

import (
	"fmt"
	"strconv"
	"strings"
)

// RowError describes one rejected row of an upload. Row is 1-based and
// counts the header, matching what a spreadsheet shows.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportError rejects a whole upload. Nothing is written when it is returned.
type ImportError struct {
	Rows []RowError
}

func (e *ImportError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, fmt.Sprintf("row %d: %s", r.Row, r.Message))
	}
	return "import rejected: " + strings.Join(parts, "; ")
}

// Fields renders the row errors as a field map for the error envelope.
func (e *ImportError) Fields() map[string]string {
	out := make(map[string]string, len(e.Rows))
	for _, r := range e.Rows {
		key := "row_" + strconv.Itoa(r.Row)
		if prev, ok := out[key]; ok {
			out[key] = prev + "; " + r.Message
			continue
		}
		out[key] = r.Message
	}
	return out
}

func (e *ImportError) add(row int, format string, args ...any) {
	e.Rows = append(e.Rows, RowError{Row: row, Message: fmt.Sprintf(format, args...)})
}

func (e *ImportError) orNil() error {
	if len(e.Rows) == 0 {
		return nil
	}
	return e
}

// ImportResult reports a successful upload.
type ImportResult struct {
	Imported int `json:"imported"`
}
