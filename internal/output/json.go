package output

import (
	"encoding/json"
	"io"

	"github.com/loganalyzer/internal/analyzer"
)

// MarshalStats encodes stats as a JSON array. A nil slice encodes as [].
func MarshalStats(stats []analyzer.URLStat) ([]byte, error) {
	if stats == nil {
		stats = []analyzer.URLStat{}
	}
	return json.Marshal(stats)
}

// WriteJSON writes stats as formatted JSON to w.
func WriteJSON(w io.Writer, stats []analyzer.URLStat) error {
	if stats == nil {
		stats = []analyzer.URLStat{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
