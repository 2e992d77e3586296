package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/okian/cyclingdb/internal/domain/rider"
)

// Export writes rows as UTF-8, semicolon separated CSV with the canonical
// header. Missing numbers are written as empty cells.
func Export(w io.Writer, rows []rider.Rider) error {
	cw := csv.NewWriter(w)
	cw.Comma = defaultDelimiter

	record := make([]string, len(rider.Columns))
	for i, c := range rider.Columns {
		record[i] = string(c)
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		for i, c := range rider.Columns {
			record[i] = r.Value(c)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %q: %w", r.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
