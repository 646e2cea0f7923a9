package export

import (
	"bytes"
	"encoding/csv"
)

// CSV renders the header row followed by the data rows.
func CSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(t.Headers); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
