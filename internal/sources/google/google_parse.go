package google

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rowsToJSON converts a values matrix into a JSON array of objects keyed by
// the header row. Cells are emitted as strings, except "id" which must be an
// integer and is dropped otherwise. Rows without any value are skipped.
func rowsToJSON(values [][]any) ([]byte, error) {
	if len(values) == 0 {
		return []byte("[]"), nil
	}
	header := headerKeys(values[0])
	out := make([]map[string]any, 0, len(values)-1)
	for _, row := range values[1:] {
		obj := make(map[string]any, len(header))
		for i, key := range header {
			if key == "" || i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(fmt.Sprint(row[i]))
			if cell == "" {
				continue
			}
			if key == "id" {
				id, err := strconv.ParseInt(cell, 10, 64)
				if err != nil {
					continue
				}
				obj[key] = id
				continue
			}
			obj[key] = cell
		}
		if len(obj) == 0 {
			continue
		}
		out = append(out, obj)
	}
	return json.Marshal(out)
}

// headerKeys normalizes header cells: "Loan Amount" becomes "loan_amount".
func headerKeys(row []any) []string {
	keys := make([]string, len(row))
	for i, v := range row {
		s := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
		keys[i] = strings.Join(strings.Fields(s), "_")
	}
	return keys
}

// recordRow lays out rec as a sheet row following header. Fields missing
// from the header are dropped; header columns without a field stay blank.
func recordRow(header []string, rec any) ([]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	row := make([]any, len(header))
	for i, key := range header {
		if v, ok := fields[key]; ok && v != nil {
			row[i] = v
		} else {
			row[i] = ""
		}
	}
	return row, nil
}
