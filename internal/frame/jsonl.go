package frame

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type jsonlLoader struct{}

func (jsonlLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(filename, ".jsonl") || strings.HasSuffix(filename, ".ndjson")
}

// Load reads one JSON object per line. Columns are the union of keys in
// first-seen order; blank lines are skipped.
func (jsonlLoader) Load(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	dr, err := decodeReader(r, opt.Encoding)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(dr)
	sc.Buffer(make([]byte, 0, 64<<10), 64<<20)

	var keys []string
	index := map[string]int{}
	var rows []map[string]string
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		order, vals, err := decodeObject(b)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for _, k := range order {
			if _, ok := index[k]; !ok {
				index[k] = len(keys)
				keys = append(keys, k)
			}
		}
		rows = append(rows, vals)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(keys) == 0 {
		return &Table{Name: name}, nil
	}
	records := make([][]string, 0, len(rows)+1)
	records = append(records, keys)
	for _, row := range rows {
		rec := make([]string, len(keys))
		for k, v := range row {
			rec[index[k]] = v
		}
		records = append(records, rec)
	}
	return FromRecords(name, records)
}

// decodeObject returns the keys of a JSON object in document order with
// each value rendered as cell text: strings unquoted, null empty, anything
// else as compact JSON.
func decodeObject(b []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected JSON object")
	}
	var order []string
	vals := map[string]string{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("value for %q: %w", key, err)
		}
		if _, dup := vals[key]; !dup {
			order = append(order, key)
		}
		vals[key] = cellText(raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return order, vals, nil
}

func cellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// LoadJSONL reads r as JSON Lines regardless of the file extension.
func LoadJSONL(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	return jsonlLoader{}.Load(r, name, opt)
}
