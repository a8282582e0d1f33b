package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/KaramelBytes/framekit-cli/internal/utils"
)

// Options controls conversions.
type Options struct {
	// Columns limits and orders the exported columns. Empty means all.
	Columns []string
	// Encoding applies to both input and output; empty means UTF-8.
	Encoding  string
	Delimiter rune
	// Sheet selects the XLSX sheet for spreadsheet input.
	Sheet string
}

func (o Options) load() frame.LoadOptions {
	return frame.LoadOptions{Delimiter: o.Delimiter, Encoding: o.Encoding, Sheet: o.Sheet}
}

// CSVToJSONL writes one JSON object per row of the CSV at in, keys in column
// order. Numeric cells become JSON numbers, boolean cells JSON booleans and
// missing cells null. Non-ASCII text is written as is. It returns the number
// of records written.
func CSVToJSONL(in, out string, opt Options) (int, error) {
	t, err := frame.LoadFile(in, opt.load())
	if err != nil {
		return 0, err
	}
	if len(opt.Columns) > 0 {
		if t, err = t.Select(opt.Columns...); err != nil {
			return 0, err
		}
	}
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, t, opt.Encoding); err != nil {
		return 0, err
	}
	if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
		return 0, err
	}
	return t.Rows(), nil
}

// JSONLToCSV flattens the JSON Lines file at in into a CSV at out. Columns
// are the union of keys in first-seen order; nested values stay compact JSON.
func JSONLToCSV(in, out string, opt Options) (int, error) {
	t, err := frame.LoadFile(in, opt.load())
	if errors.Is(err, frame.ErrUnsupported) {
		t, err = loadJSONL(in, opt.load())
	}
	if err != nil {
		return 0, err
	}
	if len(opt.Columns) > 0 {
		if t, err = t.Select(opt.Columns...); err != nil {
			return 0, err
		}
	}
	if err := frame.WriteCSVFile(out, t, frame.WriteOptions{Delimiter: opt.Delimiter, Encoding: opt.Encoding}); err != nil {
		return 0, err
	}
	return t.Rows(), nil
}

func loadJSONL(path string, opt frame.LoadOptions) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return frame.LoadJSONL(f, path, opt)
}

// WriteJSONL writes t as JSON Lines in the labelled encoding.
func WriteJSONL(w io.Writer, t *frame.Table, encoding string) error {
	ew, flush, err := frame.EncodeWriter(w, encoding)
	if err != nil {
		return err
	}
	cols := t.Columns()
	keys := make([][]byte, len(cols))
	for i, c := range cols {
		if keys[i], err = marshal(c.Name); err != nil {
			return err
		}
	}
	bools := make([]bool, len(cols))
	for i, c := range cols {
		bools[i] = c.Kind == frame.KindOther && boolColumn(c)
	}
	var line bytes.Buffer
	for r := 0; r < t.Rows(); r++ {
		line.Reset()
		line.WriteByte('{')
		for i, c := range cols {
			if i > 0 {
				line.WriteByte(',')
			}
			line.Write(keys[i])
			line.WriteByte(':')
			v, err := cellJSON(c, c.At(r), bools[i])
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", r, c.Name, err)
			}
			line.Write(v)
		}
		line.WriteString("}\n")
		if _, err := ew.Write(line.Bytes()); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	return flush()
}

func cellJSON(c *frame.Column, v frame.Value, isBool bool) ([]byte, error) {
	switch {
	case !v.Valid:
		return []byte("null"), nil
	case c.Kind == frame.KindNumeric:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		if jsonNumber(v.Text) {
			return []byte(v.Text), nil
		}
		return []byte(frame.FormatFloat(v.Num)), nil
	case isBool:
		return []byte(strings.ToLower(v.Text)), nil
	}
	return marshal(v.Text)
}

// jsonNumber reports whether s is already a JSON number literal.
func jsonNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}

func boolColumn(c *frame.Column) bool {
	seen := false
	for _, s := range c.Texts() {
		switch strings.ToLower(s) {
		case "true", "false":
			seen = true
		default:
			return false
		}
	}
	return seen
}

// marshal encodes v without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
