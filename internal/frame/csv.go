package frame

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/framekit-cli/internal/utils"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	return strings.HasSuffix(filename, ".csv") || strings.HasSuffix(filename, ".tsv") || strings.HasSuffix(filename, ".txt")
}

func (csvLoader) Load(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	dr, err := decodeReader(r, opt.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(dr)
	delim := opt.Delimiter
	if delim == 0 {
		head, _ := br.Peek(4096)
		delim = sniffDelimiter(name, head)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if opt.DecimalSeparator != 0 || opt.ThousandsSeparator != 0 {
		normalizeNumbers(records, opt)
	}
	return FromRecords(name, records)
}

// sniffDelimiter prefers the extension, then the most frequent candidate in the header line.
func sniffDelimiter(name string, head []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(head, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

func normalizeNumbers(records [][]string, opt LoadOptions) {
	for i := 1; i < len(records); i++ {
		for j, cell := range records[i] {
			if raw, ok := parseNumeric(cell, opt); ok {
				records[i][j] = raw
			}
		}
	}
}

// parseNumeric strips thousands separators and rewrites the decimal
// separator as '.', returning the cell in Go number syntax.
func parseNumeric(s string, opt LoadOptions) (string, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	thou := opt.ThousandsSeparator
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") && thou == 0 {
			// a dot left over means the cell is not in this locale
			return "", false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", false
	}
	return raw, true
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// WriteOptions controls CSV output.
type WriteOptions struct {
	Delimiter rune
	Encoding  string
}

// WriteCSV writes t with a header row. Missing cells are written as empty fields.
func WriteCSV(w io.Writer, t *Table, opt WriteOptions) error {
	ew, flush, err := EncodeWriter(w, opt.Encoding)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(ew)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	if t.Width() > 0 {
		if err := cw.WriteAll(t.Records()); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return flush()
}

// WriteCSVFile writes t to path atomically.
func WriteCSVFile(path string, t *Table, opt WriteOptions) error {
	if opt.Delimiter == 0 && strings.HasSuffix(strings.ToLower(path), ".tsv") {
		opt.Delimiter = '\t'
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, opt); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
