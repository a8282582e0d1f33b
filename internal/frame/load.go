package frame

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadOptions controls how files are turned into tables.
type LoadOptions struct {
	// Delimiter for CSV. If 0, sniffed from the extension and header line.
	Delimiter rune
	// Encoding is a WHATWG label such as "gbk" or "windows-1252"; empty means UTF-8.
	Encoding string
	// DecimalSeparator and ThousandsSeparator normalize locale-formatted
	// numbers before type detection. Zero leaves cells untouched.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects an XLSX sheet by name; SheetIndex (1-based) is used otherwise.
	Sheet      string
	SheetIndex int
}

// Loader reads one tabular format.
type Loader interface {
	CanLoad(filename string) bool
	Load(r io.Reader, name string, opt LoadOptions) (*Table, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(csvLoader{})
	Register(jsonlLoader{})
	Register(xlsxLoader{})
}

// ErrUnsupported indicates no loader accepts the file.
var ErrUnsupported = errors.New("unsupported table format")

// LoadFile opens path and loads it with the matching loader.
func LoadFile(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, path, opt)
}

// Load dispatches on the file name. A trailing .gz or .lz4 is decompressed
// first and dropped from the name the loader sees, so data.tsv.gz loads as
// data.tsv.
func Load(r io.Reader, path string, opt LoadOptions) (*Table, error) {
	name := filepath.Base(path)
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
		name = name[:len(name)-len(".gz")]
	case strings.HasSuffix(lower, ".lz4"):
		r = lz4.NewReader(r)
		name = name[:len(name)-len(".lz4")]
	}
	lower = strings.ToLower(name)
	for _, l := range registry {
		if l.CanLoad(lower) {
			t, err := l.Load(r, name, opt)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", name, err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(lower))
}

// decodeReader wraps r so it yields UTF-8. A UTF-8 BOM is always stripped.
func decodeReader(r io.Reader, label string) (io.Reader, error) {
	if isUTF8(label) {
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// EncodeWriter wraps w so UTF-8 input is written in the labelled encoding.
// The returned closer flushes the encoder.
func EncodeWriter(w io.Writer, label string) (io.Writer, func() error, error) {
	if isUTF8(label) {
		return w, func() error { return nil }, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	tw := transform.NewWriter(w, enc.NewEncoder())
	return tw, tw.Close, nil
}

func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return true
	}
	return false
}
