package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/spf13/pflag"
)

// inputFlags are the reader options shared by commands that load a table.
type inputFlags struct {
	delimiter  string
	encoding   string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
}

func (in *inputFlags) register(f *pflag.FlagSet) {
	f.StringVar(&in.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (sniffed if omitted)")
	f.StringVar(&in.encoding, "encoding", "", "text encoding such as gbk or windows-1252 (default from config)")
	f.StringVar(&in.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	f.StringVar(&in.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	f.StringVar(&in.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	f.IntVar(&in.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

// options resolves the flags against the loaded config.
func (in *inputFlags) options() (frame.LoadOptions, error) {
	s := settings()
	opt := frame.LoadOptions{Encoding: s.Encoding, Delimiter: s.DelimiterRune(), Sheet: in.sheetName, SheetIndex: in.sheetIndex}
	if in.encoding != "" {
		opt.Encoding = in.encoding
	}
	if in.delimiter != "" {
		d, err := parseDelimiter(in.delimiter)
		if err != nil {
			return opt, err
		}
		opt.Delimiter = d
	}
	switch strings.ToLower(strings.TrimSpace(in.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", in.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(in.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", in.thousands)
	}
	return opt, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

// parsePairs turns ["a=1", "b=x"] into a map. Keys are trimmed, values kept as is.
func parsePairs(flag string, pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --%s %q (want column=value)", flag, p)
		}
		out[k] = v
	}
	return out, nil
}
