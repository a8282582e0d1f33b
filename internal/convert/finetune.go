package convert

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/KaramelBytes/framekit-cli/internal/utils"
)

// Fine-tune record fields, in output order.
const (
	FieldInstruction = "instruction"
	FieldInput       = "input"
	FieldOutput      = "output"
)

var finetuneFields = []string{FieldInstruction, FieldInput, FieldOutput}

var (
	// ErrMissingField is returned when the mapping lacks instruction or output.
	ErrMissingField = errors.New("mapping is missing a required field")
	// ErrUnknownColumn is returned when a mapped source column does not exist.
	ErrUnknownColumn = frame.ErrUnknownColumn
)

// FinetuneStats describes a FormatForFinetune run.
type FinetuneStats struct {
	Records    int            `json:"records"`
	EmptyInput int            `json:"empty_input"`
	Tokens     map[string]int `json:"tokens"`
	// TotalTokens is an estimate (about four characters per token).
	TotalTokens int `json:"total_tokens"`
}

// FormatForFinetune rewrites the table at in as {"instruction","input","output"}
// JSON Lines at out. mapping maps source columns to those target fields;
// instruction and output are required, input defaults to "". Cells are
// written as strings with missing cells empty.
func FormatForFinetune(in, out string, mapping map[string]string, opt Options) (*FinetuneStats, error) {
	sources, err := resolveMapping(mapping)
	if err != nil {
		return nil, err
	}
	t, err := frame.LoadFile(in, opt.load())
	if err != nil {
		return nil, err
	}
	var srcs []string
	rename := make(map[string]string, len(sources))
	for _, field := range finetuneFields {
		src, ok := sources[field]
		if !ok {
			continue
		}
		if _, ok := t.Column(src); !ok {
			return nil, fmt.Errorf("%w: %q (mapped to %s)", ErrUnknownColumn, src, field)
		}
		srcs = append(srcs, src)
		rename[src] = field
	}
	if t, err = t.Select(srcs...); err != nil {
		return nil, err
	}
	if t, err = t.Rename(rename); err != nil {
		return nil, err
	}
	fields := t.Names()

	stats := &FinetuneStats{Tokens: map[string]int{}}
	var buf bytes.Buffer
	ew, flush, err := frame.EncodeWriter(&buf, opt.Encoding)
	if err != nil {
		return nil, err
	}
	for r := 0; r < t.Rows(); r++ {
		rec := map[string]string{FieldInstruction: "", FieldInput: "", FieldOutput: ""}
		for i, v := range t.Row(r) {
			if v.Valid {
				rec[fields[i]] = v.Text
			}
		}
		var line bytes.Buffer
		line.WriteByte('{')
		for i, field := range finetuneFields {
			val := rec[field]
			if i > 0 {
				line.WriteByte(',')
			}
			k, _ := marshal(field)
			line.Write(k)
			line.WriteByte(':')
			enc, err := marshal(val)
			if err != nil {
				return nil, err
			}
			line.Write(enc)
		}
		line.WriteString("}\n")
		if _, err := ew.Write(line.Bytes()); err != nil {
			return nil, fmt.Errorf("write jsonl: %w", err)
		}
		if rec[FieldInput] == "" {
			stats.EmptyInput++
		}
		utils.TokenBreakdown(stats.Tokens, rec)
		stats.Records++
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
		return nil, err
	}
	for _, n := range stats.Tokens {
		stats.TotalTokens += n
	}
	return stats, nil
}

// resolveMapping inverts source->target into target->source, keeping only
// fine-tune fields.
func resolveMapping(mapping map[string]string) (map[string]string, error) {
	srcs := make([]string, 0, len(mapping))
	for s := range mapping {
		srcs = append(srcs, s)
	}
	sort.Strings(srcs)
	out := make(map[string]string, len(finetuneFields))
	for _, src := range srcs {
		target := mapping[src]
		switch target {
		case FieldInstruction, FieldInput, FieldOutput:
		default:
			continue
		}
		if prev, dup := out[target]; dup {
			return nil, fmt.Errorf("both %q and %q map to %s", prev, src, target)
		}
		out[target] = src
	}
	for _, req := range []string{FieldInstruction, FieldOutput} {
		if _, ok := out[req]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, req)
		}
	}
	return out, nil
}
