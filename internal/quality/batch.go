package quality

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Options controls the shape of batch output.
type Options struct {
	// IncludeEvidence adds the per-sentence evidence trace to each output.
	IncludeEvidence bool
}

// Output is the wire form of one scored item.
type Output struct {
	NewsID          any           `json:"news_id"`
	QualityScore    int           `json:"quality_score"`
	RiskFlags       []string      `json:"risk_flags"`
	Badge           Badge         `json:"badge"`
	EvidenceSummary string        `json:"evidence_summary"`
	Evidence        []EvidenceRow `json:"evidence,omitzero"`
}

// Scored keeps the parsed input next to its result so callers can persist
// both.
type Scored struct {
	Item   NewsItem
	Result Result
}

// Output converts s to its wire form.
func (s Scored) Output(opts Options) Output {
	flags := s.Result.Flags
	if flags == nil {
		flags = []string{}
	}
	out := Output{
		NewsID:          s.Item.ID,
		QualityScore:    s.Result.Score,
		RiskFlags:       flags,
		Badge:           s.Result.Badge,
		EvidenceSummary: s.Result.EvidenceSummary(),
	}
	if opts.IncludeEvidence {
		out.Evidence = s.Result.Evidence
		if out.Evidence == nil {
			out.Evidence = []EvidenceRow{}
		}
	}
	return out
}

// RunOne parses and scores a single decoded JSON object.
func RunOne(raw map[string]any) (Scored, error) {
	item, err := ParseItem(raw)
	if err != nil {
		return Scored{}, err
	}
	return Scored{Item: item, Result: Evaluate(item)}, nil
}

// RunBatch decodes input and scores every item in order. Input beginning
// with '[' is a JSON array; anything else is a stream of JSON objects, which
// covers both NDJSON and a single object. Any failure aborts the whole
// batch.
func RunBatch(input []byte) (scored []Scored, err error) {
	defer func() {
		if r := recover(); r != nil {
			scored = nil
			err = fmt.Errorf("quality check panicked: %v", r)
		}
	}()

	objects, err := decodeBatch(bytes.TrimSpace(input))
	if err != nil {
		return nil, err
	}
	scored = make([]Scored, 0, len(objects))
	for i, raw := range objects {
		s, err := RunOne(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		scored = append(scored, s)
	}
	return scored, nil
}

func decodeBatch(input []byte) ([]map[string]any, error) {
	if len(input) == 0 {
		return nil, nil
	}

	var values []any
	if input[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(input))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("decode batch: %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode batch: trailing data after array")
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(input))
		dec.UseNumber()
		for {
			var v any
			err := dec.Decode(&v)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("decode item %d: %w", len(values), err)
			}
			values = append(values, v)
		}
	}

	objects := make([]map[string]any, 0, len(values))
	for i, v := range values {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d: %w", i, ErrNotObject)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// Outputs converts scored items to their wire form.
func Outputs(scored []Scored, opts Options) []Output {
	outs := make([]Output, 0, len(scored))
	for _, s := range scored {
		outs = append(outs, s.Output(opts))
	}
	return outs
}

// WriteJSON writes outs as a single JSON array. HTML escaping is disabled
// so Korean text and badges stay readable.
func WriteJSON(w io.Writer, outs []Output) error {
	if outs == nil {
		outs = []Output{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(outs)
}

// Check is the fail-open batch boundary: it reads the whole of r, scores
// it, and writes the result array to w. On any error it writes "[]" and
// returns the error for the caller to report; it never leaves w empty.
func Check(r io.Reader, w io.Writer, opts Options) ([]Scored, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return nil, writeEmpty(w, fmt.Errorf("read input: %w", err))
	}
	scored, err := RunBatch(input)
	if err != nil {
		return nil, writeEmpty(w, err)
	}
	if err := WriteJSON(w, Outputs(scored, opts)); err != nil {
		return scored, fmt.Errorf("write output: %w", err)
	}
	return scored, nil
}

func writeEmpty(w io.Writer, cause error) error {
	if err := WriteJSON(w, nil); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
