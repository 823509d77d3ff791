package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type rawQuestion struct {
	Question      string          `json:"question"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
	SampleAnswer  string          `json:"sampleAnswer"`
	KeyPoints     json.RawMessage `json:"keyPoints"`
}

// ParseResult holds the questions accepted from a model response and the
// reasons any entries were rejected.
type ParseResult struct {
	Questions []Question
	Dropped   []string
	Trimmed   int
}

// maxArrayAttempts bounds how many candidate '[' positions ExtractArray
// tries to decode, keeping bracket-heavy responses linear.
const maxArrayAttempts = 64

// ExtractArray locates the first bracket-delimited JSON array in raw that
// decodes, ignoring any prose around it. Arrays holding at least one
// object are preferred, so a stray "[1]" in the commentary does not win
// over the question list.
func ExtractArray(raw string) ([]json.RawMessage, bool) {
	var fallback []json.RawMessage
	found := false
	attempts := 0

	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' || !opensJSONValue(raw[i+1:]) {
			continue
		}
		if attempts++; attempts > maxArrayAttempts {
			break
		}
		var arr []json.RawMessage
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		if err := dec.Decode(&arr); err != nil {
			continue
		}
		for _, el := range arr {
			if t := bytes.TrimSpace(el); len(t) > 0 && t[0] == '{' {
				return arr, true
			}
		}
		if !found {
			fallback, found = arr, true
		}
	}
	return fallback, found
}

// opensJSONValue reports whether rest, the text after a '[', can continue
// a JSON array. Prose such as "[see above]" is skipped without decoding.
func opensJSONValue(rest string) bool {
	rest = strings.TrimLeft(rest, " \t\r\n")
	if rest == "" {
		return false
	}
	return strings.IndexByte(`{["-0123456789tfn]`, rest[0]) >= 0
}

// ParseQuestions decodes a generator response into questions of kind.
// Malformed entries are dropped and reported in Dropped; entries beyond
// limit are trimmed. A response without a decodable array fails with
// ErrGenerationFailed, one without any valid entry with ErrValidationFailed.
func ParseQuestions(raw string, kind Kind, limit int) (*ParseResult, error) {
	elems, ok := ExtractArray(raw)
	if !ok {
		return nil, &PrepareError{
			Kind:        ErrGenerationFailed,
			Detail:      "no JSON array found in model response",
			RawResponse: raw,
		}
	}

	res := &ParseResult{}
	for i, el := range elems {
		q, err := parseQuestion(el, kind)
		if err != nil {
			res.Dropped = append(res.Dropped, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		res.Questions = append(res.Questions, q)
	}

	if len(res.Questions) == 0 {
		detail := "model returned an empty question list"
		if len(res.Dropped) > 0 {
			detail = fmt.Sprintf("all %d generated entries were malformed (%s)", len(res.Dropped), res.Dropped[0])
		}
		return nil, &PrepareError{Kind: ErrValidationFailed, Detail: detail, RawResponse: raw}
	}

	if limit > 0 && len(res.Questions) > limit {
		res.Trimmed = len(res.Questions) - limit
		res.Questions = res.Questions[:limit]
	}
	return res, nil
}

func parseQuestion(el json.RawMessage, kind Kind) (Question, error) {
	var rq rawQuestion
	if err := json.Unmarshal(el, &rq); err != nil {
		return Question{}, fmt.Errorf("not a question object: %w", err)
	}

	q := Question{
		Kind:         kind,
		Question:     strings.TrimSpace(rq.Question),
		Explanation:  strings.TrimSpace(rq.Explanation),
		SampleAnswer: strings.TrimSpace(rq.SampleAnswer),
	}
	if q.Question == "" {
		return Question{}, fmt.Errorf("missing question text")
	}

	switch kind {
	case KindMultipleChoice:
		opts, ok := stringList(rq.Options)
		if !ok || len(opts) != OptionCount {
			return Question{}, fmt.Errorf("expected %d options", OptionCount)
		}
		for _, o := range opts {
			if o == "" {
				return Question{}, fmt.Errorf("empty option")
			}
		}
		idx, ok := resolveOption(rq.CorrectAnswer, opts)
		if !ok {
			return Question{}, fmt.Errorf("correctAnswer %s does not identify an option", string(rq.CorrectAnswer))
		}
		q.Options = opts
		q.CorrectOption = idx

	case KindFillBlank:
		text, ok := scalarText(rq.CorrectAnswer)
		if !ok || text == "" {
			return Question{}, fmt.Errorf("missing correctAnswer")
		}
		q.CorrectOption = -1
		q.CorrectText = text

	case KindTheory:
		q.CorrectOption = -1
		if pts, ok := stringList(rq.KeyPoints); ok {
			for _, p := range pts {
				if p != "" {
					q.KeyPoints = append(q.KeyPoints, p)
				}
			}
		}

	default:
		return Question{}, fmt.Errorf("unknown kind %q", kind)
	}
	return q, nil
}

// stringList decodes an array of scalars as trimmed strings.
func stringList(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := scalarText(it)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// scalarText renders a JSON string, number or boolean as trimmed text.
func scalarText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// resolveOption maps a correctAnswer value to an option index. Accepted:
// an index (number or numeric string), an option letter ("C", "c)"), or the
// option's text.
func resolveOption(raw json.RawMessage, opts []string) (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if len(raw) == 0 || dec.Decode(&v) != nil {
		return 0, false
	}

	inRange := func(i int) (int, bool) { return i, i >= 0 && i < len(opts) }

	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil || f != math.Trunc(f) {
			return 0, false
		}
		return inRange(int(f))
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return inRange(n)
		}
		for i, o := range opts {
			if normalizeText(o) == normalizeText(s) {
				return i, true
			}
		}
		letter := strings.TrimRight(strings.ToUpper(s), ").:")
		if len(letter) == 1 && letter[0] >= 'A' && letter[0] < 'A'+byte(len(opts)) {
			return int(letter[0] - 'A'), true
		}
	}
	return 0, false
}
