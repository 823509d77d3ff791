// Package quiz turns approved documents into graded quizzes: it sequences
// text extraction and question generation, validates the model output and
// holds the per-attempt answer state.
package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the explicit question variant tag. It is set from the requested
// kind at parse time and never re-derived from field presence.
type Kind string

const (
	KindMultipleChoice Kind = "mcq"
	KindFillBlank      Kind = "fill-blank"
	KindTheory         Kind = "theory"
)

// OptionCount is the number of options every multiple-choice question has.
const OptionCount = 4

// BlankMarker marks the gap in a fill-in-the-blank question.
const BlankMarker = "____"

var kindAliases = map[string]Kind{
	"mcq":               KindMultipleChoice,
	"multiple-choice":   KindMultipleChoice,
	"multiple_choice":   KindMultipleChoice,
	"fill-blank":        KindFillBlank,
	"fill-in-the-blank": KindFillBlank,
	"fill_blank":        KindFillBlank,
	"theory":            KindTheory,
	"open-ended":        KindTheory,
}

func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown question type %q", ErrInvalidRequest, s)
}

func (k Kind) Valid() bool {
	switch k {
	case KindMultipleChoice, KindFillBlank, KindTheory:
		return true
	}
	return false
}

// Gradable reports whether answers to this kind can be scored automatically.
func (k Kind) Gradable() bool {
	return k != KindTheory
}

// Question is one generated question. Which fields are meaningful depends
// on Kind:
//
//	mcq:        Options, CorrectOption, Explanation
//	fill-blank: CorrectText, Explanation
//	theory:     SampleAnswer, KeyPoints
type Question struct {
	Kind          Kind
	Question      string
	Options       []string
	CorrectOption int
	CorrectText   string
	Explanation   string
	SampleAnswer  string
	KeyPoints     []string
}

// Answer is one answer slot. Option is used by multiple-choice questions,
// Text by the others. The empty sentinel is Option -1 and Text "".
type Answer struct {
	Option int
	Text   string
}

func EmptyAnswer() Answer {
	return Answer{Option: -1}
}

func (a Answer) IsEmpty(k Kind) bool {
	if k == KindMultipleChoice {
		return a.Option < 0
	}
	return a.Text == ""
}

// Value is the answer as presented to clients: an option index for
// multiple choice, text otherwise.
func (a Answer) Value(k Kind) any {
	if k == KindMultipleChoice {
		return a.Option
	}
	return a.Text
}

// normalizeAnswer converts a client-supplied value into an answer slot for
// q. Multiple-choice values may arrive as integers, JSON numbers or numeric
// strings; "2" and 2 are the same answer.
func normalizeAnswer(q Question, value any) (Answer, error) {
	if q.Kind != KindMultipleChoice {
		switch v := value.(type) {
		case nil:
			return EmptyAnswer(), nil
		case string:
			return Answer{Option: -1, Text: v}, nil
		case json.Number:
			return Answer{Option: -1, Text: v.String()}, nil
		case float64, int, int64, bool:
			return Answer{Option: -1, Text: fmt.Sprint(v)}, nil
		default:
			return Answer{}, fmt.Errorf("%w: expected text, got %T", ErrInvalidAnswer, value)
		}
	}

	var idx int
	switch v := value.(type) {
	case nil:
		return EmptyAnswer(), nil
	case int:
		idx = v
	case int64:
		idx = int(v)
	case float64:
		if v != math.Trunc(v) {
			return Answer{}, fmt.Errorf("%w: option index %v is not an integer", ErrInvalidAnswer, v)
		}
		idx = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return Answer{}, fmt.Errorf("%w: option index %q is not an integer", ErrInvalidAnswer, v)
		}
		idx = int(n)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return EmptyAnswer(), nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Answer{}, fmt.Errorf("%w: option index %q is not an integer", ErrInvalidAnswer, v)
		}
		idx = n
	default:
		return Answer{}, fmt.Errorf("%w: expected option index, got %T", ErrInvalidAnswer, value)
	}

	if idx < -1 || idx >= len(q.Options) {
		return Answer{}, fmt.Errorf("%w: option index %d out of range", ErrInvalidAnswer, idx)
	}
	return Answer{Option: idx}, nil
}

// grade returns whether a is correct for q. gradable is false for theory
// questions, which are never correct.
func grade(q Question, a Answer) (correct, gradable bool) {
	switch q.Kind {
	case KindMultipleChoice:
		return a.Option >= 0 && a.Option == q.CorrectOption, true
	case KindFillBlank:
		return normalizeText(a.Text) == normalizeText(q.CorrectText), true
	default:
		return false, false
	}
}

func normalizeText(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
