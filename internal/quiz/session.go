package quiz

import (
	"fmt"
	"math"
	"time"
)

// DocumentRef identifies the approved document a quiz was generated from.
type DocumentRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StoragePath string `json:"storagePath"`
}

// Session is one quiz attempt. Questions are fixed at creation; answers,
// navigation and submission state change through the methods below.
// A Session is not safe for concurrent use.
type Session struct {
	ID             string
	Document       DocumentRef
	Kind           Kind
	RequestedCount int
	CreatedAt      time.Time

	questions    []Question
	answers      []Answer
	current      int
	submitted    bool
	score        float64
	correctCount int
}

func NewSession(id string, doc DocumentRef, kind Kind, requested int, questions []Question) *Session {
	s := &Session{
		ID:             id,
		Document:       doc,
		Kind:           kind,
		RequestedCount: requested,
		CreatedAt:      time.Now(),
		questions:      questions,
	}
	s.resetAnswers()
	return s
}

func (s *Session) resetAnswers() {
	s.answers = make([]Answer, len(s.questions))
	for i := range s.answers {
		s.answers[i] = EmptyAnswer()
	}
}

func (s *Session) Len() int { return len(s.questions) }

// Questions returns the session's question slice itself; callers must not
// modify it.
func (s *Session) Questions() []Question { return s.questions }

func (s *Session) Answers() []Answer {
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

func (s *Session) CurrentIndex() int { return s.current }

func (s *Session) Submitted() bool { return s.submitted }

func (s *Session) Score() float64 { return s.score }

// SetAnswer overwrites the answer at index. Answers are frozen once the
// session is submitted; Retake unfreezes them.
func (s *Session) SetAnswer(index int, value any) error {
	if s.submitted {
		return ErrAlreadySubmitted
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	a, err := normalizeAnswer(s.questions[index], value)
	if err != nil {
		return err
	}
	s.answers[index] = a
	return nil
}

// Navigate moves the current question by delta, clamped to the valid range,
// and returns the new index.
func (s *Session) Navigate(delta int) int {
	return s.Goto(s.current + delta)
}

// Goto jumps to index, clamped to the valid range.
func (s *Session) Goto(index int) int {
	last := len(s.questions) - 1
	switch {
	case last < 0:
		index = 0
	case index < 0:
		index = 0
	case index > last:
		index = last
	}
	s.current = index
	return s.current
}

// Submit grades the current answers and returns the score as a whole
// percentage. Theory questions count toward the total but are never
// correct. Calling Submit again recomputes the same score.
func (s *Session) Submit() float64 {
	correct := 0
	for i, q := range s.questions {
		if ok, _ := grade(q, s.answers[i]); ok {
			correct++
		}
	}
	s.correctCount = correct
	s.score = 0
	if len(s.questions) > 0 {
		s.score = math.Round(100 * float64(correct) / float64(len(s.questions)))
	}
	s.submitted = true
	return s.score
}

// Retake clears answers, navigation and submission state. The generated
// questions are kept.
func (s *Session) Retake() {
	s.resetAnswers()
	s.current = 0
	s.submitted = false
	s.score = 0
	s.correctCount = 0
}
