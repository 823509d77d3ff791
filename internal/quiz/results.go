package quiz

import "time"

// QuestionView is a question as shown while the quiz is being taken. It
// carries no answers.
type QuestionView struct {
	Index    int      `json:"index"`
	Kind     Kind     `json:"kind"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

// SessionView is the client-facing snapshot of a session.
type SessionView struct {
	ID             string         `json:"id"`
	Document       DocumentRef    `json:"document"`
	Kind           Kind           `json:"kind"`
	RequestedCount int            `json:"requestedCount"`
	Questions      []QuestionView `json:"questions"`
	Answers        []any          `json:"answers"`
	CurrentIndex   int            `json:"currentIndex"`
	Submitted      bool           `json:"submitted"`
	Score          *float64       `json:"score,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ResultItem is one graded question. Correct is nil for questions that are
// not auto-graded.
type ResultItem struct {
	Index         int      `json:"index"`
	Kind          Kind     `json:"kind"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	UserAnswer    any      `json:"userAnswer"`
	Answered      bool     `json:"answered"`
	CorrectAnswer any      `json:"correctAnswer,omitempty"`
	CorrectOption string   `json:"correctOption,omitempty"`
	SampleAnswer  string   `json:"sampleAnswer,omitempty"`
	KeyPoints     []string `json:"keyPoints,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
	Correct       *bool    `json:"correct"`
}

type Results struct {
	SessionID    string       `json:"sessionId"`
	Document     DocumentRef  `json:"document"`
	Score        float64      `json:"score"`
	CorrectCount int          `json:"correctCount"`
	Gradable     int          `json:"gradable"`
	Total        int          `json:"total"`
	Items        []ResultItem `json:"items"`
}

func (s *Session) View() SessionView {
	v := SessionView{
		ID:             s.ID,
		Document:       s.Document,
		Kind:           s.Kind,
		RequestedCount: s.RequestedCount,
		Questions:      make([]QuestionView, len(s.questions)),
		Answers:        make([]any, len(s.answers)),
		CurrentIndex:   s.current,
		Submitted:      s.submitted,
		CreatedAt:      s.CreatedAt,
	}
	for i, q := range s.questions {
		v.Questions[i] = QuestionView{Index: i, Kind: q.Kind, Question: q.Question, Options: q.Options}
		v.Answers[i] = s.answers[i].Value(q.Kind)
	}
	if s.submitted {
		score := s.score
		v.Score = &score
	}
	return v
}

// Results projects a submitted session into per-question feedback.
func (s *Session) Results() (*Results, error) {
	if !s.submitted {
		return nil, ErrNotSubmitted
	}

	r := &Results{
		SessionID:    s.ID,
		Document:     s.Document,
		Score:        s.score,
		CorrectCount: s.correctCount,
		Total:        len(s.questions),
		Items:        make([]ResultItem, len(s.questions)),
	}
	for i, q := range s.questions {
		a := s.answers[i]
		item := ResultItem{
			Index:       i,
			Kind:        q.Kind,
			Question:    q.Question,
			Options:     q.Options,
			UserAnswer:  a.Value(q.Kind),
			Answered:    !a.IsEmpty(q.Kind),
			Explanation: q.Explanation,
		}
		switch q.Kind {
		case KindMultipleChoice:
			item.CorrectAnswer = q.CorrectOption
			item.CorrectOption = q.Options[q.CorrectOption]
		case KindFillBlank:
			item.CorrectAnswer = q.CorrectText
		case KindTheory:
			item.SampleAnswer = q.SampleAnswer
			item.KeyPoints = q.KeyPoints
		}
		if ok, gradable := grade(q, a); gradable {
			item.Correct = &ok
			r.Gradable++
		}
		r.Items[i] = item
	}
	return r, nil
}
