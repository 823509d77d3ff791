package quiz

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions_IgnoresSurroundingProse(t *testing.T) {
	raw := "Here are the questions:\n[{\"question\":\"Q1?\",\"options\":[\"A\",\"B\",\"C\",\"D\"],\"correctAnswer\":1,\"explanation\":\"because\"}]\nHope this helps!"

	res, err := ParseQuestions(raw, KindMultipleChoice, 5)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)

	q := res.Questions[0]
	assert.Equal(t, KindMultipleChoice, q.Kind)
	assert.Equal(t, "Q1?", q.Question)
	assert.Equal(t, []string{"A", "B", "C", "D"}, q.Options)
	assert.Equal(t, 1, q.CorrectOption)
	assert.Equal(t, "because", q.Explanation)
	assert.Empty(t, res.Dropped)
}

func TestParseQuestions_MarkdownFence(t *testing.T) {
	raw := "```json\n[{\"question\":\"The capital of France is ____.\",\"correctAnswer\":\"Paris\",\"explanation\":\"x\"}]\n```"

	res, err := ParseQuestions(raw, KindFillBlank, 1)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "Paris", res.Questions[0].CorrectText)
	assert.Equal(t, KindFillBlank, res.Questions[0].Kind)
}

func TestParseQuestions_NoArray(t *testing.T) {
	raw := "I'm sorry, I cannot help with that."

	res, err := ParseQuestions(raw, KindMultipleChoice, 3)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	var pe *PrepareError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, raw, pe.RawResponse)
}

func TestParseQuestions_BrokenJSON(t *testing.T) {
	_, err := ParseQuestions(`[{"question": "Q1?", "options": ["A","B"`, KindMultipleChoice, 3)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
}

func TestParseQuestions_SkipsCitationBrackets(t *testing.T) {
	raw := `According to [1] and [2]: [{"question":"Q?","sampleAnswer":"S","keyPoints":["a","b"]}]`

	res, err := ParseQuestions(raw, KindTheory, 3)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "S", res.Questions[0].SampleAnswer)
	assert.Equal(t, []string{"a", "b"}, res.Questions[0].KeyPoints)
}

func TestParseQuestions_EmptyArray(t *testing.T) {
	_, err := ParseQuestions("[]", KindTheory, 3)
	assert.True(t, errors.Is(err, ErrValidationFailed))
}

func TestParseQuestions_DropsMalformedEntries(t *testing.T) {
	raw := `[
		{"question":"ok?","options":["a","b","c","d"],"correctAnswer":0},
		{"question":"","options":["a","b","c","d"],"correctAnswer":0},
		{"question":"three options","options":["a","b","c"],"correctAnswer":0},
		{"question":"bad index","options":["a","b","c","d"],"correctAnswer":7},
		"not an object",
		{"question":"also ok","options":["a","b","c","d"],"correctAnswer":"3"}
	]`

	res, err := ParseQuestions(raw, KindMultipleChoice, 10)
	require.NoError(t, err)
	require.Len(t, res.Questions, 2)
	assert.Equal(t, "ok?", res.Questions[0].Question)
	assert.Equal(t, 3, res.Questions[1].CorrectOption)
	assert.Len(t, res.Dropped, 4)
}

func TestParseQuestions_AllMalformed(t *testing.T) {
	raw := `[{"question":"no answer"}]`

	_, err := ParseQuestions(raw, KindFillBlank, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.False(t, errors.Is(err, ErrGenerationFailed))
}

func TestParseQuestions_TrimsExtras(t *testing.T) {
	raw := `[{"question":"1","correctAnswer":"a"},{"question":"2","correctAnswer":"b"},{"question":"3","correctAnswer":"c"}]`

	res, err := ParseQuestions(raw, KindFillBlank, 2)
	require.NoError(t, err)
	assert.Len(t, res.Questions, 2)
	assert.Equal(t, 1, res.Trimmed)
}

func TestParseQuestions_FewerThanRequestedAccepted(t *testing.T) {
	raw := `[{"question":"1","correctAnswer":"a"}]`

	res, err := ParseQuestions(raw, KindFillBlank, 5)
	require.NoError(t, err)
	assert.Len(t, res.Questions, 1)
}

func TestParseQuestions_KindComesFromRequest(t *testing.T) {
	// options present, but the request asked for fill-blank
	raw := `[{"question":"Q ____","options":["a","b","c","d"],"correctAnswer":"b"}]`

	res, err := ParseQuestions(raw, KindFillBlank, 1)
	require.NoError(t, err)
	assert.Equal(t, KindFillBlank, res.Questions[0].Kind)
	assert.Equal(t, "b", res.Questions[0].CorrectText)
	assert.Nil(t, res.Questions[0].Options)
}

func TestResolveOption(t *testing.T) {
	opts := []string{"Berlin", "Madrid", "Paris", "Rome"}
	cases := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`2`, 2, true},
		{`2.0`, 2, true},
		{`"2"`, 2, true},
		{`"paris"`, 2, true},
		{`"C"`, 2, true},
		{`"c)"`, 2, true},
		{`4`, 0, false},
		{`-1`, 0, false},
		{`1.5`, 0, false},
		{`"Lyon"`, 0, false},
		{`null`, 0, false},
		{``, 0, false},
	}
	for _, tc := range cases {
		got, ok := resolveOption([]byte(tc.raw), opts)
		assert.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.raw)
		}
	}
}

func TestFillBlankNumericAnswer(t *testing.T) {
	res, err := ParseQuestions(`[{"question":"2 + 2 = ____","correctAnswer":4}]`, KindFillBlank, 1)
	require.NoError(t, err)
	assert.Equal(t, "4", res.Questions[0].CorrectText)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "日本", Truncate("日本語", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"mcq":             KindMultipleChoice,
		"multiple-choice": KindMultipleChoice,
		"Fill-Blank":      KindFillBlank,
		" theory ":        KindTheory,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseKind("essay")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestExtractArray_SkipsBracketedProse(t *testing.T) {
	raw := "As noted [see section 2] and [citation needed]:\n[{\"question\":\"Q?\"}]"

	arr, ok := ExtractArray(raw)
	require.True(t, ok)
	require.Len(t, arr, 1)
	assert.JSONEq(t, `{"question":"Q?"}`, string(arr[0]))
}

func TestExtractArray_BracketHeavyInputStaysBounded(t *testing.T) {
	raw := strings.Repeat("[", 50000)

	start := time.Now()
	_, ok := ExtractArray(raw)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}
