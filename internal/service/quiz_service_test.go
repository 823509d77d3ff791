package service

import (
	"context"
	"errors"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPreparer struct {
	release chan struct{}
	err     error
	started chan context.Context
}

func (p *stubPreparer) Prepare(ctx context.Context, documentID string, kind quiz.Kind, count int, progress quiz.ProgressFunc) (*quiz.Session, error) {
	progress(quiz.PhaseExtracting)
	if p.started != nil {
		p.started <- ctx
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	qs := []quiz.Question{
		{Kind: quiz.KindMultipleChoice, Question: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectOption: 1},
		{Kind: quiz.KindMultipleChoice, Question: "1+1?", Options: []string{"2", "3", "4", "5"}, CorrectOption: 0},
	}
	return quiz.NewSession("inner", quiz.DocumentRef{ID: documentID, Name: "Doc"}, kind, count, qs), nil
}

func testQuizConfig() config.QuizConfig {
	return config.QuizConfig{DefaultCount: 2, MaxQuestions: 10, SessionTTLMinutes: 60, PrepareTimeoutSeconds: 30}
}

func TestQuizServiceLifecycle(t *testing.T) {
	svc := NewQuizService(&stubPreparer{}, testQuizConfig())
	defer svc.Stop()

	st, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err = svc.Wait(ctx, "alice", st.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseReady, st.Phase)
	require.NotNil(t, st.Session)
	assert.Equal(t, st.ID, st.Session.ID)
	assert.Nil(t, st.Session.Score)

	_, err = svc.Answer("alice", st.ID, 0, 1)
	require.NoError(t, err)
	view, err := svc.Navigate("alice", st.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentIndex)

	_, err = svc.Results("alice", st.ID)
	assert.ErrorIs(t, err, quiz.ErrNotSubmitted)

	res, err := svc.Submit("alice", st.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(50), res.Score)
	assert.Equal(t, 1, res.CorrectCount)

	_, err = svc.Answer("alice", st.ID, 1, 0)
	assert.ErrorIs(t, err, quiz.ErrAlreadySubmitted)

	view, err = svc.Retake("alice", st.ID)
	require.NoError(t, err)
	assert.False(t, view.Submitted)
	assert.Equal(t, 0, view.CurrentIndex)

	require.NoError(t, svc.Discard("alice", st.ID))
	_, err = svc.Status("alice", st.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestQuizServiceValidatesRequest(t *testing.T) {
	svc := NewQuizService(&stubPreparer{}, testQuizConfig())
	defer svc.Stop()

	_, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 0)
	assert.ErrorIs(t, err, quiz.ErrInvalidRequest)
	_, err = svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 11)
	assert.ErrorIs(t, err, util.ErrTooManyQuestions)
	_, err = svc.Start("alice", "doc-1", quiz.Kind("essay"), 3)
	assert.ErrorIs(t, err, quiz.ErrInvalidRequest)
	assert.Equal(t, 0, svc.Len())

	svc.UpdateLimits(config.QuizConfig{MaxQuestions: 20, SessionTTLMinutes: 60, PrepareTimeoutSeconds: 30})
	_, err = svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 11)
	assert.NoError(t, err)
}

func TestQuizServiceSessionsAreOwnerScoped(t *testing.T) {
	svc := NewQuizService(&stubPreparer{}, testQuizConfig())
	defer svc.Stop()

	st, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	require.NoError(t, err)

	_, err = svc.Status("bob", st.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Discard("bob", st.ID), util.ErrSessionNotFound)
}

func TestQuizServiceNotReadyWhilePreparing(t *testing.T) {
	p := &stubPreparer{release: make(chan struct{})}
	svc := NewQuizService(p, testQuizConfig())
	defer svc.Stop()

	st, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	require.NoError(t, err)

	_, err = svc.Answer("alice", st.ID, 0, 1)
	assert.ErrorIs(t, err, util.ErrSessionNotReady)

	close(p.release)
	st, err = svc.Wait(context.Background(), "alice", st.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseReady, st.Phase)
}

func TestQuizServiceDiscardCancelsPreparation(t *testing.T) {
	p := &stubPreparer{release: make(chan struct{}), started: make(chan context.Context, 1)}
	svc := NewQuizService(p, testQuizConfig())
	defer svc.Stop()

	st, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	require.NoError(t, err)

	var prepCtx context.Context
	select {
	case prepCtx = <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("preparation never started")
	}

	require.NoError(t, svc.Discard("alice", st.ID))
	select {
	case <-prepCtx.Done():
		assert.True(t, errors.Is(prepCtx.Err(), context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("discard did not cancel preparation")
	}
}

func TestQuizServiceReportsPrepareFailure(t *testing.T) {
	failure := &quiz.PrepareError{Kind: quiz.ErrGenerationFailed, Detail: "no JSON array in response"}
	svc := NewQuizService(&stubPreparer{err: failure}, testQuizConfig())
	defer svc.Stop()

	st, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	require.NoError(t, err)
	st, err = svc.Wait(context.Background(), "alice", st.ID)
	require.NoError(t, err)

	assert.Equal(t, quiz.PhaseFailed, st.Phase)
	assert.Equal(t, "generation_failed", st.Outcome)
	assert.Nil(t, st.Session)

	_, err = svc.Submit("alice", st.ID)
	assert.ErrorIs(t, err, quiz.ErrGenerationFailed)
	assert.ErrorIs(t, svc.Err("alice", st.ID), quiz.ErrGenerationFailed)
}

func TestQuizServiceSweepExpiresIdleSessions(t *testing.T) {
	svc := NewQuizService(&stubPreparer{}, testQuizConfig())
	defer svc.Stop()

	st, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	require.NoError(t, err)
	_, err = svc.Wait(context.Background(), "alice", st.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, svc.sweep(time.Now().Add(30*time.Minute)))
	assert.Equal(t, 1, svc.sweep(time.Now().Add(2*time.Hour)))
	assert.Equal(t, 0, svc.Len())
}

func TestQuizServiceRejectsStartAfterStop(t *testing.T) {
	svc := NewQuizService(&stubPreparer{}, testQuizConfig())
	svc.Stop()

	_, err := svc.Start("alice", "doc-1", quiz.KindMultipleChoice, 2)
	assert.ErrorIs(t, err, util.ErrServiceShutdown)
}
