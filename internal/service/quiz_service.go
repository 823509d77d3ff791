package service

import (
	"context"
	"fmt"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/internal/util"
	"fst_cloud_backend/pkg/logger"
	"fst_cloud_backend/pkg/monitoring"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Preparer builds a quiz session from a document. *quiz.Orchestrator is the
// production implementation.
type Preparer interface {
	Prepare(ctx context.Context, documentID string, kind quiz.Kind, count int, progress quiz.ProgressFunc) (*quiz.Session, error)
}

// QuizStatus is the client view of a registered quiz session. Session is
// only set once preparation finished.
type QuizStatus struct {
	ID        string            `json:"id"`
	Phase     quiz.Phase        `json:"phase"`
	Outcome   string            `json:"outcome,omitempty"`
	Error     string            `json:"error,omitempty"`
	Session   *quiz.SessionView `json:"session,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type quizEntry struct {
	mu        sync.Mutex
	id        string
	owner     string
	phase     quiz.Phase
	err       error
	sess      *quiz.Session
	cancel    context.CancelFunc
	done      chan struct{}
	createdAt time.Time
	lastSeen  time.Time
}

func (e *quizEntry) status() *QuizStatus {
	st := &QuizStatus{ID: e.id, Phase: e.phase, CreatedAt: e.createdAt}
	if e.err != nil {
		st.Outcome = quiz.Outcome(e.err)
		st.Error = e.err.Error()
	}
	if e.sess != nil {
		v := e.sess.View()
		st.Session = &v
	}
	return st
}

type quizLimits struct {
	defaultCount   int
	maxQuestions   int
	ttl            time.Duration
	prepareTimeout time.Duration
}

// QuizService holds in-progress quiz sessions in memory. Each session is
// prepared on its own goroutine and belongs to the user who started it.
type QuizService struct {
	preparer Preparer

	mu      sync.Mutex
	entries map[string]*quizEntry
	limits  quizLimits
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewQuizService(preparer Preparer, cfg config.QuizConfig) *QuizService {
	ctx, cancel := context.WithCancel(context.Background())
	return &QuizService{
		preparer: preparer,
		entries:  make(map[string]*quizEntry),
		limits: quizLimits{
			defaultCount:   cfg.DefaultCount,
			maxQuestions:   cfg.MaxQuestions,
			ttl:            cfg.SessionTTL(),
			prepareTimeout: cfg.PrepareTimeout(),
		},
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// UpdateLimits applies reloaded quiz settings. Sessions already preparing
// keep the deadline they started with.
func (s *QuizService) UpdateLimits(cfg config.QuizConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = quizLimits{
		defaultCount:   cfg.DefaultCount,
		maxQuestions:   cfg.MaxQuestions,
		ttl:            cfg.SessionTTL(),
		prepareTimeout: cfg.PrepareTimeout(),
	}
	logger.Log.Info("Quiz limits updated",
		zap.Int("maxQuestions", cfg.MaxQuestions),
		zap.Duration("ttl", s.limits.ttl),
		zap.Duration("prepareTimeout", s.limits.prepareTimeout),
	)
}

// DefaultCount is the question count used when a request names none.
func (s *QuizService) DefaultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits.defaultCount
}

// Start registers a session and prepares it in the background.
func (s *QuizService) Start(owner, documentID string, kind quiz.Kind, count int) (*QuizStatus, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown question type %q", quiz.ErrInvalidRequest, kind)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, util.ErrServiceShutdown
	}
	limits := s.limits
	if count < 1 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: question count must be positive, got %d", quiz.ErrInvalidRequest, count)
	}
	if count > limits.maxQuestions {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d > %d", util.ErrTooManyQuestions, count, limits.maxQuestions)
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if limits.prepareTimeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, limits.prepareTimeout)
	} else {
		ctx, cancel = context.WithCancel(s.ctx)
	}
	now := s.now()
	e := &quizEntry{
		id:        uuid.New().String(),
		owner:     owner,
		phase:     quiz.PhaseResolving,
		cancel:    cancel,
		done:      make(chan struct{}),
		createdAt: now,
		lastSeen:  now,
	}
	s.entries[e.id] = e
	monitoring.QuizActiveSessions.Set(float64(len(s.entries)))
	s.wg.Add(1)
	s.mu.Unlock()

	go s.prepare(ctx, e, documentID, kind, count)

	logger.Log.Info("Quiz session started",
		zap.String("sessionId", e.id),
		zap.String("userId", owner),
		zap.String("documentId", documentID),
		zap.String("kind", string(kind)),
		zap.Int("count", count),
	)

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status(), nil
}

func (s *QuizService) prepare(ctx context.Context, e *quizEntry, documentID string, kind quiz.Kind, count int) {
	defer s.wg.Done()
	defer close(e.done)
	defer e.cancel()

	sess, err := s.preparer.Prepare(ctx, documentID, kind, count, func(p quiz.Phase) {
		e.mu.Lock()
		e.phase = p
		e.mu.Unlock()
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.phase = quiz.PhaseFailed
		e.err = err
		return
	}
	sess.ID = e.id
	e.sess = sess
	e.phase = quiz.PhaseReady
}

func (s *QuizService) lookup(owner, id string) (*quizEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || e.owner != owner {
		return nil, util.ErrSessionNotFound
	}
	return e, nil
}

// withSession runs fn on a prepared session under the entry lock.
func (s *QuizService) withSession(owner, id string, fn func(*quiz.Session) error) error {
	e, err := s.lookup(owner, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = s.now()
	switch e.phase {
	case quiz.PhaseReady:
		return fn(e.sess)
	case quiz.PhaseFailed:
		return e.err
	default:
		return util.ErrSessionNotReady
	}
}

func (s *QuizService) Status(owner, id string) (*QuizStatus, error) {
	e, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSeen = s.now()
	return e.status(), nil
}

// Wait blocks until the session is ready or failed, or until ctx is done.
func (s *QuizService) Wait(ctx context.Context, owner, id string) (*QuizStatus, error) {
	e, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}
	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Status(owner, id)
}

// Err is the preparation error of a failed session, nil otherwise.
func (s *QuizService) Err(owner, id string) error {
	e, err := s.lookup(owner, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (s *QuizService) Answer(owner, id string, index int, value any) (*quiz.SessionView, error) {
	var view quiz.SessionView
	err := s.withSession(owner, id, func(sess *quiz.Session) error {
		if err := sess.SetAnswer(index, value); err != nil {
			return err
		}
		view = sess.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Navigate moves by delta and returns the resulting view.
func (s *QuizService) Navigate(owner, id string, delta int) (*quiz.SessionView, error) {
	var view quiz.SessionView
	err := s.withSession(owner, id, func(sess *quiz.Session) error {
		sess.Navigate(delta)
		view = sess.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *QuizService) Goto(owner, id string, index int) (*quiz.SessionView, error) {
	var view quiz.SessionView
	err := s.withSession(owner, id, func(sess *quiz.Session) error {
		sess.Goto(index)
		view = sess.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Submit grades the session and returns the results.
func (s *QuizService) Submit(owner, id string) (*quiz.Results, error) {
	var res *quiz.Results
	err := s.withSession(owner, id, func(sess *quiz.Session) error {
		score := sess.Submit()
		logger.Log.Info("Quiz submitted", zap.String("sessionId", id), zap.Float64("score", score))
		var err error
		res, err = sess.Results()
		return err
	})
	return res, err
}

func (s *QuizService) Retake(owner, id string) (*quiz.SessionView, error) {
	var view quiz.SessionView
	err := s.withSession(owner, id, func(sess *quiz.Session) error {
		sess.Retake()
		view = sess.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *QuizService) Results(owner, id string) (*quiz.Results, error) {
	var res *quiz.Results
	err := s.withSession(owner, id, func(sess *quiz.Session) error {
		var err error
		res, err = sess.Results()
		return err
	})
	return res, err
}

// Discard drops the session and cancels its preparation if still running.
func (s *QuizService) Discard(owner, id string) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.owner != owner {
		s.mu.Unlock()
		return util.ErrSessionNotFound
	}
	delete(s.entries, id)
	monitoring.QuizActiveSessions.Set(float64(len(s.entries)))
	s.mu.Unlock()

	e.cancel()
	logger.Log.Debug("Quiz session discarded", zap.String("sessionId", id))
	return nil
}

// Len is the number of registered sessions.
func (s *QuizService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *QuizService) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limits.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := now.Sub(e.lastSeen)
		e.mu.Unlock()
		if idle > s.limits.ttl {
			e.cancel()
			delete(s.entries, id)
			removed++
		}
	}
	monitoring.QuizActiveSessions.Set(float64(len(s.entries)))
	return removed
}

// RunJanitor sweeps expired sessions every interval until Stop.
func (s *QuizService) RunJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(s.now()); n > 0 {
				logger.Log.Info("Expired quiz sessions removed", zap.Int("count", n))
			}
		}
	}
}

// Stop cancels every preparation and waits for their goroutines.
func (s *QuizService) Stop() {
	s.mu.Lock()
	s.closed = true
	count := len(s.entries)
	s.entries = make(map[string]*quizEntry)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	monitoring.QuizActiveSessions.Set(0)
	logger.Log.Info("Quiz service stopped", zap.Int("droppedSessions", count))
}

