package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/model"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// ReviewSession is the extracted roster an admin is still correcting.
// It lives from extraction until commit, cancel, or expiry.
type ReviewSession struct {
	Token     string
	AdminID   int
	Source    string
	Rows      []model.RosterRow
	Issues    []model.RowIssue
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *ReviewSession) clone() *ReviewSession {
	cp := *s
	cp.Rows = append([]model.RosterRow(nil), s.Rows...)
	cp.Issues = append([]model.RowIssue(nil), s.Issues...)
	return &cp
}

type ReviewStore struct {
	mu       sync.Mutex
	sessions map[string]*ReviewSession
	ttl      time.Duration
	now      func() time.Time
	sched    gocron.Scheduler
}

func NewReviewStore(ttl time.Duration) *ReviewStore {
	return &ReviewStore{sessions: map[string]*ReviewSession{}, ttl: ttl, now: time.Now}
}

func (s *ReviewStore) Create(adminID int, source string, rows []model.RosterRow) *ReviewSession {
	normalized, issues := ValidateRows(rows)
	now := s.now()
	sess := &ReviewSession{
		Token:     uuid.NewString(),
		AdminID:   adminID,
		Source:    source,
		Rows:      normalized,
		Issues:    issues,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return sess.clone()
}

func (s *ReviewStore) Get(adminID int, token string) (*ReviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(adminID, token)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// Replace swaps in the admin's edited rows and re-validates them.
func (s *ReviewStore) Replace(adminID int, token string, rows []model.RosterRow) (*ReviewSession, error) {
	normalized, issues := ValidateRows(rows)
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(adminID, token)
	if err != nil {
		return nil, err
	}
	sess.Rows = normalized
	sess.Issues = issues
	sess.UpdatedAt = s.now()
	return sess.clone(), nil
}

func (s *ReviewStore) Delete(adminID int, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(adminID, token); err != nil {
		return err
	}
	delete(s.sessions, token)
	return nil
}

// Take removes the session for commit. Put it back with Restore when the
// commit fails.
func (s *ReviewStore) Take(adminID int, token string) (*ReviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookup(adminID, token)
	if err != nil {
		return nil, err
	}
	delete(s.sessions, token)
	return sess, nil
}

func (s *ReviewStore) Restore(sess *ReviewSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.Token]; !ok {
		s.sessions[sess.Token] = sess
	}
}

func (s *ReviewStore) ExpiresAt(sess *ReviewSession) time.Time {
	return sess.UpdatedAt.Add(s.ttl)
}

func (s *ReviewStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL.
func (s *ReviewStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for token, sess := range s.sessions {
		if now.Sub(sess.UpdatedAt) > s.ttl {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

// StartSweeper schedules Sweep every interval until Stop.
func (s *ReviewStore) StartSweeper(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	log := logger.Component("review")
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := s.Sweep(); n > 0 {
				log.Info("review.swept", "expired", n, "open", s.Len())
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("schedule sweeper: %w", err)
	}
	sched.Start()
	s.sched = sched
	return nil
}

func (s *ReviewStore) Stop() error {
	if s.sched == nil {
		return nil
	}
	return s.sched.Shutdown()
}

func (s *ReviewStore) lookup(adminID int, token string) (*ReviewSession, error) {
	sess, ok := s.sessions[token]
	if !ok || sess.AdminID != adminID {
		return nil, ErrReviewNotFound
	}
	if s.now().Sub(sess.UpdatedAt) > s.ttl {
		delete(s.sessions, token)
		return nil, ErrReviewNotFound
	}
	return sess, nil
}
