// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package monitor runs inactivity passes: it finds depositors who went
// quiet for longer than their threshold, issues claim tokens and notifies
// the nominees.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codeberg.org/walletsurance/nominee/internal/metrics"
	"codeberg.org/walletsurance/nominee/internal/models"
	"codeberg.org/walletsurance/nominee/internal/repository"
	"codeberg.org/walletsurance/nominee/internal/services/claim"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
	"codeberg.org/walletsurance/nominee/internal/services/notify"
	"golang.org/x/sync/errgroup"
)

// PreviewLength is the number of question runes included in a notification.
const PreviewLength = 80

// MissingActivityPolicy decides what happens to accounts without any
// recorded ledger activity.
type MissingActivityPolicy string

const (
	// MissingActivityInactive treats an account with no activity as inactive.
	MissingActivityInactive MissingActivityPolicy = "inactive"
	// MissingActivitySkip leaves such accounts alone.
	MissingActivitySkip MissingActivityPolicy = "skip"
)

// Clock returns the current time.
type Clock func() time.Time

// Options configures a Service.
type Options struct { //nolint:govet // fieldalignment not critical for config structs
	MissingActivity     MissingActivityPolicy
	Concurrency         int
	CollaboratorTimeout time.Duration
	Clock               Clock
}

// Result summarizes one pass.
type Result struct {
	Scanned       int `json:"scanned_count"`
	Notified      int `json:"notified_count"`
	Issued        int `json:"issued_count"`
	AlreadyIssued int `json:"already_issued_count"`
	Active        int `json:"active_count"`
	Skipped       int `json:"skipped_count"`
	Failed        int `json:"failed_count"`
}

type outcome int

const (
	outcomeActive outcome = iota
	outcomeSkipped
	outcomeRaced
	outcomeIssued
	outcomeNotified
	outcomeFailed
)

type Service struct {
	repo     *repository.Repository
	tokens   *claim.Tokens
	oracle   ledger.Oracle
	notifier notify.Notifier
	opts     Options
	metrics  *metrics.Metrics
}

func NewService(repo *repository.Repository, tokens *claim.Tokens, oracle ledger.Oracle, notifier notify.Notifier, opts Options, m *metrics.Metrics) *Service {
	if opts.MissingActivity == "" {
		opts.MissingActivity = MissingActivityInactive
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CollaboratorTimeout <= 0 {
		opts.CollaboratorTimeout = 15 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		oracle:   oracle,
		notifier: notifier,
		opts:     opts,
		metrics:  m,
	}
}

// CheckInactivity runs one pass over all nominees. Per-nominee failures are
// counted and logged; only failing to list nominees fails the pass.
func (s *Service) CheckInactivity(ctx context.Context) (*Result, error) {
	start := time.Now()
	defer s.metrics.ObservePass(start)

	nominees, err := s.repo.ListNomineesWithClaimState(ctx)
	if err != nil {
		s.metrics.IncCollaboratorFailure(metrics.CollaboratorStore)
		return nil, fmt.Errorf("failed to list nominees: %w", err)
	}

	res := &Result{Scanned: len(nominees)}
	s.metrics.AddScanned(len(nominees))
	now := s.opts.Clock()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i := range nominees {
		n := &nominees[i]
		if n.HasClaim {
			mu.Lock()
			res.AlreadyIssued++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			o := s.check(gctx, &n.Nominee, now)
			mu.Lock()
			defer mu.Unlock()
			res.record(o)
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "monitor_pass_complete",
		"scanned", res.Scanned,
		"issued", res.Issued,
		"notified", res.Notified,
		"already_issued", res.AlreadyIssued,
		"active", res.Active,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (r *Result) record(o outcome) {
	switch o {
	case outcomeActive:
		r.Active++
	case outcomeSkipped:
		r.Skipped++
	case outcomeRaced:
		r.AlreadyIssued++
	case outcomeIssued:
		r.Issued++
	case outcomeNotified:
		r.Issued++
		r.Notified++
	case outcomeFailed:
		r.Failed++
	}
}

func (s *Service) check(ctx context.Context, n *models.Nominee, now time.Time) outcome {
	log := slog.With("nominee_id", n.ID, "depositor", n.DepositorAccountID)

	inactive, o, err := s.isInactive(ctx, n, now)
	if err != nil {
		s.metrics.IncCollaboratorFailure(metrics.CollaboratorOracle)
		log.WarnContext(ctx, "monitor_oracle_failed", "error", err)
		return outcomeFailed
	}
	if !inactive {
		return o
	}

	token, created, err := s.tokens.Issue(ctx, n.ID)
	if err != nil {
		s.metrics.IncCollaboratorFailure(metrics.CollaboratorStore)
		log.ErrorContext(ctx, "monitor_issue_failed", "error", err)
		return outcomeFailed
	}
	if !created {
		return outcomeRaced
	}
	s.metrics.IncClaimIssued()
	log.InfoContext(ctx, "claim_issued", "token", models.ShortToken(token))

	notifyCtx, cancel := context.WithTimeout(ctx, s.opts.CollaboratorTimeout)
	defer cancel()
	err = s.notifier.SendClaim(notifyCtx, notify.Message{
		Phone:           n.BeneficiaryPhone,
		Token:           token,
		QuestionPreview: Preview(n.Question),
	})
	if err != nil {
		s.metrics.IncNotification("failed")
		s.metrics.IncCollaboratorFailure(metrics.CollaboratorNotifier)
		log.WarnContext(ctx, "claim_notification_failed", "error", err)
		return outcomeIssued
	}
	s.metrics.IncNotification("sent")
	log.InfoContext(ctx, "claim_notification_sent")
	return outcomeNotified
}

// isInactive decides whether n passed its threshold. When it did not, the
// returned outcome says why.
func (s *Service) isInactive(ctx context.Context, n *models.Nominee, now time.Time) (bool, outcome, error) {
	oracleCtx, cancel := context.WithTimeout(ctx, s.opts.CollaboratorTimeout)
	defer cancel()

	last, found, err := s.oracle.LastActivity(oracleCtx, n.DepositorAccountID)
	if err != nil {
		return false, outcomeFailed, err
	}
	if !found {
		if s.opts.MissingActivity == MissingActivitySkip {
			return false, outcomeSkipped, nil
		}
		return true, 0, nil
	}
	if last.After(n.InactiveSince(now)) {
		return false, outcomeActive, nil
	}
	return true, 0, nil
}

// Preview truncates a question to PreviewLength runes.
func Preview(question string) string {
	runes := []rune(question)
	if len(runes) <= PreviewLength {
		return question
	}
	return string(runes[:PreviewLength])
}
