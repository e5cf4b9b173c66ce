// Package challenge owns the challenge state machine and winner determination.
//
// States: pending -> active -> completed. Acceptance is a conditional update
// on the pending state; completion is a partial merge where unset fields keep
// their stored values.
package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/repo"
)

// Engine drives challenge transitions. Pure rules live in DetermineWinner and
// Merge; persistence is delegated to the repo.
type Engine struct {
	challenges repo.ChallengeRepo
	log        *zap.Logger
	now        func() time.Time
}

// NewEngine creates a new challenge engine.
func NewEngine(challenges repo.ChallengeRepo, log *zap.Logger) *Engine {
	return &Engine{
		challenges: challenges,
		log:        log,
		now:        time.Now,
	}
}

// Create starts a new challenge in the pending state. A nil challengedID
// creates an open challenge any user may accept.
func (e *Engine) Create(ctx context.Context, routeID, challengerID uuid.UUID, challengedID *uuid.UUID) (model.Challenge, error) {
	ch, err := e.challenges.Create(ctx, routeID, challengerID, challengedID)
	if err != nil {
		return model.Challenge{}, err
	}
	e.log.Info("challenge created",
		zap.String("challenge_id", ch.ID.String()),
		zap.String("route_id", routeID.String()),
		zap.Bool("open", challengedID == nil))
	return ch, nil
}

// Get returns a challenge by ID.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (model.Challenge, error) {
	return e.challenges.GetByID(ctx, id)
}

// Accept transitions pending -> active. A challenge in any other state
// reports not-found and its stored status is never changed. The caller's
// identity is not matched against challenged_id; any authenticated user can
// accept, and the caller is logged.
func (e *Engine) Accept(ctx context.Context, id uuid.UUID, callerID uuid.UUID) (model.Challenge, error) {
	ch, err := e.challenges.Accept(ctx, id)
	if err != nil {
		return model.Challenge{}, err
	}
	e.log.Info("challenge accepted",
		zap.String("challenge_id", id.String()),
		zap.String("caller_id", callerID.String()))
	return ch, nil
}

// Complete applies a partial merge to the challenge. Winner determination
// precedes persistence and the whole merge runs in one transaction against
// the locked row.
func (e *Engine) Complete(ctx context.Context, id uuid.UUID, p model.ChallengePatch) (model.Challenge, error) {
	ch, err := e.challenges.UpdateInTx(ctx, id, func(current model.Challenge) (model.Challenge, error) {
		return Merge(current, p, e.now()), nil
	})
	if err != nil {
		return model.Challenge{}, err
	}
	e.log.Info("challenge completed",
		zap.String("challenge_id", id.String()),
		zap.String("status", ch.Status))
	return ch, nil
}

// Available returns the open-challenge inbox, newest first.
func (e *Engine) Available(ctx context.Context) ([]model.Challenge, error) {
	return e.challenges.ListAvailable(ctx)
}

// DetermineWinner picks a winner from the times supplied in the patch: the
// strictly smaller time wins, ties go to the challenged user. Only evaluated
// when the patch carries both times; otherwise the winner is nil. The
// challenged user can only win when one is designated.
func DetermineWinner(ch model.Challenge, p model.ChallengePatch) *uuid.UUID {
	challengerTime, ok := p.ChallengerTime.Value()
	if !ok {
		return nil
	}
	challengedTime, ok := p.ChallengedTime.Value()
	if !ok {
		return nil
	}
	if challengerTime < challengedTime {
		winner := ch.ChallengerID
		return &winner
	}
	return ch.ChallengedID
}

// Merge applies a completion patch to the current challenge state:
//   - status and both time fields keep their stored values when unset;
//   - winner_id is assigned the freshly determined winner, which is nil
//     unless the patch carries both times;
//   - completed_at is stamped with now only when the patch sets status to
//     "completed", so a call that updates times without passing that status
//     leaves the completion timestamp unchanged.
func Merge(current model.Challenge, p model.ChallengePatch, now time.Time) model.Challenge {
	merged := current
	merged.Status = p.Status.Apply(current.Status)
	merged.ChallengerTime = p.ChallengerTime.ApplyPtr(current.ChallengerTime)
	merged.ChallengedTime = p.ChallengedTime.ApplyPtr(current.ChallengedTime)
	merged.WinnerID = DetermineWinner(current, p)

	if status, ok := p.Status.Value(); ok && status == model.ChallengeStatusCompleted {
		merged.CompletedAt = &now
	}
	return merged
}
