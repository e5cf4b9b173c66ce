package challenge

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/patch"
)

func newChallenge() model.Challenge {
	challenger := uuid.New()
	challenged := uuid.New()
	return model.Challenge{
		ID:           uuid.New(),
		RouteID:      uuid.New(),
		ChallengerID: challenger,
		ChallengedID: &challenged,
		Status:       model.ChallengeStatusActive,
		CreatedAt:    time.Now(),
	}
}

func TestDetermineWinner_ChallengerWinsOnStrictlySmallerTime(t *testing.T) {
	ch := newChallenge()
	p := model.ChallengePatch{
		ChallengerTime: patch.Set(10.0),
		ChallengedTime: patch.Set(12.0),
	}
	winner := DetermineWinner(ch, p)
	require.NotNil(t, winner)
	assert.Equal(t, ch.ChallengerID, *winner)
}

func TestDetermineWinner_ChallengedWinsOtherwise(t *testing.T) {
	ch := newChallenge()
	p := model.ChallengePatch{
		ChallengerTime: patch.Set(15.0),
		ChallengedTime: patch.Set(12.0),
	}
	winner := DetermineWinner(ch, p)
	require.NotNil(t, winner)
	assert.Equal(t, *ch.ChallengedID, *winner)
}

func TestDetermineWinner_TieGoesToChallenged(t *testing.T) {
	ch := newChallenge()
	p := model.ChallengePatch{
		ChallengerTime: patch.Set(12.0),
		ChallengedTime: patch.Set(12.0),
	}
	winner := DetermineWinner(ch, p)
	require.NotNil(t, winner)
	assert.Equal(t, *ch.ChallengedID, *winner)
}

func TestDetermineWinner_NilWhenEitherTimeMissing(t *testing.T) {
	ch := newChallenge()

	assert.Nil(t, DetermineWinner(ch, model.ChallengePatch{
		ChallengerTime: patch.Set(10.0),
	}))
	assert.Nil(t, DetermineWinner(ch, model.ChallengePatch{
		ChallengedTime: patch.Set(10.0),
	}))
	assert.Nil(t, DetermineWinner(ch, model.ChallengePatch{}))
}

func TestDetermineWinner_OpenChallengeWithoutOpponent(t *testing.T) {
	ch := newChallenge()
	ch.ChallengedID = nil
	p := model.ChallengePatch{
		ChallengerTime: patch.Set(20.0),
		ChallengedTime: patch.Set(12.0),
	}
	// no designated opponent to win
	assert.Nil(t, DetermineWinner(ch, p))
}

func TestMerge_UnsetFieldsKeepStoredValues(t *testing.T) {
	ch := newChallenge()
	prev := 42.0
	ch.ChallengerTime = &prev

	now := time.Now()
	merged := Merge(ch, model.ChallengePatch{
		ChallengedTime: patch.Set(50.0),
	}, now)

	assert.Equal(t, model.ChallengeStatusActive, merged.Status)
	require.NotNil(t, merged.ChallengerTime)
	assert.Equal(t, 42.0, *merged.ChallengerTime)
	require.NotNil(t, merged.ChallengedTime)
	assert.Equal(t, 50.0, *merged.ChallengedTime)
}

func TestMerge_CompletedAtStampedOnlyWhenStatusCompleted(t *testing.T) {
	ch := newChallenge()
	now := time.Now()

	merged := Merge(ch, model.ChallengePatch{
		Status: patch.Set(model.ChallengeStatusCompleted),
	}, now)
	require.NotNil(t, merged.CompletedAt)
	assert.Equal(t, now, *merged.CompletedAt)
}

func TestMerge_TimesWithoutStatusLeaveCompletedAtUnchanged(t *testing.T) {
	ch := newChallenge()
	now := time.Now()

	merged := Merge(ch, model.ChallengePatch{
		ChallengerTime: patch.Set(10.0),
		ChallengedTime: patch.Set(12.0),
	}, now)

	assert.Nil(t, merged.CompletedAt)
	require.NotNil(t, merged.WinnerID)
	assert.Equal(t, ch.ChallengerID, *merged.WinnerID)
	assert.Equal(t, model.ChallengeStatusActive, merged.Status)
}

func TestMerge_WinnerResetWhenPatchOmitsATime(t *testing.T) {
	ch := newChallenge()
	previousWinner := ch.ChallengerID
	ch.WinnerID = &previousWinner
	bothSet := 30.0
	ch.ChallengerTime = &bothSet
	ch.ChallengedTime = &bothSet

	merged := Merge(ch, model.ChallengePatch{
		ChallengedTime: patch.Set(25.0),
	}, time.Now())

	// winner is determined from the patch alone, so a partial patch clears it
	assert.Nil(t, merged.WinnerID)
}

func TestMerge_FullCompletion(t *testing.T) {
	ch := newChallenge()
	now := time.Now()

	merged := Merge(ch, model.ChallengePatch{
		Status:         patch.Set(model.ChallengeStatusCompleted),
		ChallengerTime: patch.Set(10.0),
		ChallengedTime: patch.Set(12.0),
	}, now)

	assert.Equal(t, model.ChallengeStatusCompleted, merged.Status)
	require.NotNil(t, merged.WinnerID)
	assert.Equal(t, ch.ChallengerID, *merged.WinnerID)
	require.NotNil(t, merged.CompletedAt)
	assert.Equal(t, now, *merged.CompletedAt)
}
