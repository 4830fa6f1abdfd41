package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/sitepass/sitepass/core/visitor"
)

// CreateVisitor persists a visitor fixture. The visitor is created off site
// unless signedIn is set, in which case SignedInAt is stamped and
// SignedOutAt left nil.
func CreateVisitor(
	t *testing.T,
	repo visitor.Repository,
	firstName, lastName, email string,
	plant visitor.Plant,
	meetingWith string,
	signedIn bool,
	createdAt ...time.Time,
) visitor.Visitor {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	vis := visitor.Visitor{
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Phone:       "555-0100",
		Plant:       plant,
		MeetingWith: meetingWith,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if signedIn {
		vis.SignedInAt = tstamp
	} else {
		vis.SignedOutAt = &tstamp
	}
	vis, err := repo.CreateVisitor(context.Background(), vis)
	if err != nil {
		t.Fatalf("CreateVisitor() failed: %v", err)
	}
	return vis
}

// CompleteTraining provisions a completed training record for the pair,
// reusing the existing record if the gate already created one.
func CompleteTraining(t *testing.T, repo visitor.Repository, vis visitor.Visitor, plant visitor.Plant) visitor.TrainingRecord {
	t.Helper()

	ctx := context.Background()
	now := time.Now().UTC()

	rec, err := repo.GetTrainingRecord(ctx, vis.ID, plant)
	if err == visitor.ErrRecordNotFound {
		rec, err = repo.CreateTrainingRecord(ctx, visitor.TrainingRecord{
			VisitorID: vis.ID,
			Plant:     plant,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		t.Fatalf("CompleteTraining() failed: %v", err)
	}

	rec.VideoWatched = true
	rec.VideoWatchedAt = &now
	rec.QuizPassed = true
	rec.QuizScore = visitor.PassingScore
	rec.QuizCompletedAt = &now
	rec.TrainingCompleted = true
	rec.CompletedAt = &now
	rec.UpdatedAt = now
	if rec, err = repo.UpdateTrainingRecord(ctx, rec); err != nil {
		t.Fatalf("CompleteTraining() failed: %v", err)
	}
	return rec
}
