package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sitepass/sitepass/core/visitor"
)

func Test_visitorAPI_kioskFlow(t *testing.T) {
	app, clock := setup(t)

	ci := visitor.CheckIn{
		FirstName:   "Jane",
		LastName:    "Doe",
		Company:     "Acme Hauling",
		Email:       "jane@acme.test",
		Phone:       "555-0101",
		Plant:       visitor.PlantDelta,
		MeetingWith: "John Smith",
	}

	// gate: new visitor, needs training, off site
	rec := do(app, http.MethodPost, "/v1/visitors/check", marchallObj(t, ci))
	assert.Equal(t, http.StatusOK, rec.Code)
	var gate visitor.GateResult
	unmarchallObj(t, rec, &gate)
	assert.Equal(t, "new", gate.Status)
	assert.True(t, gate.NeedsTraining)
	assert.False(t, gate.OnSite)

	// sign-in is blocked until training completes
	signIn := marchallObj(t, visitor.SignInRequest{Email: ci.Email})
	rec = do(app, http.MethodPost, "/v1/visitors/sign-in", signIn)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: visitor.ErrTrainingRequired.Error()}),
	}, rec)

	// video: below threshold first, then complete
	rec = do(app, http.MethodPost, "/v1/visitors/video-progress", marchallObj(t, visitor.VideoProgress{
		Email: ci.Email, Plant: ci.Plant, Percent: 40,
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	var trec visitor.TrainingRecord
	unmarchallObj(t, rec, &trec)
	assert.False(t, trec.VideoWatched)

	rec = do(app, http.MethodPost, "/v1/visitors/video-progress", marchallObj(t, visitor.VideoProgress{
		Email: ci.Email, Plant: ci.Plant, Percent: 100, Ended: true,
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarchallObj(t, rec, &trec)
	assert.True(t, trec.VideoWatched)

	// quiz: 90 fails, only 100 passes
	rec = do(app, http.MethodPost, "/v1/visitors/quiz", marchallObj(t, visitor.QuizSubmission{
		Email: ci.Email, Plant: ci.Plant, Score: 90,
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarchallObj(t, rec, &trec)
	assert.False(t, trec.QuizPassed)
	assert.False(t, trec.TrainingCompleted)

	rec = do(app, http.MethodPost, "/v1/visitors/quiz", marchallObj(t, visitor.QuizSubmission{
		Email: ci.Email, Plant: ci.Plant, Score: 100,
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarchallObj(t, rec, &trec)
	assert.True(t, trec.QuizPassed)
	assert.True(t, trec.TrainingCompleted)

	// sign-in now goes through
	rec = do(app, http.MethodPost, "/v1/visitors/sign-in", signIn)
	assert.Equal(t, http.StatusOK, rec.Code)
	var vis visitor.Visitor
	unmarchallObj(t, rec, &vis)
	assert.True(t, vis.OnSite())

	// reporting
	rec = do(app, http.MethodGet, "/v1/visitors?on_site=true")
	assert.Equal(t, http.StatusOK, rec.Code)
	var visitors []visitor.Visitor
	unmarchallObj(t, rec, &visitors)
	if assert.Len(t, visitors, 1) {
		assert.Equal(t, vis.ID, visitors[0].ID)
	}

	rec = do(app, http.MethodGet, "/v1/visitors/trained")
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarchallObj(t, rec, &visitors)
	assert.Len(t, visitors, 1)

	rec = do(app, http.MethodGet, "/v1/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	var stats visitor.Stats
	unmarchallObj(t, rec, &stats)
	assert.Equal(t, 1, stats.TotalVisitors)
	assert.Equal(t, 1, stats.CompletedTraining)

	// sweep: no-op before the cutoff, reports afterwards
	rec = do(app, http.MethodPost, "/v1/sweep")
	assert.Equal(t, http.StatusOK, rec.Code)
	var summary visitor.SweepSummary
	unmarchallObj(t, rec, &summary)
	assert.Equal(t, visitor.SweepSummary{}, summary)

	clock.now = time.Date(2021, 3, 1, 18, 0, 0, 0, time.UTC)
	rec = do(app, http.MethodPost, "/v1/sweep")
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarchallObj(t, rec, &summary)
	assert.Equal(t, 1, summary.VisitorsFound)
	assert.Equal(t, 1, summary.NotificationsSent)
	assert.Equal(t, 0, summary.Failures)

	// sign-out by id, then redundant sign-out conflicts
	rec = do(app, http.MethodPost, fmt.Sprintf("/v1/visitors/%d/sign-out", vis.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	unmarchallObj(t, rec, &vis)
	assert.False(t, vis.OnSite())

	rec = do(app, http.MethodPost, fmt.Sprintf("/v1/visitors/%d/sign-out", vis.ID))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: visitor.ErrAlreadySignedOut.Error()}),
	}, rec)
}

func Test_visitorAPI_signOutByName(t *testing.T) {
	app, _ := setup(t)

	ci := visitor.CheckIn{
		FirstName:  "Ann",
		LastName:   "Lee",
		Email:      "ann@acme.test",
		Phone:      "555-0102",
		Plant:      visitor.PlantSolms,
		IsEmployee: true, // skip the gate, presence is the point here
	}
	rec := do(app, http.MethodPost, "/v1/visitors/check", marchallObj(t, ci))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(app, http.MethodPost, "/v1/visitors/sign-in", marchallObj(t, visitor.SignInRequest{Email: ci.Email}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(app, http.MethodPost, "/v1/visitors/sign-out-by-name", marchallObj(t, visitor.SignOutByName{
		FirstName: "ann", LastName: "lee",
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	var vis visitor.Visitor
	unmarchallObj(t, rec, &vis)
	assert.Equal(t, ci.Email, vis.Email)
	assert.False(t, vis.OnSite())
}

func Test_visitorAPI_errors(t *testing.T) {
	app, _ := setup(t)

	notFound := marchallObj(t, httpErr{Error: visitor.ErrNotFound.Error()})

	tests := []httpTest{
		{
			name:     "check: invalid payload",
			method:   http.MethodPost,
			path:     "/v1/visitors/check",
			body:     marchallObj(t, visitor.CheckIn{FirstName: "Jane"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "check: unknown plant",
			method:   http.MethodPost,
			path:     "/v1/visitors/check",
			body: marchallObj(t, visitor.CheckIn{
				FirstName: "Jane", LastName: "Doe", Email: "jane@acme.test", Phone: "555-0101", Plant: "Atlantis",
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "video-progress: unknown visitor",
			method:   http.MethodPost,
			path:     "/v1/visitors/video-progress",
			body:     marchallObj(t, visitor.VideoProgress{Email: "ghost@acme.test", Plant: visitor.PlantDelta, Percent: 100}),
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "quiz: unknown visitor",
			method:   http.MethodPost,
			path:     "/v1/visitors/quiz",
			body:     marchallObj(t, visitor.QuizSubmission{Email: "ghost@acme.test", Plant: visitor.PlantDelta, Score: 100}),
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "sign-in: unknown visitor",
			method:   http.MethodPost,
			path:     "/v1/visitors/sign-in",
			body:     marchallObj(t, visitor.SignInRequest{Email: "ghost@acme.test"}),
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "sign-out: malformed id",
			method:   http.MethodPost,
			path:     "/v1/visitors/abc/sign-out",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid visitor id"}),
		},
		{
			name:     "sign-out: unknown id",
			method:   http.MethodPost,
			path:     "/v1/visitors/99999/sign-out",
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "sign-out-by-name: nobody on site",
			method:   http.MethodPost,
			path:     "/v1/visitors/sign-out-by-name",
			body:     marchallObj(t, visitor.SignOutByName{FirstName: "No", LastName: "Body"}),
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(app, tt.method, tt.path, tt.body)
			if tt.wantData == nil {
				assert.Equal(t, tt.wantCode, rec.Code)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
