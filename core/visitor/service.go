package visitor

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/staff"
)

var (
	// errors
	ErrNotFound         = errors.New("visitor not found")
	ErrEmailExists      = errors.New("a visitor with this email already exists")
	ErrRecordNotFound   = errors.New("training record not found")
	ErrAlreadySignedOut = errors.New("visitor is already signed out")
	ErrAmbiguousMatch   = errors.New("several on-site visitors match that name; sign out by id instead")
	ErrTrainingRequired = errors.New("training must be completed before signing in")
)

type (
	Repository interface {
		CreateVisitor(ctx context.Context, vis Visitor, exec ...core.DBExecutor) (Visitor, error)
		GetVisitor(ctx context.Context, filter GetFilter) (Visitor, error)
		UpdateVisitor(ctx context.Context, vis Visitor, exec ...core.DBExecutor) (Visitor, error)
		// QueryVisitors applies AND semantics on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// Visitor.FirstName, Visitor.LastName, Visitor.Company or Visitor.Email.
		QueryVisitors(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Visitor, error)
		GetTrainingRecord(ctx context.Context, visitorID int, plant Plant) (TrainingRecord, error)
		CreateTrainingRecord(ctx context.Context, rec TrainingRecord, exec ...core.DBExecutor) (TrainingRecord, error)
		UpdateTrainingRecord(ctx context.Context, rec TrainingRecord, exec ...core.DBExecutor) (TrainingRecord, error)
		GetStats(ctx context.Context) (Stats, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		staff   *staff.Directory
		clock   core.Clock
		logger  core.Logger
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, dir *staff.Directory, clock core.Clock, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		staff:   dir,
		clock:   clock,
		logger:  logger,
		conf:    conf,
	}
}

// Check runs the training gate for the submitted identity and plant.
// The visitor profile is always reconciled to the submitted values, even when
// no training is required. A missing visitor or training record is
// provisioned in not-yet-completed state.
func (svc *Service) Check(ctx context.Context, ci CheckIn) (GateResult, error) {
	if err := ci.Validate(); err != nil {
		return GateResult{}, err
	}
	now := svc.clock.Now().UTC()

	vis, err := svc.repo.GetVisitor(ctx, GetFilter{Email: ci.Email})
	if err != nil {
		if err != ErrNotFound {
			return GateResult{}, err
		}
		// provision off-site; presence starts with an explicit sign-in
		vis = Visitor{
			FirstName:   ci.FirstName,
			LastName:    ci.LastName,
			Company:     ci.Company,
			Email:       ci.Email,
			Phone:       ci.Phone,
			Plant:       ci.Plant,
			MeetingWith: ci.MeetingWith,
			IsEmployee:  ci.IsEmployee,
			SignedOutAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if vis, err = svc.repo.CreateVisitor(ctx, vis); err != nil {
			return GateResult{}, err
		}
		if _, err = svc.ensureTrainingRecord(ctx, vis.ID, ci.Plant); err != nil {
			return GateResult{}, err
		}
		return GateResult{
			Status:        "new",
			NeedsTraining: !ci.IsEmployee,
			OnSite:        false,
			Visitor:       vis,
		}, nil
	}

	vis.FirstName = ci.FirstName
	vis.LastName = ci.LastName
	vis.Company = ci.Company
	vis.Phone = ci.Phone
	vis.Plant = ci.Plant
	vis.MeetingWith = ci.MeetingWith
	vis.IsEmployee = ci.IsEmployee
	vis.UpdatedAt = now
	if vis, err = svc.repo.UpdateVisitor(ctx, vis); err != nil {
		return GateResult{}, err
	}

	rec, err := svc.ensureTrainingRecord(ctx, vis.ID, ci.Plant)
	if err != nil {
		return GateResult{}, err
	}
	return GateResult{
		Status:        "existing",
		NeedsTraining: !ci.IsEmployee && !rec.TrainingCompleted,
		OnSite:        vis.OnSite(),
		Visitor:       vis,
	}, nil
}

func (svc *Service) ensureTrainingRecord(ctx context.Context, visitorID int, plant Plant) (TrainingRecord, error) {
	rec, err := svc.repo.GetTrainingRecord(ctx, visitorID, plant)
	if err == nil {
		return rec, nil
	}
	if err != ErrRecordNotFound {
		return TrainingRecord{}, err
	}
	now := svc.clock.Now().UTC()
	return svc.repo.CreateTrainingRecord(ctx, TrainingRecord{
		VisitorID: visitorID,
		Plant:     plant,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// RecordVideoProgress marks the plant's training video watched once playback
// reaches the configured threshold or an explicit ended signal. Repeated
// reports converge to VideoWatched = true; below-threshold reports are
// accepted and ignored.
func (svc *Service) RecordVideoProgress(ctx context.Context, vp VideoProgress) (TrainingRecord, error) {
	if err := vp.Validate(); err != nil {
		return TrainingRecord{}, err
	}

	vis, err := svc.repo.GetVisitor(ctx, GetFilter{Email: vp.Email})
	if err != nil {
		return TrainingRecord{}, err
	}
	rec, err := svc.ensureTrainingRecord(ctx, vis.ID, vp.Plant)
	if err != nil {
		return TrainingRecord{}, err
	}

	completed := vp.Ended
	if !svc.conf.Training.RequireEnded {
		completed = completed || vp.Percent >= svc.conf.Training.VideoThreshold
	}
	if !completed || rec.VideoWatched {
		return rec, nil
	}

	now := svc.clock.Now().UTC()
	rec.VideoWatched = true
	rec.VideoWatchedAt = &now
	rec.UpdatedAt = now
	return svc.repo.UpdateTrainingRecord(ctx, rec)
}

// SubmitQuiz records a quiz attempt and decides pass/fail server-side.
// Only a score of exactly PassingScore completes training; the legacy
// visitor-level flag is mirrored on pass for consumers still reading it.
func (svc *Service) SubmitQuiz(ctx context.Context, qs QuizSubmission) (TrainingRecord, error) {
	if err := qs.Validate(); err != nil {
		return TrainingRecord{}, err
	}

	vis, err := svc.repo.GetVisitor(ctx, GetFilter{Email: qs.Email})
	if err != nil {
		return TrainingRecord{}, err
	}
	// the gate creates the record ahead of the quiz; absence is a
	// sequencing violation and is reported as not found
	rec, err := svc.repo.GetTrainingRecord(ctx, vis.ID, qs.Plant)
	if err != nil {
		return TrainingRecord{}, err
	}

	now := svc.clock.Now().UTC()
	rec.QuizScore = qs.Score
	rec.QuizPassed = qs.Score == PassingScore
	rec.QuizCompletedAt = &now
	if rec.QuizPassed {
		rec.TrainingCompleted = true
		rec.CompletedAt = &now
	}
	rec.UpdatedAt = now
	if rec, err = svc.repo.UpdateTrainingRecord(ctx, rec); err != nil {
		return TrainingRecord{}, err
	}

	if rec.TrainingCompleted && !vis.TrainingCompleted {
		vis.TrainingCompleted = true
		vis.TrainingDate = &now
		vis.UpdatedAt = now
		if _, err = svc.repo.UpdateVisitor(ctx, vis); err != nil {
			return TrainingRecord{}, err
		}
	}
	return rec, nil
}

// SignIn transitions the visitor to on-site. It refuses unless the training
// gate is satisfied for the visitor's plant; employees bypass the gate by
// policy. Re-entry from on-site overwrites the prior session start.
func (svc *Service) SignIn(ctx context.Context, req SignInRequest) (Visitor, error) {
	if err := req.Validate(); err != nil {
		return Visitor{}, err
	}

	vis, err := svc.repo.GetVisitor(ctx, GetFilter{Email: req.Email})
	if err != nil {
		return Visitor{}, err
	}

	if !vis.IsEmployee {
		rec, err := svc.repo.GetTrainingRecord(ctx, vis.ID, vis.Plant)
		if err != nil {
			if err == ErrRecordNotFound {
				return Visitor{}, ErrTrainingRequired
			}
			return Visitor{}, err
		}
		if !rec.TrainingCompleted {
			return Visitor{}, ErrTrainingRequired
		}
	}

	now := svc.clock.Now().UTC()
	vis.SignedInAt = now
	vis.SignedOutAt = nil
	vis.UpdatedAt = now
	if vis, err = svc.repo.UpdateVisitor(ctx, vis); err != nil {
		return Visitor{}, err
	}

	// best effort; never blocks the transition
	if msg := svc.buildNotification(notifSignIn, vis); msg != nil {
		svc.mailSvc.SendMessages(msg)
	}
	return vis, nil
}

// SignOutByID is the reliable sign-out path (admin use).
func (svc *Service) SignOutByID(ctx context.Context, id int) (Visitor, error) {
	vis, err := svc.repo.GetVisitor(ctx, GetFilter{ID: id})
	if err != nil {
		return Visitor{}, err
	}
	return svc.signOut(ctx, vis)
}

// SignOutByName signs out the on-site visitor best matching the submitted
// first and last name. Candidates are matched by case-insensitive substring;
// when several match, similarity ranking must produce a single best match or
// the request is rejected as ambiguous.
func (svc *Service) SignOutByName(ctx context.Context, req SignOutByName) (Visitor, error) {
	if err := req.Validate(); err != nil {
		return Visitor{}, err
	}

	onSite := true
	candidates, err := svc.repo.QueryVisitors(
		ctx,
		&QueryFilter{OnSite: &onSite},
		[]core.DBOrdering{{Field: "signed_in_at"}},
	)
	if err != nil {
		return Visitor{}, err
	}

	first := strings.ToLower(req.FirstName)
	last := strings.ToLower(req.LastName)
	matches := candidates[:0]
	for _, vis := range candidates {
		if strings.Contains(strings.ToLower(vis.FirstName), first) &&
			strings.Contains(strings.ToLower(vis.LastName), last) {
			matches = append(matches, vis)
		}
	}

	switch len(matches) {
	case 0:
		return Visitor{}, ErrNotFound
	case 1:
		return svc.signOut(ctx, matches[0])
	}

	best, ok := closestMatch(req.FirstName+" "+req.LastName, matches)
	if !ok {
		return Visitor{}, ErrAmbiguousMatch
	}
	return svc.signOut(ctx, best)
}

// closestMatch ranks candidates by name similarity against the submitted
// name and returns the winner only when it is strictly best.
func closestMatch(name string, candidates []Visitor) (Visitor, bool) {
	name = strings.ToLower(name)
	var best Visitor
	var bestRatio float64
	unique := false
	for _, vis := range candidates {
		ratio := difflib.NewMatcher(
			strings.Split(name, ""),
			strings.Split(strings.ToLower(vis.FullName()), ""),
		).QuickRatio()
		switch {
		case ratio > bestRatio:
			best, bestRatio, unique = vis, ratio, true
		case ratio == bestRatio:
			unique = false
		}
	}
	return best, unique
}

func (svc *Service) signOut(ctx context.Context, vis Visitor) (Visitor, error) {
	// report redundant sign-outs instead of silently succeeding
	if !vis.OnSite() {
		return Visitor{}, ErrAlreadySignedOut
	}

	now := svc.clock.Now().UTC()
	vis.SignedOutAt = &now
	vis.UpdatedAt = now
	vis, err := svc.repo.UpdateVisitor(ctx, vis)
	if err != nil {
		return Visitor{}, err
	}

	if msg := svc.buildNotification(notifSignOut, vis); msg != nil {
		svc.mailSvc.SendMessages(msg)
	}
	return vis, nil
}

// OvertimeSweep notifies the host contact of every visitor still on site
// past the daily cutoff. Invoked early it is a no-op. Each visitor is
// processed independently: a dispatch failure is logged and counted, never
// aborting the sweep, and presence state is never mutated.
func (svc *Service) OvertimeSweep(ctx context.Context) (SweepSummary, error) {
	loc, err := svc.conf.Site.Location()
	if err != nil {
		return SweepSummary{}, err
	}
	cutoffHour, cutoffMin, err := svc.conf.Site.CutoffClock()
	if err != nil {
		return SweepSummary{}, err
	}

	now := svc.clock.Now().In(loc)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), cutoffHour, cutoffMin, 0, 0, loc)
	if now.Before(cutoff) {
		return SweepSummary{}, nil
	}

	onSite := true
	visitors, err := svc.repo.QueryVisitors(ctx, &QueryFilter{OnSite: &onSite}, nil)
	if err != nil {
		return SweepSummary{}, err
	}

	summary := SweepSummary{VisitorsFound: len(visitors)}
	for _, vis := range visitors {
		msg := svc.buildNotification(notifOvertime, vis)
		if msg == nil {
			// no contact to notify
			continue
		}
		if err := svc.mailSvc.SendMessage(msg); err != nil {
			svc.logger.Error(fmt.Sprintf("overtime notification for %s: %v", vis.FullName(), err), err)
			summary.Failures++
			continue
		}
		summary.NotificationsSent++
	}
	return summary, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Visitor, error) {
	return svc.repo.GetVisitor(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Visitor, error) {
	return svc.repo.GetVisitor(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Visitor, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryVisitors(ctx, filter, []core.DBOrdering{{Field: "signed_in_at"}})
}

func (svc *Service) QueryOnSite(ctx context.Context) ([]Visitor, error) {
	onSite := true
	return svc.repo.QueryVisitors(ctx, &QueryFilter{OnSite: &onSite}, []core.DBOrdering{{Field: "signed_in_at"}})
}

func (svc *Service) QueryTrained(ctx context.Context) ([]Visitor, error) {
	trained := true
	return svc.repo.QueryVisitors(ctx, &QueryFilter{Trained: &trained}, []core.DBOrdering{{Field: "updated_at"}})
}

func (svc *Service) GetStats(ctx context.Context) (Stats, error) {
	return svc.repo.GetStats(ctx)
}

// notifications

type notifKind string

const (
	notifSignIn   notifKind = "signin"
	notifSignOut  notifKind = "signout"
	notifOvertime notifKind = "overtime"
)

var notifSubjects = map[notifKind]string{
	notifSignIn:   "Visitor Sign-In",
	notifSignOut:  "Visitor Sign-Out",
	notifOvertime: "Late Visitor Alert",
}

type notificationData struct {
	FirstName   string
	LastName    string
	Plant       Plant
	Email       string
	Phone       string
	SignedInAt  string
	SignedOutAt string
	Cutoff      string
}

// buildNotification resolves the visitor's host contact and assembles the
// message; it returns nil when there is nobody to notify.
func (svc *Service) buildNotification(kind notifKind, vis Visitor) *core.EmailMessage {
	if vis.MeetingWith == "" {
		return nil
	}
	contact, ok := svc.staff.Resolve(vis.MeetingWith)
	if !ok {
		return nil
	}

	loc, err := svc.conf.Site.Location()
	if err != nil {
		svc.logger.Error(fmt.Sprintf("loading site time zone: %v", err), err)
		loc = time.UTC
	}
	const layout = "Jan 2, 2006 3:04 PM MST"

	data := notificationData{
		FirstName:  vis.FirstName,
		LastName:   vis.LastName,
		Plant:      vis.Plant,
		Email:      vis.Email,
		Phone:      vis.Phone,
		SignedInAt: vis.SignedInAt.In(loc).Format(layout),
		Cutoff:     svc.conf.Site.OvertimeCutoff,
	}
	if vis.SignedOutAt != nil {
		data.SignedOutAt = vis.SignedOutAt.In(loc).Format(layout)
	}

	return &core.EmailMessage{
		To:           []mail.Address{contact},
		Subject:      fmt.Sprintf("%s: %s", notifSubjects[kind], vis.FullName()),
		TemplateName: string(kind),
		TemplateData: data,
	}
}
