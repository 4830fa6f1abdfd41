package visitor

import (
	"strings"
	"time"

	"github.com/sitepass/sitepass/core"
)

// PassingScore is the only quiz score that completes training.
// Ten true/false questions, 10 points each; no partial credit.
const PassingScore = 100

// Plant is one of the fixed site locations requiring independent training.
type Plant string

const (
	PlantCement    Plant = "Cement"
	PlantDelta     Plant = "Delta"
	PlantHoban     Plant = "Hoban"
	PlantPoteet    Plant = "Poteet"
	PlantRioMedina Plant = "Rio Medina"
	PlantSolms     Plant = "Solms"
	PlantAggregate Plant = "Aggregate"
	PlantRMC       Plant = "RMC"
)

var AllPlants = []Plant{
	PlantCement,
	PlantDelta,
	PlantHoban,
	PlantPoteet,
	PlantRioMedina,
	PlantSolms,
	PlantAggregate,
	PlantRMC,
}

func (p Plant) Valid() bool {
	for _, known := range AllPlants {
		if p == known {
			return true
		}
	}
	return false
}

// Visitor is a person (employee, contractor or guest) signing in at a plant.
// Identity is keyed by email across sessions: the record is created on first
// check-in and refreshed in place afterwards, never recreated.
type Visitor struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Plant       Plant  `json:"plant"`
	MeetingWith string `json:"meeting_with,omitempty"`
	IsEmployee  bool   `json:"is_employee"`

	// Legacy flat training state, mirrored from the per-plant
	// TrainingRecord on quiz pass. The gate never reads it.
	TrainingCompleted bool       `json:"training_completed"`
	TrainingDate      *time.Time `json:"training_date,omitempty"` // UTC

	SignedInAt  time.Time  `json:"signed_in_at"`            // UTC
	SignedOutAt *time.Time `json:"signed_out_at,omitempty"` // UTC; nil means on site
	CreatedAt   time.Time  `json:"created_at"`              // UTC
	UpdatedAt   time.Time  `json:"updated_at"`              // UTC
}

// OnSite reports presence; it is determined solely by SignedOutAt.
func (v *Visitor) OnSite() bool { return v.SignedOutAt == nil }

func (v *Visitor) FullName() string {
	return strings.TrimSpace(v.FirstName + " " + v.LastName)
}

// TrainingRecord tracks video/quiz progress per (visitor, plant) pair.
// At most one record exists per pair; records are never deleted.
type TrainingRecord struct {
	ID        string `json:"id"`
	VisitorID int    `json:"visitor_id"`
	Plant     Plant  `json:"plant"`

	VideoWatched   bool       `json:"video_watched"`
	VideoWatchedAt *time.Time `json:"video_watched_at,omitempty"` // UTC

	QuizPassed      bool       `json:"quiz_passed"`
	QuizScore       int        `json:"quiz_score"`
	QuizCompletedAt *time.Time `json:"quiz_completed_at,omitempty"` // UTC

	TrainingCompleted bool       `json:"training_completed"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"` // UTC

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// CheckIn contains the identity data submitted at the kiosk. It drives the
// training gate and always reconciles the visitor profile.
type CheckIn struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Company     string `json:"company"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Plant       Plant  `json:"plant" validate:"required,plant"`
	MeetingWith string `json:"meeting_with"`
	IsEmployee  bool   `json:"is_employee"`
}

func (ci *CheckIn) Validate() error {
	ci.FirstName = core.CleanString(ci.FirstName)
	ci.LastName = core.CleanString(ci.LastName)
	ci.Company = core.CleanString(ci.Company)
	ci.Email = core.CleanString(ci.Email, true /* lower */)
	ci.Phone = core.CleanString(ci.Phone)
	ci.MeetingWith = core.CleanString(ci.MeetingWith)
	return core.Validate.Struct(ci)
}

// GateResult is the training gate's answer for a (visitor, plant) pair.
type GateResult struct {
	Status        string  `json:"status"` // "new" | "existing"
	NeedsTraining bool    `json:"needs_training"`
	OnSite        bool    `json:"on_site"`
	Visitor       Visitor `json:"visitor"`
}

// VideoProgress reports client-observed playback of a plant's training video.
type VideoProgress struct {
	Email   string `json:"email" validate:"required,email"`
	Plant   Plant  `json:"plant" validate:"required,plant"`
	Percent int    `json:"percent" validate:"min=0,max=100"`
	Ended   bool   `json:"ended"`
}

func (vp *VideoProgress) Validate() error {
	vp.Email = core.CleanString(vp.Email, true /* lower */)
	return core.Validate.Struct(vp)
}

// QuizSubmission carries a submitted safety-quiz score. The score is an
// integer percentage computed by the caller; the pass rule is enforced
// server-side regardless.
type QuizSubmission struct {
	Email string `json:"email" validate:"required,email"`
	Plant Plant  `json:"plant" validate:"required,plant"`
	Score int    `json:"score" validate:"min=0,max=100"`
}

func (qs *QuizSubmission) Validate() error {
	qs.Email = core.CleanString(qs.Email, true /* lower */)
	return core.Validate.Struct(qs)
}

type SignInRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *SignInRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}

// SignOutByName is the self-service sign-out path; best effort by design,
// the id-based path is the reliable one.
type SignOutByName struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

func (r *SignOutByName) Validate() error {
	r.FirstName = core.CleanString(r.FirstName)
	r.LastName = core.CleanString(r.LastName)
	return core.Validate.Struct(r)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Plant   string `query:"plant"`
	OnSite  *bool  `query:"on_site"`
	Trained *bool  `query:"trained"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Plant == "" && qf.OnSite == nil && qf.Trained == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Plant = core.CleanString(qf.Plant)
}

// GetFilter selects a single visitor by ID or by email.
type GetFilter struct {
	ID    int
	Email string
}

// Stats summarizes training completion across all visitors.
type Stats struct {
	TotalVisitors        int     `json:"total_visitors"`
	TotalTrainingRecords int     `json:"total_training_records"`
	CompletedTraining    int     `json:"completed_training"`
	CompletionRate       float64 `json:"completion_rate"`
}

// SweepSummary reports an overtime sweep run.
type SweepSummary struct {
	VisitorsFound     int `json:"visitors_found"`
	NotificationsSent int `json:"notifications_sent"`
	Failures          int `json:"failures"`
}
