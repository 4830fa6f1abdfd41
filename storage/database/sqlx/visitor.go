package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/visitor"
)

type visitorRepository struct {
	db *sqlx.DB
}

var _ visitor.Repository = (*visitorRepository)(nil) // interface compliance check

func NewVisitorRepository(db *sql.DB, driverName string) *visitorRepository {
	return &visitorRepository{db: sqlx.NewDb(db, driverName)}
}

func (repo visitorRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

type visitorRow struct {
	ID                int         `db:"id"`
	FirstName         string      `db:"first_name"`
	LastName          string      `db:"last_name"`
	Company           null.String `db:"company"`
	Email             string      `db:"email"`
	Phone             string      `db:"phone"`
	Plant             string      `db:"plant"`
	MeetingWith       null.String `db:"meeting_with"`
	IsEmployee        bool        `db:"is_employee"`
	TrainingCompleted bool        `db:"training_completed"`
	TrainingDate      null.Time   `db:"training_date"`
	SignedInAt        null.Time   `db:"signed_in_at"`
	SignedOutAt       null.Time   `db:"signed_out_at"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

type trainingRecordRow struct {
	ID                string    `db:"id"`
	VisitorID         int       `db:"visitor_id"`
	Plant             string    `db:"plant"`
	VideoWatched      bool      `db:"video_watched"`
	VideoWatchedAt    null.Time `db:"video_watched_at"`
	QuizPassed        bool      `db:"quiz_passed"`
	QuizScore         int       `db:"quiz_score"`
	QuizCompletedAt   null.Time `db:"quiz_completed_at"`
	TrainingCompleted bool      `db:"training_completed"`
	CompletedAt       null.Time `db:"completed_at"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (repo visitorRepository) row(vis visitor.Visitor) visitorRow {
	return visitorRow{
		ID:                vis.ID,
		FirstName:         vis.FirstName,
		LastName:          vis.LastName,
		Company:           null.NewString(vis.Company, vis.Company != ""),
		Email:             vis.Email,
		Phone:             vis.Phone,
		Plant:             string(vis.Plant),
		MeetingWith:       null.NewString(vis.MeetingWith, vis.MeetingWith != ""),
		IsEmployee:        vis.IsEmployee,
		TrainingCompleted: vis.TrainingCompleted,
		TrainingDate:      null.TimeFromPtr(vis.TrainingDate),
		SignedInAt:        null.NewTime(vis.SignedInAt.UTC(), !vis.SignedInAt.IsZero()),
		SignedOutAt:       null.TimeFromPtr(vis.SignedOutAt),
		CreatedAt:         vis.CreatedAt.UTC(),
		UpdatedAt:         vis.UpdatedAt.UTC(),
	}
}

func (repo visitorRepository) unrow(row visitorRow) visitor.Visitor {
	return visitor.Visitor{
		ID:                row.ID,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		Company:           row.Company.String,
		Email:             row.Email,
		Phone:             row.Phone,
		Plant:             visitor.Plant(row.Plant),
		MeetingWith:       row.MeetingWith.String,
		IsEmployee:        row.IsEmployee,
		TrainingCompleted: row.TrainingCompleted,
		TrainingDate:      row.TrainingDate.Ptr(),
		SignedInAt:        row.SignedInAt.Time,
		SignedOutAt:       row.SignedOutAt.Ptr(),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func (repo visitorRepository) recordRow(rec visitor.TrainingRecord) trainingRecordRow {
	return trainingRecordRow{
		ID:                rec.ID,
		VisitorID:         rec.VisitorID,
		Plant:             string(rec.Plant),
		VideoWatched:      rec.VideoWatched,
		VideoWatchedAt:    null.TimeFromPtr(rec.VideoWatchedAt),
		QuizPassed:        rec.QuizPassed,
		QuizScore:         rec.QuizScore,
		QuizCompletedAt:   null.TimeFromPtr(rec.QuizCompletedAt),
		TrainingCompleted: rec.TrainingCompleted,
		CompletedAt:       null.TimeFromPtr(rec.CompletedAt),
		CreatedAt:         rec.CreatedAt.UTC(),
		UpdatedAt:         rec.UpdatedAt.UTC(),
	}
}

func (repo visitorRepository) unrecordRow(row trainingRecordRow) visitor.TrainingRecord {
	return visitor.TrainingRecord{
		ID:                row.ID,
		VisitorID:         row.VisitorID,
		Plant:             visitor.Plant(row.Plant),
		VideoWatched:      row.VideoWatched,
		VideoWatchedAt:    row.VideoWatchedAt.Ptr(),
		QuizPassed:        row.QuizPassed,
		QuizScore:         row.QuizScore,
		QuizCompletedAt:   row.QuizCompletedAt.Ptr(),
		TrainingCompleted: row.TrainingCompleted,
		CompletedAt:       row.CompletedAt.Ptr(),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" to the given domain error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo visitorRepository) CreateVisitor(ctx context.Context, vis visitor.Visitor, exec ...core.DBExecutor) (visitor.Visitor, error) {
	row := repo.row(vis)
	err := repo.getExec(exec).QueryRowContext(
		ctx,
		`INSERT INTO visitor (
			first_name, last_name, company, email, phone, plant, meeting_with, is_employee,
			training_completed, training_date, signed_in_at, signed_out_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		row.FirstName, row.LastName, row.Company, row.Email, row.Phone, row.Plant,
		row.MeetingWith, row.IsEmployee, row.TrainingCompleted, row.TrainingDate,
		row.SignedInAt, row.SignedOutAt, row.CreatedAt, row.UpdatedAt,
	).Scan(&row.ID)
	if err != nil {
		return visitor.Visitor{}, errors.Wrap(err, "inserting visitor")
	}
	return repo.unrow(row), nil
}

func (repo visitorRepository) GetVisitor(ctx context.Context, filter visitor.GetFilter) (visitor.Visitor, error) {
	var row visitorRow
	var err error
	if filter.ID != 0 {
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM visitor WHERE id = $1`, filter.ID)
	} else {
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM visitor WHERE email = $1`, filter.Email)
	}
	if err != nil {
		return visitor.Visitor{}, trapNoRowsErr(err, visitor.ErrNotFound, "finding visitor")
	}
	return repo.unrow(row), nil
}

func (repo visitorRepository) UpdateVisitor(ctx context.Context, vis visitor.Visitor, exec ...core.DBExecutor) (visitor.Visitor, error) {
	row := repo.row(vis)
	res, err := repo.getExec(exec).ExecContext(
		ctx,
		`UPDATE visitor SET
			first_name = $1, last_name = $2, company = $3, email = $4, phone = $5, plant = $6,
			meeting_with = $7, is_employee = $8, training_completed = $9, training_date = $10,
			signed_in_at = $11, signed_out_at = $12, updated_at = $13
		WHERE id = $14`,
		row.FirstName, row.LastName, row.Company, row.Email, row.Phone, row.Plant,
		row.MeetingWith, row.IsEmployee, row.TrainingCompleted, row.TrainingDate,
		row.SignedInAt, row.SignedOutAt, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return visitor.Visitor{}, errors.Wrap(err, "updating visitor")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return visitor.Visitor{}, visitor.ErrNotFound
	}
	return repo.unrow(row), nil
}

func (repo visitorRepository) QueryVisitors(ctx context.Context, filter *visitor.QueryFilter, ordering []core.DBOrdering) ([]visitor.Visitor, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// visitors with a name, company or email matching the search keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf(
				"(first_name ILIKE %[1]s OR last_name ILIKE %[1]s OR company ILIKE %[1]s OR email ILIKE %[1]s)", val))
		}
		if filter.Plant != "" {
			conds = append(conds, "plant = "+arg(filter.Plant))
		}
		if filter.OnSite != nil {
			if *filter.OnSite {
				conds = append(conds, "signed_out_at IS NULL")
			} else {
				conds = append(conds, "signed_out_at IS NOT NULL")
			}
		}
		// trained means at least one completed per-plant training record;
		// the legacy visitor-level flag is deliberately not consulted
		if filter.Trained != nil {
			sub := "EXISTS (SELECT 1 FROM training_record tr WHERE tr.visitor_id = visitor.id AND tr.training_completed)"
			if !*filter.Trained {
				sub = "NOT " + sub
			}
			conds = append(conds, sub)
		}
	}

	query := `SELECT * FROM visitor`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []visitorRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying visitors")
	}
	visitors := make([]visitor.Visitor, 0, len(rows))
	for _, row := range rows {
		visitors = append(visitors, repo.unrow(row))
	}
	return visitors, nil
}

func (repo visitorRepository) GetTrainingRecord(ctx context.Context, visitorID int, plant visitor.Plant) (visitor.TrainingRecord, error) {
	var row trainingRecordRow
	err := repo.db.GetContext(
		ctx, &row,
		`SELECT * FROM training_record WHERE visitor_id = $1 AND plant = $2`,
		visitorID, string(plant),
	)
	if err != nil {
		return visitor.TrainingRecord{}, trapNoRowsErr(err, visitor.ErrRecordNotFound, "finding training record")
	}
	return repo.unrecordRow(row), nil
}

func (repo visitorRepository) CreateTrainingRecord(ctx context.Context, rec visitor.TrainingRecord, exec ...core.DBExecutor) (visitor.TrainingRecord, error) {
	rec.ID = uuid.New().String()
	row := repo.recordRow(rec)
	// upsert; the (visitor_id, plant) unique constraint is the source of
	// truth for the one-record-per-pair invariant under concurrent gates
	err := repo.getExec(exec).QueryRowContext(
		ctx,
		`INSERT INTO training_record (
			id, visitor_id, plant, video_watched, video_watched_at, quiz_passed, quiz_score,
			quiz_completed_at, training_completed, completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (visitor_id, plant) DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id`,
		row.ID, row.VisitorID, row.Plant, row.VideoWatched, row.VideoWatchedAt,
		row.QuizPassed, row.QuizScore, row.QuizCompletedAt, row.TrainingCompleted,
		row.CompletedAt, row.CreatedAt, row.UpdatedAt,
	).Scan(&row.ID)
	if err != nil {
		return visitor.TrainingRecord{}, errors.Wrap(err, "inserting training record")
	}
	return repo.unrecordRow(row), nil
}

func (repo visitorRepository) UpdateTrainingRecord(ctx context.Context, rec visitor.TrainingRecord, exec ...core.DBExecutor) (visitor.TrainingRecord, error) {
	row := repo.recordRow(rec)
	res, err := repo.getExec(exec).ExecContext(
		ctx,
		`UPDATE training_record SET
			video_watched = $1, video_watched_at = $2, quiz_passed = $3, quiz_score = $4,
			quiz_completed_at = $5, training_completed = $6, completed_at = $7, updated_at = $8
		WHERE id = $9`,
		row.VideoWatched, row.VideoWatchedAt, row.QuizPassed, row.QuizScore,
		row.QuizCompletedAt, row.TrainingCompleted, row.CompletedAt, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return visitor.TrainingRecord{}, errors.Wrap(err, "updating training record")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return visitor.TrainingRecord{}, visitor.ErrRecordNotFound
	}
	return repo.unrecordRow(row), nil
}

func (repo visitorRepository) GetStats(ctx context.Context) (visitor.Stats, error) {
	var counts struct {
		TotalVisitors        int `db:"total_visitors"`
		TotalTrainingRecords int `db:"total_training_records"`
		CompletedTraining    int `db:"completed_training"`
	}
	err := repo.db.GetContext(
		ctx, &counts,
		`SELECT
			(SELECT COUNT(*) FROM visitor) AS total_visitors,
			(SELECT COUNT(*) FROM training_record) AS total_training_records,
			(SELECT COUNT(*) FROM training_record WHERE training_completed) AS completed_training`,
	)
	if err != nil {
		return visitor.Stats{}, errors.Wrap(err, "querying stats")
	}

	stats := visitor.Stats{
		TotalVisitors:        counts.TotalVisitors,
		TotalTrainingRecords: counts.TotalTrainingRecords,
		CompletedTraining:    counts.CompletedTraining,
	}
	if stats.TotalTrainingRecords > 0 {
		stats.CompletionRate = 100 * float64(stats.CompletedTraining) / float64(stats.TotalTrainingRecords)
	}
	return stats, nil
}
