package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/sitepass/sitepass/core"
	"github.com/sitepass/sitepass/core/visitor"
)

var pkCount int

type visitorRepository struct {
	visitors *visitorTable
	training *trainingTable
}

var _ visitor.Repository = (*visitorRepository)(nil) // interface compliance check

func NewVisitorRepository(db *DB) *visitorRepository {
	return &visitorRepository{visitors: db.visitor, training: db.training}
}

func (repo *visitorRepository) query() []visitor.Visitor {
	visitors := make([]visitor.Visitor, 0, len(repo.visitors.table))
	for _, vis := range repo.visitors.table {
		visitors = append(visitors, *vis)
	}
	return visitors
}

func (repo *visitorRepository) CreateVisitor(ctx context.Context, vis visitor.Visitor, exec ...core.DBExecutor) (visitor.Visitor, error) {
	repo.visitors.Lock()
	defer repo.visitors.Unlock()

	for _, existing := range repo.visitors.table {
		if existing.Email == vis.Email {
			return visitor.Visitor{}, visitor.ErrEmailExists
		}
	}
	pkCount++
	vis.ID = pkCount
	repo.visitors.table[vis.ID] = &vis
	return vis, nil
}

func (repo *visitorRepository) GetVisitor(ctx context.Context, filter visitor.GetFilter) (visitor.Visitor, error) {
	repo.visitors.RLock()
	defer repo.visitors.RUnlock()

	if filter.ID != 0 {
		if vis, ok := repo.visitors.table[filter.ID]; ok {
			return *vis, nil
		}
		return visitor.Visitor{}, visitor.ErrNotFound
	}
	for _, vis := range repo.visitors.table {
		if vis.Email == filter.Email {
			return *vis, nil
		}
	}
	return visitor.Visitor{}, visitor.ErrNotFound
}

func (repo *visitorRepository) UpdateVisitor(ctx context.Context, vis visitor.Visitor, exec ...core.DBExecutor) (visitor.Visitor, error) {
	repo.visitors.Lock()
	defer repo.visitors.Unlock()

	if _, ok := repo.visitors.table[vis.ID]; !ok {
		return visitor.Visitor{}, visitor.ErrNotFound
	}
	repo.visitors.table[vis.ID] = &vis
	return vis, nil
}

func (repo *visitorRepository) QueryVisitors(ctx context.Context, filter *visitor.QueryFilter, ordering []core.DBOrdering) ([]visitor.Visitor, error) {
	repo.visitors.RLock()
	visitors := repo.query()
	repo.visitors.RUnlock()

	if filter != nil && !filter.IsEmpty() {
		filtered := visitors[:0]
		for _, vis := range visitors {
			if repo.matches(vis, filter) {
				filtered = append(filtered, vis)
			}
		}
		visitors = filtered
	}

	if len(ordering) > 0 {
		repo.sortBy(visitors, ordering[0])
	}
	return visitors, nil
}

func (repo *visitorRepository) matches(vis visitor.Visitor, filter *visitor.QueryFilter) bool {
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(vis.FirstName), kw) &&
			!strings.Contains(strings.ToLower(vis.LastName), kw) &&
			!strings.Contains(strings.ToLower(vis.Company), kw) &&
			!strings.Contains(strings.ToLower(vis.Email), kw) {
			return false
		}
	}
	if filter.Plant != "" && string(vis.Plant) != filter.Plant {
		return false
	}
	if filter.OnSite != nil && vis.OnSite() != *filter.OnSite {
		return false
	}
	if filter.Trained != nil && repo.isTrained(vis.ID) != *filter.Trained {
		return false
	}
	return true
}

// isTrained consults the per-plant records, never the legacy visitor flag.
func (repo *visitorRepository) isTrained(visitorID int) bool {
	repo.training.RLock()
	defer repo.training.RUnlock()

	for _, rec := range repo.training.table {
		if rec.VisitorID == visitorID && rec.TrainingCompleted {
			return true
		}
	}
	return false
}

func (repo *visitorRepository) sortBy(visitors []visitor.Visitor, ord core.DBOrdering) {
	sort.SliceStable(visitors, func(i, j int) bool {
		var before bool
		switch ord.Field {
		case "updated_at":
			before = visitors[i].UpdatedAt.Before(visitors[j].UpdatedAt)
		default: // signed_in_at
			before = visitors[i].SignedInAt.Before(visitors[j].SignedInAt)
		}
		if ord.Ascending {
			return before
		}
		return !before
	})
}

func (repo *visitorRepository) GetTrainingRecord(ctx context.Context, visitorID int, plant visitor.Plant) (visitor.TrainingRecord, error) {
	repo.training.RLock()
	defer repo.training.RUnlock()

	for _, rec := range repo.training.table {
		if rec.VisitorID == visitorID && rec.Plant == plant {
			return *rec, nil
		}
	}
	return visitor.TrainingRecord{}, visitor.ErrRecordNotFound
}

func (repo *visitorRepository) CreateTrainingRecord(ctx context.Context, rec visitor.TrainingRecord, exec ...core.DBExecutor) (visitor.TrainingRecord, error) {
	repo.training.Lock()
	defer repo.training.Unlock()

	// at most one record per (visitor, plant)
	for _, existing := range repo.training.table {
		if existing.VisitorID == rec.VisitorID && existing.Plant == rec.Plant {
			return *existing, nil
		}
	}
	rec.ID = uuid.New().String()
	repo.training.table[rec.ID] = &rec
	return rec, nil
}

func (repo *visitorRepository) UpdateTrainingRecord(ctx context.Context, rec visitor.TrainingRecord, exec ...core.DBExecutor) (visitor.TrainingRecord, error) {
	repo.training.Lock()
	defer repo.training.Unlock()

	if _, ok := repo.training.table[rec.ID]; !ok {
		return visitor.TrainingRecord{}, visitor.ErrRecordNotFound
	}
	repo.training.table[rec.ID] = &rec
	return rec, nil
}

func (repo *visitorRepository) GetStats(ctx context.Context) (visitor.Stats, error) {
	repo.visitors.RLock()
	totalVisitors := len(repo.visitors.table)
	repo.visitors.RUnlock()

	repo.training.RLock()
	defer repo.training.RUnlock()

	stats := visitor.Stats{
		TotalVisitors:        totalVisitors,
		TotalTrainingRecords: len(repo.training.table),
	}
	for _, rec := range repo.training.table {
		if rec.TrainingCompleted {
			stats.CompletedTraining++
		}
	}
	if stats.TotalTrainingRecords > 0 {
		stats.CompletionRate = 100 * float64(stats.CompletedTraining) / float64(stats.TotalTrainingRecords)
	}
	return stats, nil
}
