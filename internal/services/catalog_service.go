package services

import (
	"context"
	"errors"

	"mentorhub/internal/status"
	"mentorhub/internal/store"
	"mentorhub/models"

	"github.com/shopspring/decimal"
)

// CatalogService lists mentors, courses, events and study groups with the
// query filters applied in memory over the store's order.
type CatalogService struct {
	store store.Store
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

func (s *CatalogService) Mentors(ctx context.Context, q MentorQuery) ([]models.Mentor, error) {
	preds, err := q.Predicates()
	if err != nil {
		return nil, err
	}
	rows, err := s.store.Select(ctx, store.TableMentors, nil)
	if err != nil {
		return nil, storeError(err, "Failed to load mentors")
	}
	return Filter(mapRows(rows, mentorFromRow), preds...), nil
}

func (s *CatalogService) Courses(ctx context.Context, q CourseQuery) ([]models.Course, error) {
	rows, err := s.store.Select(ctx, store.TableCourses, nil)
	if err != nil {
		return nil, storeError(err, "Failed to load courses")
	}
	return Filter(mapRows(rows, courseFromRow), q.Predicates()...), nil
}

func (s *CatalogService) Events(ctx context.Context, q EventQuery) ([]models.Event, error) {
	rows, err := s.store.Select(ctx, store.TableEvents, nil)
	if err != nil {
		return nil, storeError(err, "Failed to load events")
	}
	return Filter(mapRows(rows, eventFromRow), q.Predicates()...), nil
}

func (s *CatalogService) StudyGroups(ctx context.Context, q StudyGroupQuery) ([]models.StudyGroup, error) {
	rows, err := s.store.Select(ctx, store.TableStudyGroups, nil)
	if err != nil {
		return nil, storeError(err, "Failed to load study groups")
	}
	return Filter(mapRows(rows, studyGroupFromRow), q.Predicates()...), nil
}

func mapRows[T any](rows []store.Row, fn func(store.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}

func mentorFromRow(row store.Row) models.Mentor {
	return models.Mentor{
		ID:                 row.String("id"),
		UserID:             row.String("user_id"),
		Name:               row.String("name"),
		Bio:                row.String("bio"),
		Skills:             row.Strings("skills"),
		Specializations:    row.Strings("specializations"),
		Streams:            row.Strings("streams"),
		HourlyRate:         decimal.NewFromFloat(row.Float("hourly_rate")),
		Rating:             row.Float("rating"),
		AvailabilityStatus: row.String("availability_status"),
		ExperienceYears:    row.Int("experience_years"),
	}
}

func courseFromRow(row store.Row) models.Course {
	return models.Course{
		ID:            row.String("id"),
		Title:         row.String("title"),
		Description:   row.String("description"),
		Category:      row.String("category"),
		Streams:       row.Strings("streams"),
		Level:         row.String("level"),
		Tags:          row.Strings("tags"),
		DurationWeeks: row.Int("duration_weeks"),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, status.ErrNotFound)
}
