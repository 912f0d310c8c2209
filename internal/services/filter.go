package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mentorhub/internal/status"
	"mentorhub/models"

	"github.com/shopspring/decimal"
)

// Predicate selects items of type T.
type Predicate[T any] func(T) bool

// Filter keeps the items matching every predicate, in input order. A nil
// predicate is skipped.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	active := slices.DeleteFunc(slices.Clone(preds), func(p Predicate[T]) bool { return p == nil })
	out := make([]T, 0, len(items))
	for _, item := range items {
		keep := true
		for _, p := range active {
			if !p(item) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}

// containsFold is a case-insensitive substring match.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyContainsFold(values []string, needle string) bool {
	return slices.ContainsFunc(values, func(v string) bool { return containsFold(v, needle) })
}

func hasFold(values []string, want string) bool {
	return slices.ContainsFunc(values, func(v string) bool { return strings.EqualFold(v, want) })
}

// RateBucket is an inclusive hourly rate range. Max is nil for open-ended
// buckets such as "1000+".
type RateBucket struct {
	Min decimal.Decimal
	Max *decimal.Decimal
}

// ParseRateBucket accepts "min-max" and "min+".
func ParseRateBucket(s string) (RateBucket, error) {
	s = strings.TrimSpace(s)
	invalid := fmt.Errorf("%w: rate bucket %q", status.ErrValidation, s)
	if lo, ok := strings.CutSuffix(s, "+"); ok {
		minRate, err := decimal.NewFromString(lo)
		if err != nil {
			return RateBucket{}, invalid
		}
		return RateBucket{Min: minRate}, nil
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return RateBucket{}, invalid
	}
	minRate, err := decimal.NewFromString(lo)
	if err != nil {
		return RateBucket{}, invalid
	}
	maxRate, err := decimal.NewFromString(hi)
	if err != nil || maxRate.LessThan(minRate) {
		return RateBucket{}, invalid
	}
	return RateBucket{Min: minRate, Max: &maxRate}, nil
}

func (b RateBucket) Contains(rate decimal.Decimal) bool {
	if rate.LessThan(b.Min) {
		return false
	}
	return b.Max == nil || !rate.GreaterThan(*b.Max)
}

type MentorQuery struct {
	Text           string
	Specialization string
	RateBucket     string
	MinRating      float64
	Availability   string
	Stream         string
}

// Predicates turns the set fields of q into mentor predicates.
func (q MentorQuery) Predicates() ([]Predicate[models.Mentor], error) {
	var preds []Predicate[models.Mentor]
	if text := strings.TrimSpace(q.Text); text != "" {
		preds = append(preds, func(m models.Mentor) bool {
			return containsFold(m.Name, text) || containsFold(m.Bio, text) ||
				anyContainsFold(m.Skills, text) || anyContainsFold(m.Specializations, text)
		})
	}
	if q.Specialization != "" {
		preds = append(preds, func(m models.Mentor) bool { return hasFold(m.Specializations, q.Specialization) })
	}
	if q.RateBucket != "" {
		bucket, err := ParseRateBucket(q.RateBucket)
		if err != nil {
			return nil, err
		}
		preds = append(preds, func(m models.Mentor) bool { return bucket.Contains(m.HourlyRate) })
	}
	if q.MinRating > 0 {
		preds = append(preds, func(m models.Mentor) bool { return m.Rating >= q.MinRating })
	}
	if q.Availability != "" {
		preds = append(preds, func(m models.Mentor) bool { return m.AvailabilityStatus == q.Availability })
	}
	if q.Stream != "" {
		preds = append(preds, func(m models.Mentor) bool { return hasFold(m.Streams, q.Stream) })
	}
	return preds, nil
}

type CourseQuery struct {
	Text     string
	Category string
	Stream   string
	Level    string
}

func (q CourseQuery) Predicates() []Predicate[models.Course] {
	var preds []Predicate[models.Course]
	if text := strings.TrimSpace(q.Text); text != "" {
		preds = append(preds, func(c models.Course) bool {
			return containsFold(c.Title, text) || containsFold(c.Description, text) || anyContainsFold(c.Tags, text)
		})
	}
	if q.Category != "" {
		preds = append(preds, func(c models.Course) bool { return strings.EqualFold(c.Category, q.Category) })
	}
	if q.Stream != "" {
		preds = append(preds, func(c models.Course) bool { return hasFold(c.Streams, q.Stream) })
	}
	if q.Level != "" {
		preds = append(preds, func(c models.Course) bool { return strings.EqualFold(c.Level, q.Level) })
	}
	return preds
}

type EventQuery struct {
	Text     string
	Category string
	Stream   string
	Online   *bool
}

func (q EventQuery) Predicates() []Predicate[models.Event] {
	var preds []Predicate[models.Event]
	if text := strings.TrimSpace(q.Text); text != "" {
		preds = append(preds, func(e models.Event) bool {
			return containsFold(e.Title, text) || containsFold(e.Description, text) || containsFold(e.Location, text)
		})
	}
	if q.Category != "" {
		preds = append(preds, func(e models.Event) bool { return strings.EqualFold(e.Category, q.Category) })
	}
	if q.Stream != "" {
		preds = append(preds, func(e models.Event) bool { return hasFold(e.Streams, q.Stream) })
	}
	if q.Online != nil {
		online := *q.Online
		preds = append(preds, func(e models.Event) bool { return e.IsOnline == online })
	}
	return preds
}

type StudyGroupQuery struct {
	Text    string
	Subject string
	Stream  string
}

func (q StudyGroupQuery) Predicates() []Predicate[models.StudyGroup] {
	var preds []Predicate[models.StudyGroup]
	if text := strings.TrimSpace(q.Text); text != "" {
		preds = append(preds, func(g models.StudyGroup) bool {
			return containsFold(g.Name, text) || containsFold(g.Description, text) || containsFold(g.Subject, text)
		})
	}
	if q.Subject != "" {
		preds = append(preds, func(g models.StudyGroup) bool { return strings.EqualFold(g.Subject, q.Subject) })
	}
	if q.Stream != "" {
		preds = append(preds, func(g models.StudyGroup) bool { return hasFold(g.Streams, q.Stream) })
	}
	return preds
}

// ParseMinRating reads an optional rating floor from a query string value.
func ParseMinRating(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 5 {
		return 0, fmt.Errorf("%w: min_rating %q", status.ErrValidation, s)
	}
	return v, nil
}
