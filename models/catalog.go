package models

import "github.com/shopspring/decimal"

type Mentor struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Name               string          `json:"name"`
	Bio                string          `json:"bio"`
	Skills             []string        `json:"skills"`
	Specializations    []string        `json:"specializations"`
	Streams            []string        `json:"streams"` // PCM, PCB, Commerce, Arts
	HourlyRate         decimal.Decimal `json:"hourly_rate"`
	Rating             float64         `json:"rating"`
	AvailabilityStatus string          `json:"availability_status"` // available, busy, offline
	ExperienceYears    int             `json:"experience_years"`
}

type Course struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Streams       []string `json:"streams"`
	Level         string   `json:"level"` // beginner, intermediate, advanced
	Tags          []string `json:"tags"`
	DurationWeeks int      `json:"duration_weeks"`
}

// Recommendation is one career path suggested by the assistant.
type Recommendation struct {
	Career      string   `json:"career"`
	Reason      string   `json:"reason"`
	Courses     []string `json:"courses"`
	Exams       []string `json:"exams"`
	MatchScore  int      `json:"match_score"`
	NextActions []string `json:"next_actions"`
}

// StudentProfile is the input to recommendations.
type StudentProfile struct {
	Class     string   `json:"class"` // 10, 11, 12, graduate
	Stream    string   `json:"stream"`
	Interests []string `json:"interests"`
	Strengths []string `json:"strengths"`
	Goals     string   `json:"goals"`
	Location  string   `json:"location,omitempty"`
}

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}
