package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"mentorhub/internal/auth"
	"mentorhub/internal/genai"
	"mentorhub/internal/status"
	"mentorhub/models"
	"mentorhub/monitoring"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/blake2b"
)

// Generator produces text, or JSON of the given schema when schema is non-nil.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema map[string]any) (genai.Result, error)
}

const (
	maxChatTurns     = 12
	fallbackChatText = "I'm having trouble answering right now. Meanwhile, browse mentors by your stream " +
		"or join a study group, and try asking me again in a few minutes."
)

var recommendationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"recommendations": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"career":       map[string]any{"type": "string"},
					"reason":       map[string]any{"type": "string"},
					"courses":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"exams":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"match_score":  map[string]any{"type": "integer"},
					"next_actions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"career", "reason", "match_score"},
			},
		},
	},
	"required": []string{"recommendations"},
}

type ChatReply struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

type RecommendationSet struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Fallback        bool                    `json:"fallback"`
	Cached          bool                    `json:"cached"`
}

type AssistantService struct {
	gen     Generator
	cache   redis.Cmdable
	ttl     time.Duration
	monitor *monitoring.Monitor
}

// NewAssistantService accepts a nil generator (always fall back) and a nil
// cache (never cache).
func NewAssistantService(gen Generator, cache redis.Cmdable, ttl time.Duration, monitor *monitoring.Monitor) *AssistantService {
	return &AssistantService{gen: gen, cache: cache, ttl: ttl, monitor: monitor}
}

// Chat answers the last user message of a conversation. Generation failures
// produce a static reply instead of an error.
func (s *AssistantService) Chat(ctx context.Context, p auth.Participant, messages []models.ChatMessage) (ChatReply, error) {
	if err := p.Valid(); err != nil {
		return ChatReply{}, err
	}
	if len(messages) == 0 {
		return ChatReply{}, fmt.Errorf("%w: messages are required", status.ErrValidation)
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return ChatReply{}, fmt.Errorf("%w: last message must be a non-empty user message", status.ErrValidation)
	}

	if s.gen == nil {
		s.monitor.TrackAssistant("chat", "fallback")
		return ChatReply{Reply: fallbackChatText, Fallback: true}, nil
	}
	res, err := s.gen.Generate(ctx, chatPrompt(messages), nil)
	if err != nil {
		slog.Warn("Chat generation failed, using fallback", "error", err, "participant_id", p.ID)
		s.monitor.TrackAssistant("chat", "fallback")
		return ChatReply{Reply: fallbackChatText, Fallback: true}, nil
	}
	s.monitor.TrackAssistant("chat", "model")
	return ChatReply{Reply: res.Text}, nil
}

// Recommend suggests career paths for a student profile. Model answers are
// cached per profile; fallback answers are not.
func (s *AssistantService) Recommend(ctx context.Context, p auth.Participant, profile models.StudentProfile) (RecommendationSet, error) {
	if err := p.Valid(); err != nil {
		return RecommendationSet{}, err
	}
	profile = normalizeProfile(profile)
	if profile.Stream == "" && len(profile.Interests) == 0 {
		return RecommendationSet{}, fmt.Errorf("%w: stream or interests are required", status.ErrValidation)
	}

	key := recommendationKey(profile)
	if recs, ok := s.cached(ctx, key); ok {
		s.monitor.TrackAssistant("recommendations", "cache")
		return RecommendationSet{Recommendations: recs, Cached: true}, nil
	}

	recs, err := s.generateRecommendations(ctx, profile)
	if err != nil {
		slog.Warn("Recommendation generation failed, using fallback", "error", err, "participant_id", p.ID)
		s.monitor.TrackAssistant("recommendations", "fallback")
		return RecommendationSet{Recommendations: fallbackRecommendations(profile.Stream), Fallback: true}, nil
	}

	s.monitor.TrackAssistant("recommendations", "model")
	s.remember(ctx, key, recs)
	return RecommendationSet{Recommendations: recs}, nil
}

func (s *AssistantService) generateRecommendations(ctx context.Context, profile models.StudentProfile) ([]models.Recommendation, error) {
	if s.gen == nil {
		return nil, errors.New("no generator configured")
	}
	res, err := s.gen.Generate(ctx, recommendationPrompt(profile), recommendationSchema)
	if err != nil {
		return nil, err
	}
	raw := gjson.GetBytes(res.JSON, "recommendations")
	if !raw.IsArray() {
		return nil, fmt.Errorf("%w: response has no recommendations array", status.ErrGeneration)
	}
	var recs []models.Recommendation
	if err := json.Unmarshal([]byte(raw.Raw), &recs); err != nil {
		return nil, fmt.Errorf("%w: decode recommendations: %v", status.ErrGeneration, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: empty recommendations", status.ErrGeneration)
	}
	return recs, nil
}

func (s *AssistantService) cached(ctx context.Context, key string) ([]models.Recommendation, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Failed to read recommendation cache", "error", err, "key", key)
		}
		return nil, false
	}
	var recs []models.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		slog.Warn("Discarding corrupt recommendation cache entry", "error", err, "key", key)
		return nil, false
	}
	return recs, true
}

func (s *AssistantService) remember(ctx context.Context, key string, recs []models.Recommendation) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil {
		slog.Warn("Failed to write recommendation cache", "error", err, "key", key)
	}
}

func normalizeProfile(p models.StudentProfile) models.StudentProfile {
	norm := func(values []string) []string {
		out := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" && !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
		slices.Sort(out)
		return out
	}
	p.Class = strings.TrimSpace(p.Class)
	p.Stream = strings.ToUpper(strings.TrimSpace(p.Stream))
	p.Interests = norm(p.Interests)
	p.Strengths = norm(p.Strengths)
	p.Goals = strings.TrimSpace(p.Goals)
	p.Location = strings.TrimSpace(p.Location)
	return p
}

// recommendationKey digests a normalized profile.
func recommendationKey(p models.StudentProfile) string {
	data, _ := json.Marshal(p)
	sum := blake2b.Sum256(data)
	return "assistant:recommendations:" + hex.EncodeToString(sum[:16])
}

func chatPrompt(messages []models.ChatMessage) string {
	if len(messages) > maxChatTurns {
		messages = messages[len(messages)-maxChatTurns:]
	}
	var b strings.Builder
	b.WriteString("You are a career guidance counsellor for Indian school and college students. ")
	b.WriteString("Answer concisely and practically, mentioning relevant entrance exams and courses when useful.\n\n")
	for _, m := range messages {
		role := "Student"
		if m.Role == "assistant" {
			role = "Counsellor"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, strings.TrimSpace(m.Content))
	}
	b.WriteString("Counsellor:")
	return b.String()
}

func recommendationPrompt(p models.StudentProfile) string {
	var b strings.Builder
	b.WriteString("Suggest up to 5 career paths for this Indian student. For each give the reason, ")
	b.WriteString("relevant courses, entrance exams, a match score from 0 to 100 and next actions.\n")
	fmt.Fprintf(&b, "Class: %s\nStream: %s\n", p.Class, p.Stream)
	fmt.Fprintf(&b, "Interests: %s\nStrengths: %s\n", strings.Join(p.Interests, ", "), strings.Join(p.Strengths, ", "))
	if p.Goals != "" {
		fmt.Fprintf(&b, "Goals: %s\n", p.Goals)
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	return b.String()
}

var streamFallbacks = map[string][]models.Recommendation{
	"PCM": {
		{Career: "Software Engineer", Reason: "Strong fit for mathematics and problem solving", Courses: []string{"B.Tech Computer Science", "BCA"}, Exams: []string{"JEE Main", "JEE Advanced", "BITSAT"}, MatchScore: 80, NextActions: []string{"Practice programming basics", "Start JEE preparation"}},
		{Career: "Data Scientist", Reason: "Combines mathematics, statistics and computing", Courses: []string{"B.Sc Statistics", "B.Tech Data Science"}, Exams: []string{"JEE Main", "CUET"}, MatchScore: 75, NextActions: []string{"Learn Python", "Study statistics"}},
	},
	"PCB": {
		{Career: "Doctor (MBBS)", Reason: "Natural path for biology students interested in healthcare", Courses: []string{"MBBS", "BDS"}, Exams: []string{"NEET UG"}, MatchScore: 80, NextActions: []string{"Start NEET preparation", "Strengthen biology fundamentals"}},
		{Career: "Biotechnologist", Reason: "Applies biology to research and industry", Courses: []string{"B.Tech Biotechnology", "B.Sc Biotechnology"}, Exams: []string{"CUET", "NEET UG"}, MatchScore: 72, NextActions: []string{"Explore lab internships"}},
	},
	"COMMERCE": {
		{Career: "Chartered Accountant", Reason: "Core commerce career with strong demand", Courses: []string{"B.Com", "CA Foundation"}, Exams: []string{"CA Foundation"}, MatchScore: 80, NextActions: []string{"Register for CA Foundation"}},
		{Career: "Business Analyst", Reason: "Blends business understanding with data", Courses: []string{"BBA", "B.Com"}, Exams: []string{"CUET", "IPMAT"}, MatchScore: 72, NextActions: []string{"Learn spreadsheets and basic analytics"}},
	},
	"ARTS": {
		{Career: "Civil Services", Reason: "Humanities subjects map directly onto the UPSC syllabus", Courses: []string{"BA Political Science", "BA History"}, Exams: []string{"CUET", "UPSC CSE"}, MatchScore: 75, NextActions: []string{"Read a daily newspaper", "Build general studies notes"}},
		{Career: "Journalist", Reason: "Rewards writing and communication strengths", Courses: []string{"BA Journalism and Mass Communication"}, Exams: []string{"CUET", "IIMC Entrance"}, MatchScore: 70, NextActions: []string{"Start writing a blog"}},
	},
}

var defaultFallback = []models.Recommendation{
	{Career: "Talk to a mentor", Reason: "A mentor can help map your interests to a stream and career", Courses: []string{}, Exams: []string{}, MatchScore: 50, NextActions: []string{"Book a session with a mentor", "Join a study group"}},
}

func fallbackRecommendations(stream string) []models.Recommendation {
	recs, ok := streamFallbacks[strings.ToUpper(stream)]
	if !ok {
		recs = defaultFallback
	}
	return slices.Clone(recs)
}
