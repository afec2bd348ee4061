package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/vncsmyrnk/surveyengine/internal/core/domain"
)

const (
	timelineBuckets  = 14
	topPerQuestion   = 3
	topAnswersLimit  = 20
	minRating        = 1
	maxRating        = 5
	hoursInHistogram = 24
)

// Distribution counts every answer value given to questionID. Multi-select
// answers contribute one count per element. Blank values are not answers and
// stay out of the denominator.
func Distribution(questionID string, responses []*domain.Response) ([]domain.AnswerCount, int) {
	counts := make(map[string]int)
	var order []string
	total := 0

	for _, r := range responses {
		ans, ok := r.Answers[questionID]
		if !ok {
			continue
		}
		for _, v := range ans.Values() {
			if strings.TrimSpace(v) == "" {
				continue
			}
			if _, seen := counts[v]; !seen {
				order = append(order, v)
			}
			counts[v]++
			total++
		}
	}

	out := make([]domain.AnswerCount, 0, len(order))
	for _, v := range order {
		out = append(out, domain.AnswerCount{
			Value: v,
			Count: counts[v],
			Pct:   percent(counts[v], total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out, total
}

// percent rounds each bucket on its own; the sum is not forced to 100.
func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(count) / float64(total)))
}

// Timeline counts responses per local calendar date, ascending, keeping the
// most recent buckets.
func Timeline(responses []*domain.Response) []domain.TimelinePoint {
	counts := make(map[string]int)
	for _, r := range responses {
		day := localTime(r).Format(time.DateOnly)
		counts[day]++
	}

	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	if len(days) > timelineBuckets {
		days = days[len(days)-timelineBuckets:]
	}

	out := make([]domain.TimelinePoint, 0, len(days))
	for _, d := range days {
		out = append(out, domain.TimelinePoint{Date: d, Count: counts[d]})
	}
	return out
}

// HourlyHistogram always yields all 24 hours, zeros included.
func HourlyHistogram(responses []*domain.Response) []domain.HourCount {
	out := make([]domain.HourCount, hoursInHistogram)
	for h := range out {
		out[h].Hour = h
	}
	for _, r := range responses {
		out[localTime(r).Hour()].Count++
	}
	return out
}

// RatingAverage averages the integer ratings 1..5 given to questionID,
// rounded to one decimal. Anything else is skipped.
func RatingAverage(questionID string, responses []*domain.Response) float64 {
	sum, n := 0, 0
	for _, r := range responses {
		ans, ok := r.Answers[questionID]
		if !ok {
			continue
		}
		for _, v := range ans.Values() {
			rating, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || rating < minRating || rating > maxRating {
				continue
			}
			sum += rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

// TopAnswers merges each question's leading entries and keeps the overall top.
func TopAnswers(stats []domain.QuestionStats) []domain.TopAnswer {
	var merged []domain.TopAnswer
	for _, qs := range stats {
		for i, entry := range qs.Distribution {
			if i == topPerQuestion {
				break
			}
			merged = append(merged, domain.TopAnswer{
				QuestionID: qs.QuestionID,
				Value:      entry.Value,
				Count:      entry.Count,
			})
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Count > merged[j].Count
	})
	if len(merged) > topAnswersLimit {
		merged = merged[:topAnswersLimit]
	}
	return merged
}

// Aggregate computes every statistic for one survey's response set.
// Questions are reported in display order.
func Aggregate(survey *domain.Survey, responses []*domain.Response) *domain.Aggregate {
	questions := make([]domain.Question, len(survey.Questions))
	copy(questions, survey.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].DisplayOrder < questions[j].DisplayOrder
	})

	stats := make([]domain.QuestionStats, 0, len(questions))
	for _, q := range questions {
		dist, total := Distribution(q.ID.String(), responses)
		qs := domain.QuestionStats{
			QuestionID:   q.ID,
			Text:         q.Text,
			Type:         q.Type,
			TotalAnswers: total,
			Distribution: dist,
		}
		if q.Type == domain.QuestionRating {
			avg := RatingAverage(q.ID.String(), responses)
			qs.Average = &avg
		}
		stats = append(stats, qs)
	}

	return &domain.Aggregate{
		SurveyID:       survey.ID,
		TotalResponses: len(responses),
		PerQuestion:    stats,
		Timeline:       Timeline(responses),
		Hourly:         HourlyHistogram(responses),
		TopAnswers:     TopAnswers(stats),
	}
}

var locations sync.Map

// localTime renders the submission in the respondent's recorded zone.
// Unknown or empty zones fall back to UTC.
func localTime(r *domain.Response) time.Time {
	return r.SubmittedAt.In(location(r.Timezone))
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	locations.Store(name, loc)
	return loc
}
