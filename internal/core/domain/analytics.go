package domain

import "github.com/google/uuid"

type AnswerCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Pct   int    `json:"pct"`
}

type QuestionStats struct {
	QuestionID   uuid.UUID     `json:"questionId"`
	Text         string        `json:"text"`
	Type         QuestionType  `json:"type"`
	TotalAnswers int           `json:"totalAnswers"`
	Distribution []AnswerCount `json:"distribution"`
	Average      *float64      `json:"average,omitempty"`
}

type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type TopAnswer struct {
	QuestionID uuid.UUID `json:"questionId"`
	Value      string    `json:"value"`
	Count      int       `json:"count"`
}

type Aggregate struct {
	SurveyID       uuid.UUID       `json:"surveyId"`
	TotalResponses int             `json:"totalResponses"`
	PerQuestion    []QuestionStats `json:"perQuestion"`
	Timeline       []TimelinePoint `json:"timeline"`
	Hourly         []HourCount     `json:"hourly"`
	TopAnswers     []TopAnswer     `json:"topAnswers"`
}
