package models

import "time"

// SimpleModel is reported as the model when the keyword fallback answered.
const SimpleModel = "simple"

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

// QueryAnswer is the reply to a question.
type QueryAnswer struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`

	// Source records which path produced the answer; not serialized.
	Source AnswerSource `json:"-"`
}

// AnswerSource identifies the path that produced an answer.
type AnswerSource string

const (
	SourceAgent          AnswerSource = "agent"
	SourceAgentExhausted AnswerSource = "agent_exhausted"
	SourceKeyword        AnswerSource = "keyword"
)
