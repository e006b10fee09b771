package model

import (
	"strings"
	"time"
)

// Difficulty is the problem difficulty enum.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists the accepted values in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty normalizes s (trim, lower case) and reports whether it is a known value.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, true
		}
	}
	return d, false
}

// Field limits shared by the request schema and the stores.
const (
	TitleMaxLen       = 200
	DescriptionMinLen = 10
	DescriptionMaxLen = 5000
	CategoryMaxLen    = 100
	QueryMaxLen       = 200

	DefaultTimeLimit   = 1000 // milliseconds
	MinTimeLimit       = 100
	MaxTimeLimit       = 30000
	DefaultMemoryLimit = 128 // MB
	MinMemoryLimit     = 16
	MaxMemoryLimit     = 512
)

// TestCase is one input/output pair of a problem.
type TestCase struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Problem is a catalog entry as returned to clients.
// Required fields are omitted from JSON when empty so structural checks can spot them.
type Problem struct {
	ID                  int64      `json:"id,omitempty"`
	Title               string     `json:"title,omitempty"`
	Description         string     `json:"description,omitempty"`
	Difficulty          Difficulty `json:"difficulty,omitempty"`
	Category            string     `json:"category,omitempty"`
	TestCases           []TestCase `json:"testCases,omitempty"`
	Constraints         []string   `json:"constraints"`
	Tags                []string   `json:"tags"`
	TimeLimit           int        `json:"timeLimit"`
	MemoryLimit         int        `json:"memoryLimit"`
	Submissions         int64      `json:"submissions"`
	AcceptedSubmissions int64      `json:"acceptedSubmissions"`
	AcceptanceRate      int        `json:"acceptanceRate"`
	IsActive            bool       `json:"isActive"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// AcceptanceRate returns round(accepted/submissions*100) with halves rounded up,
// and 0 when there are no submissions.
func AcceptanceRate(accepted, submissions int64) int {
	if submissions <= 0 {
		return 0
	}
	return int((accepted*200 + submissions) / (2 * submissions))
}

// RecordSubmission bumps the counters and keeps the acceptance rate consistent.
func (p *Problem) RecordSubmission(accepted bool) {
	p.Submissions++
	if accepted {
		p.AcceptedSubmissions++
	}
	p.AcceptanceRate = AcceptanceRate(p.AcceptedSubmissions, p.Submissions)
}

// CreateInput holds validated fields for a new problem. Nil limits take defaults.
type CreateInput struct {
	Title       string
	Description string
	Difficulty  Difficulty
	Category    string
	TestCases   []TestCase
	Constraints []string
	Tags        []string
	TimeLimit   *int
	MemoryLimit *int
}

// NewProblem builds a problem from input with every default populated.
func NewProblem(in CreateInput, now time.Time) *Problem {
	p := &Problem{
		Title:       in.Title,
		Description: in.Description,
		Difficulty:  in.Difficulty,
		Category:    in.Category,
		TestCases:   append([]TestCase(nil), in.TestCases...),
		Constraints: nonNil(in.Constraints),
		Tags:        nonNil(in.Tags),
		TimeLimit:   DefaultTimeLimit,
		MemoryLimit: DefaultMemoryLimit,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.TimeLimit != nil {
		p.TimeLimit = *in.TimeLimit
	}
	if in.MemoryLimit != nil {
		p.MemoryLimit = *in.MemoryLimit
	}
	return p
}

// UpdateInput holds a partial update; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Difficulty  *Difficulty
	Category    *string
	TestCases   *[]TestCase
	Constraints *[]string
	Tags        *[]string
	TimeLimit   *int
	MemoryLimit *int
}

// IsEmpty reports whether no field is set.
func (u UpdateInput) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Difficulty == nil &&
		u.Category == nil && u.TestCases == nil && u.Constraints == nil &&
		u.Tags == nil && u.TimeLimit == nil && u.MemoryLimit == nil
}

// Apply merges the set fields into p and bumps UpdatedAt.
func (u UpdateInput) Apply(p *Problem, now time.Time) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Difficulty != nil {
		p.Difficulty = *u.Difficulty
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.TestCases != nil {
		p.TestCases = append([]TestCase(nil), (*u.TestCases)...)
	}
	if u.Constraints != nil {
		p.Constraints = nonNil(*u.Constraints)
	}
	if u.Tags != nil {
		p.Tags = nonNil(*u.Tags)
	}
	if u.TimeLimit != nil {
		p.TimeLimit = *u.TimeLimit
	}
	if u.MemoryLimit != nil {
		p.MemoryLimit = *u.MemoryLimit
	}
	p.UpdatedAt = now
}

// ListFilter selects a page of active problems.
type ListFilter struct {
	Page       int
	Limit      int
	Difficulty Difficulty
	Category   string
}

// Skip returns the number of documents before the requested page.
func (f ListFilter) Skip() int64 {
	if f.Page <= 1 {
		return 0
	}
	return int64(f.Page-1) * int64(f.Limit)
}

// SearchFilter is a ListFilter plus a full-text query.
type SearchFilter struct {
	ListFilter
	Query string
}

// ProblemPage is one page of results.
type ProblemPage struct {
	Items      []Problem
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewProblemPage fills TotalPages as ceil(total/limit).
func NewProblemPage(items []Problem, total int64, page, limit int) ProblemPage {
	if items == nil {
		items = []Problem{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return ProblemPage{Items: items, Total: total, Page: page, Limit: limit, TotalPages: totalPages}
}

// Statistics aggregates the active catalog.
type Statistics struct {
	TotalProblems            int64 `json:"totalProblems"`
	EasyProblems             int64 `json:"easyProblems"`
	MediumProblems           int64 `json:"mediumProblems"`
	HardProblems             int64 `json:"hardProblems"`
	TotalSubmissions         int64 `json:"totalSubmissions"`
	TotalAcceptedSubmissions int64 `json:"totalAcceptedSubmissions"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return append([]string{}, values...)
}
