// internal/models/family.go
package models

import (
	"fmt"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Weight returns the multiplier used for difficulty-weighted workload scores.
func (d Difficulty) Weight() float64 {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

type Member struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Age  int    `json:"age"`
	Role string `json:"role,omitempty"`
}

type Chore struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Type       string     `json:"type,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Points     int        `json:"points"`
	AssigneeID string     `json:"assigneeId,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Room       string     `json:"room,omitempty"`
	Category   string     `json:"category,omitempty"`
}

type ScheduleBlock struct {
	MemberID string `json:"memberId"`
	Weekday  string `json:"weekday"`
	Note     string `json:"note,omitempty"`
}

// FamilyContextSnapshot is the read-only view of a family handed to the analyzers.
// Nothing in this repository mutates a snapshot; simulations work on copies.
type FamilyContextSnapshot struct {
	FamilyID           string                 `json:"familyId"`
	FamilySize         int                    `json:"familySize"`
	Members            []Member               `json:"members"`
	ActiveChores       []Chore                `json:"activeChores"`
	Preferences        map[string]interface{} `json:"preferences,omitempty"`
	HistoricalPatterns map[string]interface{} `json:"historicalPatterns,omitempty"`
	Schedule           []ScheduleBlock        `json:"schedule,omitempty"`
}

// Size is the number of people sharing the chores, never less than one.
func (s *FamilyContextSnapshot) Size() int {
	size := s.FamilySize
	if len(s.Members) > size {
		size = len(s.Members)
	}
	if size < 1 {
		return 1
	}
	return size
}

func (s *FamilyContextSnapshot) Member(id string) (Member, bool) {
	for _, m := range s.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func (s *FamilyContextSnapshot) Chore(id string) (Chore, bool) {
	for _, c := range s.ActiveChores {
		if c.ID == id {
			return c, true
		}
	}
	return Chore{}, false
}

// MemberName resolves a display name. Members without a recorded name get a
// placeholder derived from the id.
func (s *FamilyContextSnapshot) MemberName(id string) string {
	if s != nil {
		if m, ok := s.Member(id); ok && m.Name != "" {
			return m.Name
		}
	}
	return fmt.Sprintf("Member %s", id)
}
