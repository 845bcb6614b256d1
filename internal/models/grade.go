package models

import (
	"fmt"
	"math"
	"strings"
)

// Grade is a letter on the ten-point scale.
type Grade string

// Grade scale, best to worst.
const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

type gradeInfo struct {
	points      float64
	description string
}

var gradeScale = map[Grade]gradeInfo{
	GradeS: {10.0, "Outstanding"},
	GradeA: {9.0, "Excellent"},
	GradeB: {8.0, "Very Good"},
	GradeC: {7.0, "Good"},
	GradeD: {6.0, "Average"},
	GradeE: {5.0, "Below Average"},
	GradeF: {0.0, "Fail"},
}

var gradeOrder = []Grade{GradeS, GradeA, GradeB, GradeC, GradeD, GradeE, GradeF}

// AllGrades returns the scale in order.
func AllGrades() []Grade {
	out := make([]Grade, len(gradeOrder))
	copy(out, gradeOrder)
	return out
}

// Valid reports whether g is on the scale.
func (g Grade) Valid() bool {
	_, ok := gradeScale[g]
	return ok
}

// Points returns the grade points, 0 for unknown letters.
func (g Grade) Points() float64 {
	return gradeScale[g].points
}

func (g Grade) Description() string {
	return gradeScale[g].description
}

// Passing reports whether the grade earns credit. F is the only failing grade.
func (g Grade) Passing() bool {
	return g.Valid() && g != GradeF
}

func (g Grade) String() string {
	return string(g)
}

// ParseGrade matches a letter case-insensitively.
func ParseGrade(text string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(text)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown grade %q", text)
	}
	return g, nil
}

// GradeFromPoints finds the grade whose points are within 0.1 of p.
func GradeFromPoints(p float64) (Grade, error) {
	for _, g := range gradeOrder {
		if math.Abs(g.Points()-p) < 0.1 {
			return g, nil
		}
	}
	return "", fmt.Errorf("no grade for %.2f points", p)
}
