package models

import (
	"fmt"
	"strings"
)

// Semester is the academic term a course is offered in.
type Semester string

const (
	SemesterSpring Semester = "SPRING"
	SemesterSummer Semester = "SUMMER"
	SemesterFall   Semester = "FALL"
	SemesterWinter Semester = "WINTER"
)

var semesters = []Semester{SemesterSpring, SemesterSummer, SemesterFall, SemesterWinter}

var semesterDisplay = map[Semester]string{
	SemesterSpring: "Spring",
	SemesterSummer: "Summer",
	SemesterFall:   "Fall",
	SemesterWinter: "Winter",
}

// Semesters returns all semesters ordered by rank.
func Semesters() []Semester {
	out := make([]Semester, len(semesters))
	copy(out, semesters)
	return out
}

func (s Semester) Valid() bool {
	_, ok := semesterDisplay[s]
	return ok
}

func (s Semester) DisplayName() string {
	return semesterDisplay[s]
}

// Order is the 1-based rank within the academic year; 0 when unknown.
func (s Semester) Order() int {
	for i, sem := range semesters {
		if sem == s {
			return i + 1
		}
	}
	return 0
}

// ParseSemester accepts the enum name or the display name, ignoring case.
func ParseSemester(text string) (Semester, error) {
	text = strings.TrimSpace(text)
	for _, s := range semesters {
		if strings.EqualFold(string(s), text) || strings.EqualFold(s.DisplayName(), text) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown semester %q", text)
}
