package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

// Credit bounds for a single course.
const (
	MinCredits = 1
	MaxCredits = 6
)

// Course is an offering identified by its section code, e.g. CS101-A.
type Course struct {
	Code       string    `json:"code" validate:"required,coursecode"`
	Title      string    `json:"title" validate:"required"`
	Credits    int       `json:"credits" validate:"min=1,max=6"`
	Instructor string    `json:"instructor"`
	Semester   Semester  `json:"semester" validate:"required,oneof=SPRING SUMMER FALL WINTER"`
	Department string    `json:"department"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// CourseParams are the inputs accepted by NewCourse.
type CourseParams struct {
	Code       string
	Title      string
	Credits    int
	Instructor string
	Semester   Semester
	Department string
}

// NewCourse builds an active course, rejecting missing code, title or semester and credits outside 1-6.
func NewCourse(p CourseParams) (*Course, error) {
	code := strings.TrimSpace(p.Code)
	title := strings.TrimSpace(p.Title)
	switch {
	case code == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "course code is required")
	case title == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "course title is required")
	case p.Semester == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "course semester is required")
	case !p.Semester.Valid():
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown semester %q", p.Semester))
	case p.Credits < MinCredits || p.Credits > MaxCredits:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course credits must be between %d and %d", MinCredits, MaxCredits))
	}
	return &Course{
		Code:       code,
		Title:      title,
		Credits:    p.Credits,
		Instructor: strings.TrimSpace(p.Instructor),
		Semester:   p.Semester,
		Department: strings.TrimSpace(p.Department),
		Active:     true,
		CreatedAt:  time.Now(),
	}, nil
}

// Clone returns an independent copy.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// CourseCode is the parsed form of a section code.
type CourseCode struct {
	Department string
	Number     int
	Section    string
}

func (c CourseCode) String() string {
	return fmt.Sprintf("%s%d-%s", c.Department, c.Number, c.Section)
}

// ParseCourseCode splits "CS101-A" into department, number and section, upper-casing letters.
func ParseCourseCode(code string) (CourseCode, error) {
	head, section, ok := strings.Cut(strings.TrimSpace(code), "-")
	if !ok || section == "" || strings.Contains(section, "-") {
		return CourseCode{}, fmt.Errorf("invalid course code format: %q", code)
	}
	i := strings.IndexFunc(head, func(r rune) bool { return !unicode.IsLetter(r) })
	if i <= 0 {
		return CourseCode{}, fmt.Errorf("invalid course code format: %q", code)
	}
	dept := strings.ToUpper(head[:i])
	if len(dept) < 2 || len(dept) > 4 {
		return CourseCode{}, fmt.Errorf("department code must be 2-4 characters: %q", code)
	}
	number, err := strconv.Atoi(head[i:])
	if err != nil || number < 100 || number > 999 {
		return CourseCode{}, fmt.Errorf("course number must be 100-999: %q", code)
	}
	return CourseCode{Department: dept, Number: number, Section: strings.ToUpper(section)}, nil
}
