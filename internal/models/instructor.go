package models

import (
	"encoding/json"
	"sort"
	"strings"
)

// Instructor teaches courses within a department.
type Instructor struct {
	Profile
	EmployeeID string `json:"employee_id"`
	Department string `json:"department"`

	assigned map[string]struct{}
}

func NewInstructor(id, employeeID, fullName, email, department string) *Instructor {
	return &Instructor{
		Profile:    newProfile(strings.TrimSpace(id), strings.TrimSpace(fullName), strings.TrimSpace(email)),
		EmployeeID: strings.TrimSpace(employeeID),
		Department: strings.TrimSpace(department),
		assigned:   make(map[string]struct{}),
	}
}

func (i *Instructor) Role() Role { return RoleInstructor }

func (i *Instructor) AssignCourse(code string) {
	if i.assigned == nil {
		i.assigned = make(map[string]struct{})
	}
	i.assigned[code] = struct{}{}
}

func (i *Instructor) UnassignCourse(code string) {
	delete(i.assigned, code)
}

// Teaches reports whether code is assigned to the instructor.
func (i *Instructor) Teaches(code string) bool {
	_, ok := i.assigned[code]
	return ok
}

// AssignedCourses returns the assigned course codes sorted.
func (i *Instructor) AssignedCourses() []string {
	out := make([]string, 0, len(i.assigned))
	for code := range i.assigned {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (i *Instructor) Clone() *Instructor {
	if i == nil {
		return nil
	}
	cp := *i
	cp.assigned = make(map[string]struct{}, len(i.assigned))
	for code := range i.assigned {
		cp.assigned[code] = struct{}{}
	}
	return &cp
}

type instructorJSON struct {
	Profile
	EmployeeID      string   `json:"employee_id"`
	Department      string   `json:"department"`
	AssignedCourses []string `json:"assigned_courses"`
}

func (i *Instructor) MarshalJSON() ([]byte, error) {
	return json.Marshal(instructorJSON{
		Profile:         i.Profile,
		EmployeeID:      i.EmployeeID,
		Department:      i.Department,
		AssignedCourses: i.AssignedCourses(),
	})
}
