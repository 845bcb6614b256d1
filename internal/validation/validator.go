package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	regNoTag      = "regno"
	courseCodeTag = "coursecode"

	minRegNoYear = 2000
	maxRegNoYear = 2030
)

var (
	regNoRegex      = regexp.MustCompile(`^\d{4}-[A-Za-z]{2,4}-\d{4}$`)
	courseCodeRegex = regexp.MustCompile(`^[A-Za-z]{2,4}\d{3}-[A-Za-z0-9]$`)
)

// New returns a validator with the registry's custom tags registered and JSON field names in errors.
func New() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(regNoTag, regNoValidation)
	_ = validate.RegisterValidation(courseCodeTag, courseCodeValidation)

	return validate
}

// IsRegNo reports whether s has the YYYY-DEPT-NNNN shape with a non-zero
// sequence and an intake year between 2000 and 2030.
func IsRegNo(s string) bool {
	if !regNoRegex.MatchString(s) || strings.HasSuffix(s, "-0000") {
		return false
	}
	year, err := strconv.Atoi(s[:4])
	return err == nil && year >= minRegNoYear && year <= maxRegNoYear
}

// IsCourseCode reports whether s has the DEPT###-S shape.
func IsCourseCode(s string) bool {
	return courseCodeRegex.MatchString(s)
}

func regNoValidation(fl validator.FieldLevel) bool {
	return IsRegNo(fl.Field().String())
}

func courseCodeValidation(fl validator.FieldLevel) bool {
	return IsCourseCode(fl.Field().String())
}
