package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/repository"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/storage"
)

type exchangeFixture struct {
	students *repository.StudentRepository
	courses  *repository.CourseRepository
	dataDir  string
	export   string
	svc      *ExchangeService
}

func newExchangeFixture(t *testing.T) *exchangeFixture {
	t.Helper()
	root := t.TempDir()
	f := &exchangeFixture{
		students: repository.NewStudentRepository(nil),
		courses:  repository.NewCourseRepository(nil),
		dataDir:  filepath.Join(root, "data"),
		export:   filepath.Join(root, "exports"),
	}
	data, err := storage.NewLocalStorage(f.dataDir)
	require.NoError(t, err)
	exports, err := storage.NewLocalStorage(f.export)
	require.NoError(t, err)
	f.svc = NewExchangeService(f.students, f.courses, data, exports, nil, NewMetricsService(), zap.NewNop())
	return f
}

func (f *exchangeFixture) writeData(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dataDir, name), []byte(body), 0o644))
}

func TestExchangeStudentRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newExchangeFixture(t)
	names := []string{"Ana Lima", `Doe, "JD" John`, "Chen Wei", "Dana O'Neil", "Eve"}
	for i, name := range names {
		s := models.NewStudent(fmt.Sprintf("S%03d", i+1), fmt.Sprintf("2024-CS-%04d", i+1), name, fmt.Sprintf("s%d@campus.test", i+1))
		require.NoError(t, src.students.Add(ctx, s))
	}

	written, err := src.svc.ExportStudents(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, len(names), written.Rows)
	body, err := os.ReadFile(filepath.Join(src.export, written.Path))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "ID,RegNo,FullName,Email,Active,EnrolledCourses,GPA,CreatedAt\n"))
	assert.Contains(t, string(body), `S001,2024-CS-0001,"Ana Lima",s1@campus.test,true,0,0.00,`)

	dst := newExchangeFixture(t)
	result, err := dst.svc.ImportStudentsFrom(ctx, bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, len(names), result.Imported)
	assert.Zero(t, result.Skipped)

	originals, _ := src.students.FindAll(ctx)
	imported, _ := dst.students.FindAll(ctx)
	require.Len(t, imported, len(originals))
	for i := range originals {
		assert.Equal(t, originals[i].ID, imported[i].ID)
		assert.Equal(t, originals[i].RegNo, imported[i].RegNo)
		assert.Equal(t, originals[i].FullName, imported[i].FullName)
		assert.Equal(t, originals[i].Email, imported[i].Email)
	}
}

func TestExchangeImportStudentsSkipsBadRows(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.writeData(t, "students.csv", strings.Join([]string{
		"id,regNo,fullName,email,active",
		"S001,2024-CS-0001,Ana Lima,ana@campus.test,true",
		"S002,2024-CS-0002,Too Short",
		"",
		"S003,2024-CS-0003,Chen Wei,chen@campus.test,false",
		"S004,bad-reg,Dee,dee@campus.test",
		"S005,2024-CS-0005,Eve,eve@campus.test,",
	}, "\n"))

	result, err := f.svc.ImportStudents(ctx, "students.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Equal(t, 6, result.Errors[1].Line)

	chen, err := f.students.FindByID(ctx, "S003")
	require.NoError(t, err)
	assert.False(t, chen.Active)
	eve, err := f.students.FindByID(ctx, "S005")
	require.NoError(t, err)
	assert.True(t, eve.Active)
}

func TestExchangeImportStudentsContinuesAfterUnbalancedQuote(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.writeData(t, "students.csv", strings.Join([]string{
		"id,regNo,fullName,email",
		`S001,2024-CS-0001,"Ana,ana@campus.test`,
		"S002,2024-CS-0002,Ben Okafor,ben@campus.test",
		"S003,2024-CS-0003,Chen Wei,chen@campus.test",
	}, "\n"))

	result, err := f.svc.ImportStudents(ctx, "students.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Line)

	for _, id := range []string{"S002", "S003"} {
		ok, err := f.students.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}
	ok, err := f.students.Exists(ctx, "S001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExchangeImportKeepsEnrollmentsOfKnownStudents(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	existing := models.NewStudent("S001", "2024-CS-0001", "Ana", "ana@campus.test")
	existing.Enroll("CS101-A")
	require.NoError(t, f.students.Add(ctx, existing))

	result, err := f.svc.ImportStudentsFrom(ctx, strings.NewReader("h\nS001,2024-CS-0001,Ana Lima,ana@campus.test\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Updated)

	found, _ := f.students.FindByID(ctx, "S001")
	assert.Equal(t, "Ana Lima", found.FullName)
	assert.Equal(t, []string{"CS101-A"}, found.EnrolledCourses())
}

func TestExchangeImportMissingFile(t *testing.T) {
	f := newExchangeFixture(t)
	_, err := f.svc.ImportStudents(context.Background(), "absent.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrIO))

	_, err = f.svc.ImportCourses(context.Background(), "absent.csv")
	assert.True(t, errors.Is(err, appErrors.ErrIO))
}

func TestExchangeCourses(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.writeData(t, "courses.csv", strings.Join([]string{
		"code,title,credits,instructor,semester,department",
		"cs101-a,Intro to CS,3,Dr. Rao,Fall,CS",
		`MA201-A,"Linear Algebra, Part I",4,Dr. Ito,SPRING,MA`,
		"CS102-A,Short,3,Dr. Rao,FALL",
		"CS103-A,Bad credits,three,Dr. Rao,FALL,CS",
		"CS104-A,Bad semester,3,Dr. Rao,AUTUMN,CS",
		"CS105-A,Too many credits,9,Dr. Rao,FALL,CS",
		"CS106-A,Retired,2,Dr. Rao,WINTER,CS,false",
	}, "\n"))

	result, err := f.svc.ImportCourses(ctx, "courses.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 4, result.Skipped)

	course, err := f.courses.FindByID(ctx, "CS101-A")
	require.NoError(t, err)
	assert.Equal(t, models.SemesterFall, course.Semester)
	retired, err := f.courses.FindByID(ctx, "CS106-A")
	require.NoError(t, err)
	assert.False(t, retired.Active)

	written, err := f.svc.ExportCourses(ctx, "catalogue.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, written.Rows)
	body, err := os.ReadFile(filepath.Join(f.export, "catalogue.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Code,Title,Credits,Instructor,Semester,Department,Active,CreatedAt", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `CS101-A,"Intro to CS",3,Dr. Rao,FALL,CS,true,`))
	assert.True(t, strings.HasPrefix(lines[3], `MA201-A,"Linear Algebra, Part I",4,Dr. Ito,SPRING,MA,true,`))

	again, err := f.svc.ImportCoursesFrom(ctx, bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Imported)
	assert.Equal(t, 3, again.Updated)
	retired, _ = f.courses.FindByID(ctx, "CS106-A")
	assert.False(t, retired.Active)
}

func TestExchangeExportWriteFailure(t *testing.T) {
	f := newExchangeFixture(t)
	require.NoError(t, os.RemoveAll(f.export))
	require.NoError(t, os.WriteFile(f.export, []byte("not a dir"), 0o644))

	_, err := f.svc.ExportStudents(context.Background(), "students.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrIO))
}
