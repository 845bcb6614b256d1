package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccrm-api/internal/models"
	"github.com/noah-isme/ccrm-api/internal/repository"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
	"github.com/noah-isme/ccrm-api/pkg/storage"
)

type brokenExporter struct{}

func (brokenExporter) ExportStudents(context.Context, string) (*ExportFile, error) {
	return nil, appErrors.IO(errors.New("disk full"), "cannot write students.csv")
}

func (brokenExporter) ExportCourses(context.Context, string) (*ExportFile, error) {
	return nil, nil
}

func newBackupFixture(t *testing.T) (*BackupService, BackupConfig) {
	t.Helper()
	root := t.TempDir()
	cfg := BackupConfig{
		DataDir:   filepath.Join(root, "data"),
		ExportDir: filepath.Join(root, "exports"),
		BackupDir: filepath.Join(root, "backups"),
	}
	data, err := storage.NewLocalStorage(cfg.DataDir)
	require.NoError(t, err)
	exports, err := storage.NewLocalStorage(cfg.ExportDir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.DataDir, "archive"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "archive", "students.csv"), []byte("id,regNo\n"), 0o644))

	students := repository.NewStudentRepository(nil)
	require.NoError(t, students.Add(context.Background(), models.NewStudent("S001", "2024-CS-0001", "Ana", "ana@campus.test")))
	exchange := NewExchangeService(students, repository.NewCourseRepository(nil), data, exports, nil, nil, nil)
	return NewBackupService(exchange, cfg, nil), cfg
}

func TestBackupCopiesDataAndExports(t *testing.T) {
	svc, cfg := newBackupFixture(t)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local) }

	info, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backup_2025-03-04_05-06-07", info.Name)
	assert.Equal(t, filepath.Join(cfg.BackupDir, info.Name), info.Path)

	for _, rel := range []string{"data/archive/students.csv", "exports/students.csv", "exports/courses.csv"} {
		_, err := os.Stat(filepath.Join(info.Path, rel))
		assert.NoError(t, err, rel)
	}
	size, err := DirectorySize(info.Path)
	require.NoError(t, err)
	assert.Equal(t, size, info.SizeBytes)
	assert.Positive(t, size)

	second, err := svc.Backup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "backup_2025-03-04_05-06-07_1", second.Name)

	list, err := svc.ListBackups()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Name, list[0].Name)
	assert.Equal(t, 2025, list[1].CreatedAt.Year())
}

func TestBackupPropagatesExportFailure(t *testing.T) {
	_, cfg := newBackupFixture(t)
	svc := NewBackupService(brokenExporter{}, cfg, nil)

	_, err := svc.Backup(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrIO)

	list, err := svc.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDirectorySizeMissingPath(t *testing.T) {
	_, err := DirectorySize(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
