package service

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/models"
	appErrors "github.com/noah-isme/ccrm-api/pkg/errors"
)

const (
	backupPrefix = "backup_"
	backupLayout = "2006-01-02_15-04-05"
)

type backupExporter interface {
	ExportStudents(ctx context.Context, filename string) (*ExportFile, error)
	ExportCourses(ctx context.Context, filename string) (*ExportFile, error)
}

// BackupConfig points the service at the directories it snapshots.
type BackupConfig struct {
	DataDir   string
	ExportDir string
	BackupDir string
}

// BackupService snapshots the data and export directories into timestamped folders.
type BackupService struct {
	exporter backupExporter
	cfg      BackupConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewBackupService constructs a BackupService.
func NewBackupService(exporter backupExporter, cfg BackupConfig, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{exporter: exporter, cfg: cfg, logger: logger, now: time.Now}
}

// Backup writes fresh student and course exports, then copies the data and
// export directories into <backup dir>/backup_<timestamp>.
func (s *BackupService) Backup(ctx context.Context) (*models.BackupInfo, error) {
	if _, err := s.exporter.ExportStudents(ctx, ""); err != nil {
		return nil, err
	}
	if _, err := s.exporter.ExportCourses(ctx, ""); err != nil {
		return nil, err
	}

	createdAt := s.now()
	target, err := s.reserve(createdAt)
	if err != nil {
		return nil, appErrors.IO(err, "failed to create backup directory")
	}
	for _, src := range []struct{ dir, name string }{
		{s.cfg.DataDir, "data"},
		{s.cfg.ExportDir, "exports"},
	} {
		if src.dir == "" {
			continue
		}
		if err := copyTree(src.dir, filepath.Join(target, src.name)); err != nil {
			return nil, appErrors.IO(err, fmt.Sprintf("failed to copy %s", src.name))
		}
	}

	size, err := DirectorySize(target)
	if err != nil {
		return nil, appErrors.IO(err, "failed to measure backup")
	}
	s.logger.Info("backup written", zap.String("path", target), zap.Int64("bytes", size))
	return &models.BackupInfo{Name: filepath.Base(target), Path: target, SizeBytes: size, CreatedAt: createdAt}, nil
}

// ListBackups returns the snapshots under the backup directory, newest first.
func (s *BackupService) ListBackups() ([]models.BackupInfo, error) {
	entries, err := os.ReadDir(s.cfg.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.BackupInfo{}, nil
		}
		return nil, appErrors.IO(err, "failed to list backups")
	}
	out := make([]models.BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), backupPrefix) {
			continue
		}
		path := filepath.Join(s.cfg.BackupDir, entry.Name())
		size, err := DirectorySize(path)
		if err != nil {
			return nil, appErrors.IO(err, "failed to measure backup")
		}
		info := models.BackupInfo{Name: entry.Name(), Path: path, SizeBytes: size}
		stamp := strings.TrimPrefix(entry.Name(), backupPrefix)
		if len(stamp) >= len(backupLayout) {
			if t, err := time.ParseInLocation(backupLayout, stamp[:len(backupLayout)], time.Local); err == nil {
				info.CreatedAt = t
			}
		}
		out = append(out, info)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// DirectorySize sums the sizes of all regular files beneath path.
func DirectorySize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", path, err)
	}
	return total, nil
}

// reserve creates a fresh snapshot directory, suffixing the name when two
// backups land in the same second.
func (s *BackupService) reserve(at time.Time) (string, error) {
	if err := os.MkdirAll(s.cfg.BackupDir, 0o755); err != nil {
		return "", err
	}
	base := filepath.Join(s.cfg.BackupDir, backupPrefix+at.Format(backupLayout))
	target := base
	for i := 1; ; i++ {
		err := os.Mkdir(target, 0o755)
		if err == nil {
			return target, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		target = fmt.Sprintf("%s_%d", base, i)
	}
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == src {
				return filepath.SkipDir
			}
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return out.Close()
}
