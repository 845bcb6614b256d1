// Package cli implements the ccrmctl batch command over the same services the
// HTTP API uses. Every run starts from an empty store, so commands other than
// import first load the configured student and course files.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/noah-isme/ccrm-api/internal/app"
	"github.com/noah-isme/ccrm-api/internal/service"
	"github.com/noah-isme/ccrm-api/pkg/config"
)

const (
	CommandImport = "import"
	CommandExport = "export"
	CommandReport = "report"
	CommandBackup = "backup"
)

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("usage: ccrmctl [flags] import|export|report|backup")

// Options are the parsed command-line settings.
type Options struct {
	Command      string
	StudentsFile string
	CoursesFile  string
	Top          int
}

// ParseArgs reads flags and the command name from args.
func ParseArgs(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.StudentsFile, "students", "", "student CSV file inside DATA_DIR")
	fs.StringVar(&opts.CoursesFile, "courses", "", "course CSV file inside DATA_DIR")
	fs.IntVar(&opts.Top, "top", 5, "number of students in the report ranking")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		return opts, ErrUsage
	}
	opts.Command = strings.ToLower(fs.Arg(0))
	switch opts.Command {
	case CommandImport, CommandExport, CommandReport, CommandBackup:
	default:
		return opts, fmt.Errorf("%w: unknown command %q", ErrUsage, opts.Command)
	}
	if opts.Top <= 0 {
		return opts, fmt.Errorf("top must be positive")
	}
	return opts, nil
}

// Run executes one command and writes a human readable summary to out.
func Run(ctx context.Context, cfg *config.Config, opts Options, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	local := *cfg
	local.Reports.CacheEnabled = false
	if opts.StudentsFile != "" {
		local.Records.StudentsFile = opts.StudentsFile
	}
	if opts.CoursesFile != "" {
		local.Records.CoursesFile = opts.CoursesFile
	}

	a, err := app.New(ctx, &local, logger)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	if opts.Command == CommandImport {
		return runImport(ctx, a, &local, out)
	}
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}
	switch opts.Command {
	case CommandExport:
		return runExport(ctx, a, out)
	case CommandReport:
		return runReport(ctx, a, opts.Top, out)
	default:
		return runBackup(ctx, a, out)
	}
}

func runImport(ctx context.Context, a *app.App, cfg *config.Config, out io.Writer) error {
	courses, err := a.Exchange.ImportCourses(ctx, cfg.Records.CoursesFile)
	if err != nil {
		return err
	}
	students, err := a.Exchange.ImportStudents(ctx, cfg.Records.StudentsFile)
	if err != nil {
		return err
	}
	printImport(out, courses)
	printImport(out, students)
	return nil
}

func printImport(out io.Writer, result *service.ImportResult) {
	fmt.Fprintf(out, "%s: imported=%d updated=%d skipped=%d\n", result.Entity, result.Imported, result.Updated, result.Skipped)
	for _, rowErr := range result.Errors {
		fmt.Fprintf(out, "  line %d: %s\n", rowErr.Line, rowErr.Reason)
	}
}

func runExport(ctx context.Context, a *app.App, out io.Writer) error {
	students, err := a.Exchange.ExportStudents(ctx, "")
	if err != nil {
		return err
	}
	courses, err := a.Exchange.ExportCourses(ctx, "")
	if err != nil {
		return err
	}
	for _, file := range []*service.ExportFile{students, courses} {
		fmt.Fprintf(out, "%s: %d rows -> %s\n", file.Entity, file.Rows, file.Path)
	}
	return nil
}

func runReport(ctx context.Context, a *app.App, top int, out io.Writer) error {
	ranking, _, err := a.Reports.TopStudents(ctx, top)
	if err != nil {
		return err
	}
	average, _, err := a.Reports.AverageGPA(ctx)
	if err != nil {
		return err
	}
	distribution, _, err := a.Reports.GradeDistribution(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Top %d students\n", top)
	fmt.Fprintln(tw, "RANK\tID\tREG NO\tNAME\tGPA")
	for _, r := range ranking {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", r.Rank, r.StudentID, r.RegNo, r.FullName, r.GPA)
	}
	fmt.Fprintf(tw, "\nAverage GPA: %.2f\n\n", average)
	fmt.Fprintln(tw, "GRADE\tDESCRIPTION\tCOUNT")
	for _, bucket := range distribution {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", bucket.Grade, bucket.Description, bucket.Count)
	}
	return tw.Flush()
}

func runBackup(ctx context.Context, a *app.App, out io.Writer) error {
	info, err := a.Backups.Backup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "backup %s written to %s (%d bytes)\n", info.Name, info.Path, info.SizeBytes)
	return nil
}
