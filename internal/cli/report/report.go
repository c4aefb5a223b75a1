// Package report implements the report command, which fans per-course
// aggregation out over a worker pool and writes the xlsx workbook.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/mdlreport/internal/config"
	"github.com/aryankumar/mdlreport/internal/executor"
	"github.com/aryankumar/mdlreport/internal/moodle"
	"github.com/aryankumar/mdlreport/internal/output"
	"github.com/aryankumar/mdlreport/internal/report"
	"github.com/aryankumar/mdlreport/internal/util"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var courseID int
	var coursesFile string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a completion report workbook",
		Long: `Generate an Excel workbook of course and activity completion.

By default every course on the Moodle instance is included. The scope can
be narrowed to a single course with --courseid, or to a set of courses
listed in a file with --courses-file (one course id or full name per line).

Courses are processed concurrently; the pool width is controlled by the
global --parallel flag.`,
		Example: `  # Report over all courses
  mdlreport report

  # Report for a single course
  mdlreport report --courseid 42

  # Report for the courses listed in a file
  mdlreport report --courses-file courses.txt

  # Wider pool, longer per-request timeout
  mdlreport report --parallel 16 --timeout 120s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, courseID, coursesFile, outputDir)
		},
	}

	cmd.Flags().IntVar(&courseID, "courseid", 0, "restrict the report to a single course id")
	cmd.Flags().StringVar(&coursesFile, "courses-file", "", "file listing course ids or full names, one per line")
	cmd.Flags().StringVar(&outputDir, "dir", ".", "directory to write the workbook into")

	return cmd
}

func runReport(cmd *cobra.Command, courseID int, coursesFile, outputDir string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("%s", util.FriendlyError(err))
	}

	filter, err := resolveScope(courseID, coursesFile)
	if err != nil {
		return err
	}

	client := moodle.NewClient(cfg.URL, cfg.Token,
		moodle.WithTimeout(cfg.Defaults.Timeout),
		moodle.WithLogger(logger),
	)

	logger.Info("fetching course list", "url", cfg.URL, "filter", filter)

	courses, err := client.Courses(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to fetch courses: %w", err)
	}
	if len(courses) == 0 {
		logger.Warn("no courses matched the filter", "filter", filter)
	}

	logger.Info("courses selected", "count", len(courses))

	results := aggregate(ctx, client, courses, cfg.Defaults.Parallel, logger, cmd.OutOrStdout())

	workbookPath, err := writeWorkbook(results, outputDir)
	if err != nil {
		return err
	}

	if err := printResults(cmd, results, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report saved: %s\n", workbookPath)
	return nil
}

// loadConfig merges the config file with flag and environment overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	mgr := config.NewManager(viper.ConfigFileUsed())
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	// Flags and MDLREPORT_* env vars take precedence over the file
	if v := viper.GetString("url"); v != "" {
		cfg.URL = strings.TrimRight(v, "/")
	}
	if v := viper.GetString("token"); v != "" {
		cfg.Token = v
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Defaults.Parallel = viper.GetInt("parallel")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Defaults.Timeout = viper.GetDuration("timeout")
	}
	if v := viper.GetString("output"); v != "" {
		cfg.Defaults.OutputFormat = v
	}
	if viper.GetBool("no-color") {
		cfg.Defaults.NoColor = true
	}

	return cfg, nil
}

// resolveScope turns the --courseid / --courses-file flags into a course
// filter. An empty filter selects every course. When both flags are given
// the course id wins and the file is ignored.
func resolveScope(courseID int, coursesFile string) ([]string, error) {
	if courseID != 0 {
		return []string{strconv.Itoa(courseID)}, nil
	}

	if coursesFile != "" {
		return readCoursesFile(coursesFile)
	}

	return nil, nil
}

// readCoursesFile reads course ids or full names, one per line.
// Blank lines and surrounding whitespace are ignored.
func readCoursesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open courses file: %w", err)
	}
	defer f.Close()

	var filter []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		filter = append(filter, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read courses file: %w", err)
	}

	if len(filter) == 0 {
		return nil, fmt.Errorf("courses file %s contains no entries", path)
	}

	return filter, nil
}

// aggregate runs the per-course aggregation across the worker pool,
// reporting progress on out
func aggregate(ctx context.Context, client *moodle.Client, courses []moodle.Course, parallel int, logger *slog.Logger, out io.Writer) []executor.Result {
	agg := report.NewAggregator(client, logger)
	pool := executor.NewPool(parallel, logger)

	for _, course := range courses {
		course := course // capture for closure

		task := executor.Task{
			CourseName: course.FullName,
			Execute: func(ctx context.Context) (interface{}, error) {
				return agg.Run(ctx, course)
			},
		}

		if err := pool.Submit(task); err != nil {
			logger.Error("failed to submit task", "course", course.FullName, "error", err)
		}
	}

	return pool.ExecuteWithProgress(ctx, func(completed, total int) {
		fmt.Fprintf(out, "Processed %d/%d courses\n", completed, total)
	})
}

// writeWorkbook merges the per-course results into one workbook on disk.
// Failed courses are logged and left out of the workbook; the workbook is
// written even when nothing succeeded, covering whatever rows were
// collected.
func writeWorkbook(results []executor.Result, outputDir string) (string, error) {
	var consolidated []report.ConsolidatedRow
	var enrollments []report.EnrollmentRow
	var perCourse []*report.CourseReport

	for _, result := range results {
		if result.Error != nil {
			slog.Error("course aggregation failed", "course", result.CourseName, "error", result.Error)
			continue
		}

		rep, ok := result.Data.(*report.CourseReport)
		if !ok {
			continue
		}

		perCourse = append(perCourse, rep)
		consolidated = append(consolidated, rep.Consolidated...)
		enrollments = append(enrollments, rep.Enrollments...)
	}

	path := filepath.Join(outputDir, report.Filename(time.Now()))
	if err := report.WriteWorkbook(path, consolidated, perCourse, enrollments); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}

	return path, nil
}

// printResults renders the per-course status table (or json/yaml)
func printResults(cmd *cobra.Command, results []executor.Result, cfg *config.Config) error {
	var format output.Format
	switch cfg.Defaults.OutputFormat {
	case "json":
		format = output.FormatJSON
	case "yaml":
		format = output.FormatYAML
	default:
		format = output.FormatTable
	}

	formatter := output.NewFormatter(format, output.WithNoColor(cfg.Defaults.NoColor))

	// Row counts read better than the raw aggregation structs
	display := make([]executor.Result, len(results))
	for i, result := range results {
		display[i] = result
		if rep, ok := result.Data.(*report.CourseReport); ok {
			display[i].Data = fmt.Sprintf("%d rows", len(rep.Rows))
		}
	}

	return formatter.FormatMultiCourse(cmd.OutOrStdout(), display)
}
