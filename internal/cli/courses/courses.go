// Package courses implements the courses command, which lists the courses
// visible to the configured web-service token.
package courses

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/mdlreport/internal/moodle"
	"github.com/aryankumar/mdlreport/internal/output"
	"github.com/aryankumar/mdlreport/internal/util"
)

// NewCoursesCmd creates the courses command
func NewCoursesCmd() *cobra.Command {
	var coursesFile string

	cmd := &cobra.Command{
		Use:   "courses [filter...]",
		Short: "List courses on the Moodle instance",
		Long: `List the courses visible to the configured web-service token.

Optional filter arguments narrow the list; each argument matches a course
id or a full course name (case-insensitive). A --courses-file adds one
filter entry per non-blank line.`,
		Example: `  # List all courses
  mdlreport courses

  # List a course by id
  mdlreport courses 42

  # List courses by full name
  mdlreport courses "Intro to Go"

  # JSON output
  mdlreport courses -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := args
			if coursesFile != "" {
				fromFile, err := readCoursesFile(coursesFile)
				if err != nil {
					return err
				}
				filter = append(filter, fromFile...)
			}
			return runCourses(cmd, filter)
		},
	}

	cmd.Flags().StringVar(&coursesFile, "courses-file", "", "file listing course ids or full names, one per line")

	return cmd
}

// readCoursesFile reads course ids or full names, one per line.
// Blank lines and surrounding whitespace are ignored.
func readCoursesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open courses file: %w", err)
	}

	var filter []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		filter = append(filter, line)
	}

	return filter, nil
}

func runCourses(cmd *cobra.Command, filter []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	url := strings.TrimRight(viper.GetString("url"), "/")
	token := viper.GetString("token")
	if url == "" {
		return fmt.Errorf("%s", util.FriendlyError(util.NewValidationError("url", nil, "Moodle base URL is required")))
	}
	if token == "" {
		return fmt.Errorf("%s", util.FriendlyError(util.NewValidationError("token", nil, "web-service token is required")))
	}

	client := moodle.NewClient(url, token,
		moodle.WithTimeout(viper.GetDuration("timeout")),
		moodle.WithLogger(logger),
	)

	courses, err := client.Courses(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to fetch courses: %w", err)
	}

	return formatCourses(cmd, courses)
}

func formatCourses(cmd *cobra.Command, courses []moodle.Course) error {
	outputFormat := viper.GetString("output")
	noColor := viper.GetBool("no-color")

	switch outputFormat {
	case "json":
		return output.NewFormatter(output.FormatJSON).Format(cmd.OutOrStdout(), courses)
	case "yaml":
		return output.NewFormatter(output.FormatYAML).Format(cmd.OutOrStdout(), courses)
	}

	return formatCoursesTable(cmd, courses, noColor)
}

func formatCoursesTable(cmd *cobra.Command, courses []moodle.Course, noColor bool) error {
	out := cmd.OutOrStdout()

	if len(courses) == 0 {
		fmt.Fprintln(out, "No courses found")
		return nil
	}

	colors := output.NewColorScheme(out, noColor)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		colors.Header("ID"),
		colors.Header("SHORTNAME"),
		colors.Header("FULLNAME"),
		colors.Header("CATEGORY"))

	for _, course := range courses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n",
			course.ID,
			course.ShortName,
			colors.CourseName(util.TruncateName(course.FullName, 60)),
			course.CategoryID)
	}

	w.Flush()
	fmt.Fprintf(out, "\nTotal: %d courses\n", len(courses))

	return nil
}
