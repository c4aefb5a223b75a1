// Package report turns Moodle course data into completion report rows and
// writes them to an xlsx workbook.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aryankumar/mdlreport/internal/moodle"
)

// Row is one per-course detail row. It is map-backed because custom
// profile fields merge arbitrary keys into the row; the workbook writer
// looks values up by header name and defaults missing cells to "".
type Row map[string]interface{}

// ConsolidatedRow is one row of the cross-course summary sheet
type ConsolidatedRow struct {
	UserID           int
	FullName         string
	Manager          string
	Email            string
	CourseID         int
	CourseName       string
	LastAccess       string
	Roles            string
	CompletionPct    int
	CompletionStatus string
}

// EnrollmentRow is one row of the global enrollment sheet
type EnrollmentRow struct {
	UserID          int
	FullName        string
	UserName        string
	Email           string
	CourseID        int
	CourseName      string
	CourseShortName string
	Roles           string
	LastAccess      string
}

// activityColumn pairs a course-module id with its display column name
type activityColumn struct {
	id   int
	name string
}

// CourseReport holds every row produced for one course
type CourseReport struct {
	Course moodle.Course

	// ActivityColumns are the per-activity column names in discovery order
	ActivityColumns []string

	// Rows are the per-course detail rows
	Rows []Row

	Consolidated []ConsolidatedRow
	Enrollments  []EnrollmentRow
}

// Aggregator produces report rows for individual courses
type Aggregator struct {
	client *moodle.Client
	logger *slog.Logger
}

// NewAggregator creates an aggregator over the given Moodle client
func NewAggregator(client *moodle.Client, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		client: client,
		logger: logger,
	}
}

// Run aggregates all rows for one course.
//
// A failure fetching the course contents propagates to the caller; a
// failure fetching the enrolled users is absorbed here: the course is
// logged and contributes empty row sets. Completion queries never fail
// (they fall back to "N/A" / empty at the query layer), so a run past the
// enrolled-users fetch always succeeds.
func (a *Aggregator) Run(ctx context.Context, course moodle.Course) (*CourseReport, error) {
	a.logger.Info("processing course", "course", course.FullName, "id", course.ID)

	activities, err := a.client.CourseActivities(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities for course %q: %w", course.FullName, err)
	}

	columns := make([]activityColumn, 0, len(activities))
	for _, act := range activities {
		columns = append(columns, activityColumn{
			id:   act.ID,
			name: capitalize(act.ModName) + ": " + act.Name,
		})
	}

	rep := &CourseReport{
		Course:          course,
		ActivityColumns: columnNames(columns),
	}

	users, err := a.client.EnrolledUsers(ctx, course.ID)
	if err != nil {
		a.logger.Warn("failed to get enrolled users",
			"course", course.FullName,
			"error", err)
		return rep, nil
	}

	for _, user := range users {
		pct, status := a.client.CourseCompletion(ctx, course.ID, user.ID)
		activityStatus := a.client.ActivityCompletion(ctx, course.ID, user.ID)

		rep.Rows = append(rep.Rows, buildCourseRow(course, user, columns, activityStatus, pct, status))

		rep.Consolidated = append(rep.Consolidated, ConsolidatedRow{
			UserID:           user.ID,
			FullName:         user.FullName,
			Email:            user.Email,
			CourseID:         course.ID,
			CourseName:       course.FullName,
			LastAccess:       lastAccess(user),
			Roles:            roleNames(user),
			CompletionPct:    pct,
			CompletionStatus: status,
		})

		rep.Enrollments = append(rep.Enrollments, EnrollmentRow{
			UserID:          user.ID,
			FullName:        user.FullName,
			UserName:        user.UserName,
			Email:           user.Email,
			CourseID:        course.ID,
			CourseName:      course.FullName,
			CourseShortName: course.ShortName,
			Roles:           roleNames(user),
			LastAccess:      lastAccess(user),
		})
	}

	return rep, nil
}

// buildCourseRow assembles one per-course detail row. Custom profile
// fields are merged in last, so a custom field sharing a shortname with a
// standard column silently overwrites it; this matches the historical
// behavior of the report.
func buildCourseRow(course moodle.Course, user moodle.User, columns []activityColumn, activityStatus map[int]string, pct int, status string) Row {
	row := Row{
		"Course ID":        course.ID,
		"Course Name":      course.FullName,
		"Course Shortname": course.ShortName,

		"User ID":     user.ID,
		"Full Name":   user.FullName,
		"Username":    user.UserName,
		"Email":       user.Email,
		"Department":  user.Department,
		"Institution": user.Institution,
		"City":        user.City,
		"Country":     user.Country,
		"Last Access": lastAccess(user),
		"Role(s)":     roleNames(user),

		"Completion %":             pct,
		"Course Completion Status": status,
	}

	for _, field := range user.CustomFields {
		key := field.ShortName
		if key == "" {
			key = field.Name
		}
		row[key] = field.Value
	}

	for _, col := range columns {
		label, ok := activityStatus[col.id]
		if !ok {
			label = moodle.StatusIncomplete
		}
		row[col.name] = label
	}

	return row
}

// columnNames projects the display names out of the column list
func columnNames(columns []activityColumn) []string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.name
	}
	return names
}

// roleNames joins a user's role names; a role without a name falls back
// to its numeric role id
func roleNames(user moodle.User) string {
	names := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		name := role.Name
		if name == "" {
			name = strconv.Itoa(role.RoleID)
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// lastAccess renders the last-access timestamp, empty when the user has
// never accessed the site
func lastAccess(user moodle.User) string {
	if user.LastAccess == 0 {
		return ""
	}
	return time.Unix(user.LastAccess, 0).Format("2006-01-02 15:04:05")
}

// capitalize upper-cases the first rune and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
