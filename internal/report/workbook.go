package report

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	consolidatedSheetName = "All Courses – Consolidated"
	enrollmentSheetName   = "Enrollments"

	// fallbackSheetName is used when sanitization empties a course name
	fallbackSheetName = "Course"

	// sheetNameLimit is the hard sheet-name length limit of the xlsx format
	sheetNameLimit = 31

	// Column widths are clamped to this range, in character-width units
	minColumnWidth = 12
	maxColumnWidth = 60
)

var consolidatedHeaders = []string{
	"User ID", "Full Name", "Manager", "Email", "Course ID", "Course Name",
	"Last Access", "Role(s)", "Completion %", "Course Completion Status",
}

var courseBaseHeaders = []string{
	"Course ID", "Course Name", "Course Shortname",
	"User ID", "Full Name", "Username", "Email",
	"Department", "Institution", "City", "Country", "Last Access", "Role(s)",
}

var courseTrailingHeaders = []string{"Completion %", "Course Completion Status"}

var enrollmentHeaders = []string{
	"User ID", "Full Name", "Username", "Email", "Course ID", "Course Name",
	"Course Shortname", "Role(s)", "Last Access",
}

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// Filename returns the report file name for the given timestamp
func Filename(t time.Time) string {
	return "Moodle_Completion_Report_" + t.Format("20060102_150405") + ".xlsx"
}

// WriteWorkbook writes the complete report to path: the consolidated
// sheet, one sheet per course sorted by short name, and the enrollment
// sheet. Column widths on every sheet are sized to the longest rendered
// value, clamped to [12, 60].
func WriteWorkbook(path string, consolidated []ConsolidatedRow, perCourse []*CourseReport, enrollments []EnrollmentRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", consolidatedSheetName); err != nil {
		return fmt.Errorf("failed to create consolidated sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(consolidated))
	for _, r := range consolidated {
		rows = append(rows, []interface{}{
			r.UserID, r.FullName, r.Manager, r.Email, r.CourseID, r.CourseName,
			r.LastAccess, r.Roles, r.CompletionPct, r.CompletionStatus,
		})
	}
	if err := writeSheet(f, consolidatedSheetName, consolidatedHeaders, rows); err != nil {
		return err
	}

	// Deterministic sheet order: sort courses by lowercase short name
	sorted := make([]*CourseReport, len(perCourse))
	copy(sorted, perCourse)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Course.ShortName) < strings.ToLower(sorted[j].Course.ShortName)
	})

	used := map[string]bool{
		consolidatedSheetName: true,
		enrollmentSheetName:   true,
	}

	for _, rep := range sorted {
		name := uniqueSheetName(used, sanitizeSheetName(rep.Course.ShortName))

		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}

		headers := make([]string, 0, len(courseBaseHeaders)+len(rep.ActivityColumns)+len(courseTrailingHeaders))
		headers = append(headers, courseBaseHeaders...)
		headers = append(headers, rep.ActivityColumns...)
		headers = append(headers, courseTrailingHeaders...)

		courseRows := make([][]interface{}, 0, len(rep.Rows))
		for _, row := range rep.Rows {
			values := make([]interface{}, len(headers))
			for i, h := range headers {
				if v, ok := row[h]; ok {
					values[i] = v
				} else {
					values[i] = ""
				}
			}
			courseRows = append(courseRows, values)
		}

		if err := writeSheet(f, name, headers, courseRows); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(enrollmentSheetName); err != nil {
		return fmt.Errorf("failed to create enrollment sheet: %w", err)
	}

	enrollmentRows := make([][]interface{}, 0, len(enrollments))
	for _, r := range enrollments {
		enrollmentRows = append(enrollmentRows, []interface{}{
			r.UserID, r.FullName, r.UserName, r.Email, r.CourseID, r.CourseName,
			r.CourseShortName, r.Roles, r.LastAccess,
		})
	}
	if err := writeSheet(f, enrollmentSheetName, enrollmentHeaders, enrollmentRows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

// writeSheet writes the header and data rows to a sheet and sizes its
// columns
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	maxLens := make([]int, len(headers))

	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
		maxLens[i] = len(h)
	}

	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header row on %q: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell on %q: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d on %q: %w", i+2, sheet, err)
		}

		for col, value := range row {
			if col >= len(maxLens) {
				break
			}
			if l := len(fmt.Sprint(value)); l > maxLens[col] {
				maxLens[col] = l
			}
		}
	}

	for col, maxLen := range maxLens {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to compute column name on %q: %w", sheet, err)
		}
		if err := f.SetColWidth(sheet, name, name, columnWidth(maxLen)); err != nil {
			return fmt.Errorf("failed to size column %s on %q: %w", name, sheet, err)
		}
	}

	return nil
}

// columnWidth converts the longest rendered value length into a column
// width, clamped to [minColumnWidth, maxColumnWidth]
func columnWidth(maxLen int) float64 {
	width := maxLen + 2
	if width < minColumnWidth {
		width = minColumnWidth
	}
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	return float64(width)
}

// sanitizeSheetName strips everything but letters and digits and caps the
// result at the sheet-name limit; an empty result falls back to "Course"
func sanitizeSheetName(name string) string {
	cleaned := nonAlphanumeric.ReplaceAllString(name, "")
	if len(cleaned) > sheetNameLimit {
		cleaned = cleaned[:sheetNameLimit]
	}
	if cleaned == "" {
		return fallbackSheetName
	}
	return cleaned
}

// uniqueSheetName suffixes a number when the sanitized name is already
// taken, keeping the result within the length limit
func uniqueSheetName(used map[string]bool, name string) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		suffix := strconv.Itoa(i)
		base := name
		if len(base)+len(suffix) > sheetNameLimit {
			base = base[:sheetNameLimit-len(suffix)]
		}
		candidate = base + suffix
	}
	used[candidate] = true
	return candidate
}
