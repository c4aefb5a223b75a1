package moodle

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Courses fetches all courses visible to the token's account.
// If filter is non-empty, only courses whose numeric id (as a string) or
// full name matches one of the entries are returned; name matching is
// case-insensitive. Unmatched filter entries are silently ignored.
func (c *Client) Courses(ctx context.Context, filter []string) ([]Course, error) {
	var resp coursesResponse
	if err := c.Call(ctx, "core_course_get_courses_by_field", nil, &resp); err != nil {
		return nil, err
	}

	if len(filter) == 0 {
		return resp.Courses, nil
	}

	wanted := make(map[string]bool, len(filter))
	for _, entry := range filter {
		wanted[strings.ToLower(strings.TrimSpace(entry))] = true
	}

	matched := make([]Course, 0, len(resp.Courses))
	for _, course := range resp.Courses {
		if wanted[strconv.Itoa(course.ID)] || wanted[strings.ToLower(course.FullName)] {
			matched = append(matched, course)
		}
	}

	return matched, nil
}

// EnrolledUsers fetches the users enrolled in a course
func (c *Client) EnrolledUsers(ctx context.Context, courseID int) ([]User, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}

	var users []User
	if err := c.Call(ctx, "core_enrol_get_enrolled_users", params, &users); err != nil {
		return nil, err
	}

	return users, nil
}

// CourseActivities fetches the course contents and flattens the sections
// into an ordered activity list. Modules hidden from users or pending
// deletion are dropped; a missing uservisible field counts as visible.
func (c *Client) CourseActivities(ctx context.Context, courseID int) ([]Activity, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}

	var sections []section
	if err := c.Call(ctx, "core_course_get_contents", params, &sections); err != nil {
		return nil, err
	}

	var activities []Activity
	for _, sec := range sections {
		for _, mod := range sec.Modules {
			if mod.UserVisible != nil && !*mod.UserVisible {
				continue
			}
			if mod.DeletionInProgress {
				continue
			}
			activities = append(activities, Activity{
				ID:      mod.ID,
				Name:    mod.Name,
				ModName: mod.ModName,
			})
		}
	}

	return activities, nil
}

// CourseCompletion returns the course-level completion percentage and label
// for one user. Any failure, including a payload without a completion
// status, yields (0, "N/A") rather than an error; "N/A" marks a status that
// could not be retrieved, distinct from a genuine "Incomplete".
func (c *Client) CourseCompletion(ctx context.Context, courseID, userID int) (int, string) {
	params := url.Values{
		"courseid": {strconv.Itoa(courseID)},
		"userid":   {strconv.Itoa(userID)},
	}

	var resp courseCompletionResponse
	if err := c.Call(ctx, "core_completion_get_course_completion_status", params, &resp); err != nil {
		return 0, StatusUnknown
	}

	if resp.CompletionStatus == nil {
		return 0, StatusUnknown
	}

	if resp.CompletionStatus.Completed {
		return 100, StatusCompleted
	}
	return 0, StatusIncomplete
}

// ActivityCompletion returns the per-activity completion labels for one
// user, keyed by course-module id. States 1 and 2 map to "Completed",
// state 3 to "Failed", anything else to "Incomplete". On failure an empty
// map is returned; callers default missing activities to "Incomplete".
func (c *Client) ActivityCompletion(ctx context.Context, courseID, userID int) map[int]string {
	params := url.Values{
		"courseid": {strconv.Itoa(courseID)},
		"userid":   {strconv.Itoa(userID)},
	}

	statuses := make(map[int]string)

	var resp activityCompletionResponse
	if err := c.Call(ctx, "core_completion_get_activities_completion_status", params, &resp); err != nil {
		return statuses
	}

	for _, s := range resp.Statuses {
		switch s.State {
		case 1, 2:
			statuses[s.CMID] = StatusCompleted
		case 3:
			statuses[s.CMID] = StatusFailed
		default:
			statuses[s.CMID] = StatusIncomplete
		}
	}

	return statuses
}
