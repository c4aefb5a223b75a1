package moodle

// Course is a Moodle course as returned by core_course_get_courses_by_field
type Course struct {
	// ID is the course identifier
	ID int `json:"id"`

	// FullName is the full display name of the course
	FullName string `json:"fullname"`

	// ShortName is the short name, used for per-course sheet titles
	ShortName string `json:"shortname"`

	// CategoryID is the course category identifier
	CategoryID int `json:"categoryid"`
}

// Role is a role assignment attached to an enrolled user
type Role struct {
	RoleID    int    `json:"roleid"`
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
}

// CustomField is a site-defined profile field attached to a user
// The set of shortnames is not known ahead of time
type CustomField struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Name      string `json:"name"`
	ShortName string `json:"shortname"`
}

// User is an enrolled user as returned by core_enrol_get_enrolled_users
type User struct {
	ID           int           `json:"id"`
	FullName     string        `json:"fullname"`
	UserName     string        `json:"username"`
	Email        string        `json:"email"`
	Department   string        `json:"department"`
	Institution  string        `json:"institution"`
	City         string        `json:"city"`
	Country      string        `json:"country"`
	LastAccess   int64         `json:"lastaccess"`
	Roles        []Role        `json:"roles"`
	CustomFields []CustomField `json:"customfields"`
}

// Activity is a course module that is visible to users and not pending deletion
type Activity struct {
	// ID is the course-module id (cmid), unique within a course
	ID int

	// Name is the display name of the activity
	Name string

	// ModName is the module type tag (quiz, scorm, resource, ...)
	ModName string
}

// section is one entry of the core_course_get_contents response
type section struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Modules []module `json:"modules"`
}

// module is a raw course module inside a section
// UserVisible is a pointer because Moodle omits the field for some module
// types; an absent value means visible
type module struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	ModName            string `json:"modname"`
	UserVisible        *bool  `json:"uservisible"`
	DeletionInProgress bool   `json:"deletioninprogress"`
}

// coursesResponse wraps the course list payload
type coursesResponse struct {
	Courses []Course `json:"courses"`
}

// courseCompletionResponse wraps core_completion_get_course_completion_status
// CompletionStatus is a pointer so a payload without the key can be told
// apart from an incomplete course
type courseCompletionResponse struct {
	CompletionStatus *struct {
		Completed bool `json:"completed"`
	} `json:"completionstatus"`
}

// activityCompletionResponse wraps core_completion_get_activities_completion_status
type activityCompletionResponse struct {
	Statuses []struct {
		CMID  int `json:"cmid"`
		State int `json:"state"`
	} `json:"statuses"`
}

// Completion status labels used throughout the report
const (
	StatusCompleted  = "Completed"
	StatusIncomplete = "Incomplete"
	StatusFailed     = "Failed"
	StatusUnknown    = "N/A"
)
