package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/hospital-site/internal/cms"
)

// Departments lists hospital departments, filtered in memory.
var Departments = &Kind{
	Name:            "departments",
	Resource:        "departments",
	Label:           "Departments",
	CategoryField:   "category",
	DefaultCategory: "clinical",
	TitleKeys:       []string{"name"},
	DefaultTitle:    "Unknown Department",
	SubtitleKeys:    []string{"title"},
	SummaryKeys:     []string{"description"},
	MediaKeys:       []string{"image"},
	Placeholder:     "departments",
	Lists: []ListField{
		{Label: "Services", Key: "services", InCard: true},
		{Label: "Equipment", Key: "equipment"},
		{Label: "Staff", Key: "staff"},
	},
	Facts: []FactField{
		{Label: "Head of Department", Keys: []string{"head_of_department"}, Default: "To be assigned", InCard: true},
		{Label: "Qualification", Keys: []string{"head_qualification"}},
		{Label: "Experience", Keys: []string{"head_experience"}},
		{Label: "Extension", Keys: []string{"extension"}, Default: "N/A", InCard: true},
		{Label: "Email", Keys: []string{"email"}, Default: "info@ktrh.or.ke"},
		{Label: "Location", Keys: []string{"location"}, Default: "Main Hospital Building", InCard: true},
		{Label: "Hours", Keys: []string{"operating_hours"}, Default: "Mon-Fri: 8:00 AM - 5:00 PM, Emergency: 24/7"},
	},
	PageSize: 100,
}

// Doctors lists medical staff grouped by department, nine at a time.
var Doctors = &Kind{
	Name:            "doctors",
	Resource:        "doctors",
	Label:           "Doctors",
	CategoryField:   "department",
	DefaultCategory: "General Medicine",
	TitleKeys:       []string{"name"},
	DefaultTitle:    "Unknown Doctor",
	SubtitleKeys:    []string{"title"},
	DefaultSubtitle: "Medical Doctor",
	SummaryKeys:     []string{"bio"},
	DefaultSummary:  "No biography available.",
	MediaKeys:       []string{"image", "photo"},
	Placeholder:     "doctors",
	FeaturedKeys:    []string{"is_featured"},
	Lists: []ListField{
		{Label: "Specializations", Key: "specializations"},
		{Label: "Languages", Key: "languages"},
	},
	Facts: []FactField{
		{Label: "Experience", Keys: []string{"experience"}, Default: "Not specified", InCard: true},
		{Label: "Consultation Hours", Keys: []string{"consultation_hours", "consultationHours"}, Default: "To be announced", InCard: true},
		{Label: "Qualifications", Keys: []string{"qualifications"}},
		{Label: "Training", Keys: []string{"training"}},
	},
	PageSize:       100,
	VisibleInitial: 9,
	VisibleStep:    6,
}

// Services lists hospital services.
var Services = &Kind{
	Name:            "services",
	Resource:        "services",
	Label:           "Services",
	CategoryField:   "category",
	DefaultCategory: "specialized",
	TitleKeys:       []string{"name"},
	DefaultTitle:    "Unknown Service",
	SummaryKeys:     []string{"short_description", "description"},
	BodyKeys:        []string{"description"},
	MediaKeys:       []string{"image"},
	Placeholder:     "services",
	EmergencyKeys:   []string{"is_emergency_service", "emergency_available"},
	Lists: []ListField{
		{Label: "Features", Key: "features", InCard: true},
		{Label: "Procedures", Key: "procedures"},
		{Label: "Equipment", Key: "equipment"},
		{Label: "Specialists", Key: "specialists"},
	},
	Facts: []FactField{
		{Label: "Operating Hours", Keys: []string{"operating_hours"}, Default: "Mon-Fri: 8AM-6PM", InCard: true},
	},
	PageSize: 100,
}

var jobDepartments = map[string]string{
	"medical":   "Medical",
	"nursing":   "Nursing",
	"admin":     "Administrative",
	"technical": "Technical",
	"other":     "Other",
}

var experienceLevels = map[string]string{
	"entry":  "Entry Level",
	"mid":    "Mid Level",
	"senior": "Senior Level",
}

// Jobs lists open vacancies, newest first.
var Jobs = &Kind{
	Name:            "jobs",
	Resource:        "jobs",
	Label:           "Careers",
	CategoryField:   "department",
	DefaultCategory: "other",
	Categories:      []string{CategoryAll, "medical", "nursing", "admin", "technical", "other"},
	CategoryLabels:  jobDepartments,
	TitleKeys:       []string{"title"},
	DefaultTitle:    "Job Position",
	SubtitleKeys:    []string{"location"},
	DefaultSubtitle: "Kisii, Kenya",
	SummaryKeys:     []string{"description"},
	Placeholder:     "team",
	ActiveKeys:      []string{"isActive"},
	Lists: []ListField{
		{Label: "Requirements", Key: "requirements", InCard: true},
		{Label: "Responsibilities", Key: "responsibilities"},
		{Label: "Qualifications", Key: "qualifications"},
		{Label: "Benefits", Key: "benefits"},
	},
	Facts: []FactField{
		{Label: "Salary", Keys: []string{"salaryRange"}, Default: "Competitive", InCard: true},
		{Label: "Application Link", Keys: []string{"applicationLink"}},
	},
	Sort:     []string{"postedDate:desc"},
	Filters:  map[string]string{"isActive": "true"},
	PageSize: 100,
	Enrich:   enrichJob,
}

func enrichJob(attrs map[string]any, item *Item, now time.Time) {
	jobType := strings.ToLower(orDefault(cms.String(attrs, "jobType"), "full-time"))
	level, ok := experienceLevels[strings.ToLower(cms.String(attrs, "experienceLevel"))]
	if !ok {
		level = experienceLevels["mid"]
	}
	item.Facts = append([]Fact{
		{Label: "Type", Value: titleCase(jobType), InCard: true},
		{Label: "Experience", Value: level, InCard: true},
	}, item.Facts...)

	posted, _ := parseDate(cms.String(attrs, "postedDate"))
	item.Date = TimeAgo(posted, now)

	deadline, ok := parseDate(cms.String(attrs, "deadline"))
	if !ok {
		item.Deadline = "Not specified"
		return
	}
	item.Deadline = deadline.Format("January 2, 2006")
	if days := DaysRemaining(deadline, now); days > 0 && days <= 7 {
		item.Badge = "Closing Soon"
	}
}

// Projects lists capital and community projects.
var Projects = &Kind{
	Name:            "projects",
	Resource:        "projects",
	Label:           "Projects",
	CategoryField:   "category",
	DefaultCategory: "ongoing",
	Categories:      []string{CategoryAll, "ongoing", "completed", "upcoming"},
	TitleKeys:       []string{"title"},
	DefaultTitle:    "Project Title",
	SubtitleKeys:    []string{"status"},
	DefaultSubtitle: "In Progress",
	SummaryKeys:     []string{"shortDescription"},
	DefaultSummary:  "Project description",
	BodyKeys:        []string{"description", "shortDescription"},
	MediaKeys:       []string{"image"},
	Placeholder:     "projects",
	Facts: []FactField{
		{Label: "Budget", Keys: []string{"budget"}, Default: "Not specified", InCard: true},
		{Label: "Progress", Keys: []string{"progress"}, InCard: true},
		{Label: "Partner", Keys: []string{"partner"}},
		{Label: "Contractor", Keys: []string{"contractor"}},
		{Label: "Impact", Keys: []string{"impact"}},
	},
	PageSize: 100,
	Enrich: func(attrs map[string]any, item *Item, _ time.Time) {
		start := formatDate(cms.String(attrs, "startDate"))
		end := formatDate(cms.String(attrs, "endDate"))
		if start == "" && end == "" {
			return
		}
		item.Date = orDefault(start, "TBD") + " - " + orDefault(end, "Ongoing")
	},
}

// Gallery pages through photos and videos on the server.
var Gallery = &Kind{
	Name:            "gallery",
	Resource:        "gallery-items",
	Label:           "Gallery",
	CategoryField:   "category",
	DefaultCategory: "events",
	Categories:      []string{CategoryAll, "events", "facilities", "team", "achievements", "community", "videos"},
	TitleKeys:       []string{"title"},
	DefaultTitle:    "Gallery Item",
	SummaryKeys:     []string{"description"},
	SummaryLimit:    100,
	MediaKeys:       []string{"image", "thumbnail"},
	VideoKey:        "videoUrl",
	SearchFields:    []string{"title", "description"},
	Sort:            []string{"date:desc"},
	ServerSide:      true,
	PageSize:        12,
	Enrich: func(attrs map[string]any, item *Item, now time.Time) {
		if item.ImageURL == "" && item.VideoURL != "" {
			item.ImageURL = cms.VideoThumbnail(item.VideoURL)
		}
		taken, _ := parseDate(cms.String(attrs, "date"))
		item.Date = TimeAgo(taken, now)
	},
}

var registry = map[string]*Kind{}

func init() {
	for _, k := range []*Kind{Departments, Doctors, Services, Jobs, Projects, Gallery} {
		registry[k.Name] = k
	}
}

// Lookup returns the kind registered under name.
func Lookup(name string) (*Kind, bool) {
	k, ok := registry[strings.ToLower(name)]
	return k, ok
}

// Names lists every registered kind in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
