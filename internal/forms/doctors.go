package forms

import "sort"

// DoctorOption is one entry of the appointment doctor select.
type DoctorOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AnyDoctor is offered when a department has no named doctors.
var AnyDoctor = DoctorOption{ID: "any", Name: "Any Available Doctor"}

var doctorNames = map[string]string{
	"dr_smith":    "Dr. John Smith",
	"dr_johnson":  "Dr. Sarah Johnson",
	"dr_williams": "Dr. Michael Williams",
	"dr_brown":    "Dr. Elizabeth Brown",
}

var doctorsByDepartment = map[string][]string{
	"cardiology":    {"dr_smith", "dr_johnson"},
	"neurology":     {"dr_williams"},
	"pediatrics":    {"dr_brown"},
	"orthopedics":   {"dr_smith"},
	"dermatology":   {"dr_johnson"},
	"dentistry":     {"dr_williams"},
	"ophthalmology": {"dr_brown"},
	"emergency":     {"dr_smith", "dr_johnson", "dr_williams"},
	"general":       {"dr_smith", "dr_brown"},
}

// DoctorsFor lists the doctors bookable in department.
func DoctorsFor(department string) []DoctorOption {
	ids, ok := doctorsByDepartment[department]
	if !ok {
		return []DoctorOption{AnyDoctor}
	}
	out := make([]DoctorOption, 0, len(ids))
	for _, id := range ids {
		out = append(out, DoctorOption{ID: id, Name: doctorNames[id]})
	}
	return out
}

// Departments lists departments that accept appointments.
func Departments() []string {
	out := make([]string, 0, len(doctorsByDepartment))
	for d := range doctorsByDepartment {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func doctorAllowed(department, doctor string) bool {
	if doctor == "" || doctor == AnyDoctor.ID {
		return true
	}
	for _, opt := range DoctorsFor(department) {
		if opt.ID == doctor {
			return true
		}
	}
	return false
}

// DoctorName returns the display name for a doctor id.
func DoctorName(id string) string {
	if name, ok := doctorNames[id]; ok {
		return name
	}
	if id == AnyDoctor.ID {
		return AnyDoctor.Name
	}
	return id
}
