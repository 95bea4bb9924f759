package schedule

import (
	"strings"
	"time"
	"unicode"
)

// Treatment types offered in the booking form. When "Otro" is chosen the
// free-text description entered by the practitioner is stored as the type.
const (
	TreatmentConsultation = "Consulta"
	TreatmentCleaning     = "Limpieza dental"
	TreatmentExtraction   = "Extracción"
	TreatmentWhitening    = "Blanqueamiento"
	TreatmentOrthodontics = "Ortodoncia"
	TreatmentImplant      = "Implante dental"
	TreatmentOther        = "Otro"
)

// Appointment is one scheduled clinical visit, always owned by a single
// practitioner. ScheduledAt is a UTC instant that resolves to one of the
// half-hour grid slots in the clinic's time zone.
type Appointment struct {
	ID             int64
	PractitionerID int64
	PatientName    string
	PatientDNI     string
	TreatmentType  string
	ScheduledAt    time.Time
	Completed      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Draft carries the user-entered fields of a new appointment. The slot is
// passed separately because it is validated against the grid first.
type Draft struct {
	PatientName      string
	PatientDNI       string
	TreatmentType    string
	OtherDescription string
}

// Patch is a partial update. Nil fields are left untouched. Completed is
// deliberately absent: it only moves through MarkCompleted.
type Patch struct {
	PatientName   *string
	PatientDNI    *string
	TreatmentType *string
	ScheduledAt   *time.Time
}

func TreatmentTypes() []string {
	return []string{
		TreatmentConsultation,
		TreatmentCleaning,
		TreatmentExtraction,
		TreatmentWhitening,
		TreatmentOrthodontics,
		TreatmentImplant,
		TreatmentOther,
	}
}

func KnownTreatmentType(s string) bool {
	for _, t := range TreatmentTypes() {
		if s == t {
			return true
		}
	}
	return false
}

// NormalizePatientName trims the name and capitalizes only the first rune,
// lowercasing the rest ("ana lopez" -> "Ana lopez").
func NormalizePatientName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ValidDNI accepts the empty string (the field is optional) or digits only.
func ValidDNI(dni string) bool {
	for _, r := range dni {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
