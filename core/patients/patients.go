// Package patients holds the per-call patient record and its deterministic
// textual rendering for model context injection.
package patients

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
)

// Record is the static snapshot of one patient loaded at session start. The
// conversation never mutates it; sessions work on a Snapshot copy.
type Record struct {
	ID     string
	Name   string
	Age    int
	Gender string

	PrimaryDiagnosis string

	SurgicalHistory    []SurgicalEntry
	Medications        []Medication
	Allergies          []string
	Vitals             VitalSigns
	PostOpInstructions []string

	NextAppointment  time.Time
	EmergencyContact EmergencyContact

	// PreviousCalls is ordered oldest first.
	PreviousCalls []CallLog
}

type SurgicalEntry struct {
	Procedure string
	Date      string
	Surgeon   string
	Hospital  string
	Notes     string
}

type Medication struct {
	Name      string
	Dosage    string
	Frequency string
}

type VitalSigns struct {
	BloodPressure string
	HeartRate     string
	Temperature   string
	Weight        string
	Height        string
}

type EmergencyContact struct {
	Name  string
	Phone string
}

type CallLog struct {
	Date      string
	Summary   string
	PainLevel int
	Symptoms  []string
}

// Snapshot returns a deep copy so a session cannot alias the caller's slices.
func (r Record) Snapshot() Record {
	var snapshot Record
	if err := copier.CopyWithOption(&snapshot, &r, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on type mismatches, which cannot happen when
		// copying a value onto its own type.
		return r
	}
	return snapshot
}

// FirstName returns the given name used in conversational phrasing.
func (r Record) FirstName() string {
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// PrimarySurgery returns the most relevant surgical entry, the one the
// check-in call is about.
func (r Record) PrimarySurgery() SurgicalEntry {
	if len(r.SurgicalHistory) == 0 {
		return SurgicalEntry{}
	}
	return r.SurgicalHistory[0]
}

// Anticoagulant finds the blood-clot prevention medication referenced by the
// interrupt-protocol risk framing, if the patient is on one.
func (r Record) Anticoagulant() *Medication {
	for i, med := range r.Medications {
		if strings.Contains(strings.ToLower(med.Frequency), "clot") {
			return &r.Medications[i]
		}
	}
	return nil
}

// LastPainLevel reports the pain level from the most recent prior call, or
// false when there is no call history.
func (r Record) LastPainLevel() (int, bool) {
	if len(r.PreviousCalls) == 0 {
		return 0, false
	}
	return r.PreviousCalls[len(r.PreviousCalls)-1].PainLevel, true
}

// Context renders the record into the fixed-order textual block injected into
// model context. The rendering is deterministic: the same record always
// produces byte-identical output. Missing optional fields render as empty
// sections.
func (r Record) Context() string {
	b := strings.Builder{}

	b.WriteString("PATIENT PROFILE:\n")
	fmt.Fprintf(&b, "- Name: %s, Age: %d, Gender: %s\n", r.Name, r.Age, r.Gender)
	fmt.Fprintf(&b, "- Patient ID: %s\n", r.ID)
	fmt.Fprintf(&b, "- Primary Diagnosis: %s\n", r.PrimaryDiagnosis)

	b.WriteString("\nSURGICAL HISTORY:\n")
	for _, s := range r.SurgicalHistory {
		fmt.Fprintf(&b, "- %s on %s by %s at %s. %s\n", s.Procedure, s.Date, s.Surgeon, s.Hospital, s.Notes)
	}

	b.WriteString("\nCURRENT MEDICATIONS:\n")
	for _, m := range r.Medications {
		fmt.Fprintf(&b, "- %s %s — %s\n", m.Name, m.Dosage, m.Frequency)
	}

	fmt.Fprintf(&b, "\nALLERGIES: %s\n", strings.Join(r.Allergies, ", "))

	b.WriteString("\nVITAL SIGNS (Last Recorded):\n")
	fmt.Fprintf(&b, "- BP: %s, HR: %s, Temp: %s\n", r.Vitals.BloodPressure, r.Vitals.HeartRate, r.Vitals.Temperature)

	b.WriteString("\nPOST-OP INSTRUCTIONS:\n")
	for _, instruction := range r.PostOpInstructions {
		fmt.Fprintf(&b, "- %s\n", instruction)
	}

	if !r.NextAppointment.IsZero() {
		fmt.Fprintf(&b, "\nNEXT APPOINTMENT: %s\n", r.NextAppointment.Format("2006-01-02"))
	}

	b.WriteString("\nPREVIOUS CALL LOGS (most recent first):\n")
	for i := len(r.PreviousCalls) - 1; i >= 0; i-- {
		c := r.PreviousCalls[i]
		fmt.Fprintf(&b, "- %s: Pain %d/10 — %s\n", c.Date, c.PainLevel, c.Summary)
	}

	return strings.TrimRight(b.String(), "\n")
}
