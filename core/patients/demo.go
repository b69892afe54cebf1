package patients

import "time"

// Demo returns the sample post-op knee replacement patient used by the demo
// call flow and the tests.
func Demo() Record {
	return Record{
		ID:               "PT-20240312",
		Name:             "Michael Thompson",
		Age:              58,
		Gender:           "Male",
		PrimaryDiagnosis: "Osteoarthritis of the right knee",
		SurgicalHistory: []SurgicalEntry{
			{
				Procedure: "Total Right Knee Replacement (TKR)",
				Date:      "2026-01-28",
				Surgeon:   "Dr. Sarah Chen",
				Hospital:  "St. Mary's General Hospital",
				Notes:     "Uneventful surgery. Cemented prosthesis implanted.",
			},
		},
		Medications: []Medication{
			{Name: "Acetaminophen", Dosage: "500mg", Frequency: "Every 6 hours as needed"},
			{Name: "Celecoxib", Dosage: "200mg", Frequency: "Once daily"},
			{Name: "Enoxaparin", Dosage: "40mg SC", Frequency: "Once daily for 14 days (blood clot prevention)"},
			{Name: "Lisinopril", Dosage: "10mg", Frequency: "Once daily (blood pressure)"},
		},
		Allergies: []string{"Penicillin (rash)", "Latex (mild irritation)"},
		Vitals: VitalSigns{
			BloodPressure: "132/84 mmHg",
			HeartRate:     "76 bpm",
			Temperature:   "36.8°C",
			Weight:        "88 kg",
			Height:        "178 cm",
		},
		PostOpInstructions: []string{
			"Perform prescribed physical therapy exercises 3 times daily",
			"Keep surgical wound clean and dry",
			"Use ice packs for 20 minutes every 2-3 hours to reduce swelling",
			"Use walker or crutches for ambulation",
			"Elevate leg when sitting or lying down",
			"Report any signs of infection: increased redness, warmth, drainage, or fever above 38.3°C",
		},
		NextAppointment: time.Date(2026, time.February, 21, 0, 0, 0, 0, time.UTC),
		EmergencyContact: EmergencyContact{
			Name:  "Linda Thompson (Wife)",
			Phone: "+1-555-0192",
		},
		PreviousCalls: []CallLog{
			{
				Date: "2026-02-03",
				Summary: "First post-op check-in. Pain 7/10 around the knee. Significant swelling. " +
					"Has not started PT exercises yet. Advised to begin gentle range-of-motion exercises " +
					"and ice 20 min every 2-3 hours.",
				PainLevel: 7,
				Symptoms:  []string{"severe knee pain", "swelling", "difficulty bending knee"},
			},
			{
				Date: "2026-02-10",
				Summary: "Second check-in. Pain improved to 5/10. Started PT exercises 2 days ago. " +
					"Reports morning stiffness that loosens up after walking. Mild swelling remains. " +
					"Reminded to keep elevating leg and continue icing.",
				PainLevel: 5,
				Symptoms:  []string{"moderate knee pain", "morning stiffness", "mild swelling"},
			},
		},
	}
}
