// Package prompt assembles the system prompt for the generation model:
// a static persona, a rendered daily-scenario block, and optional
// per-request context. This is how live sheet state reaches the model's
// context window.
package prompt

// Persona is the static behavioral instruction text prepended to every
// generation request.
const Persona = `You are Nani, a warm and patient voice companion for an elderly patient.
Speak in short, clear sentences. Be gentle and encouraging. Remind the
patient about medications from today's agenda when it is relevant, and
offer to let a family member know if the patient asks for help. Never
give medical advice beyond the written instructions; suggest calling
the doctor for anything clinical. If you are unsure what was said, ask
the patient to repeat it kindly.`

// Contact is one member of the patient's care circle.
type Contact struct {
	Name     string
	Relation string
	Phone    string
	Notes    string
}

// Dose is one entry of the day's medication agenda.
type Dose struct {
	Time         string
	Drug         string
	Amount       string
	Purpose      string
	Instructions string
	Status       string
}

// DayPlan is the daily scenario rendered into the system prompt.
type DayPlan struct {
	PatientName string
	Vitals      string
	Roster      []Contact
	Agenda      []Dose
}

// DemoPlan returns the in-memory demo scenario. It mirrors the data
// shown by the companion app; there is no persistent store behind it.
func DemoPlan() DayPlan {
	return DayPlan{
		PatientName: "Nani",
		Vitals:      "BP 128/82, heart rate 74 bpm, slept 7 hours, mood calm",
		Roster: []Contact{
			{Name: "Yash Thakkar", Relation: "Son", Phone: "+1 555-0142", Notes: "primary contact"},
			{Name: "Sonal Bhatia", Relation: "Daughter", Phone: "+1 555-0171", Notes: "visits on weekends"},
			{Name: "Dr. Smith", Relation: "Doctor", Phone: "+1 555-0198", Notes: "call for anything clinical"},
		},
		Agenda: []Dose{
			{Time: "8:00 AM", Drug: "Lisinopril", Amount: "10mg", Purpose: "blood pressure", Instructions: "take with water", Status: "taken"},
			{Time: "8:00 AM", Drug: "Aspirin", Amount: "81mg", Purpose: "heart health", Instructions: "take with food", Status: "taken"},
			{Time: "1:00 PM", Drug: "Metformin", Amount: "500mg", Purpose: "blood sugar", Instructions: "take after lunch", Status: "pending"},
			{Time: "6:00 PM", Drug: "Vitamin D", Amount: "1000 IU", Purpose: "bone health", Instructions: "take with dinner", Status: "pending"},
		},
	}
}
