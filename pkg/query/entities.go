package query

// Patients lists patients, optionally by id or partial name.
var Patients = Entity{
	Name: "patients",
	Noun: "patient",
	Base: "SELECT * FROM patients",
	Filters: []Filter{
		{Name: "patient_id", Column: "patient_id", Kind: KindID, Description: "The patient ID to search for"},
		{Name: "patient_name", Column: "name", Kind: KindText, Description: "The patient name to search for (partial match supported)"},
	},
}

// Doctors lists doctors, optionally by id or partial specialization.
var Doctors = Entity{
	Name: "doctors",
	Noun: "doctor",
	Base: "SELECT * FROM doctors",
	Filters: []Filter{
		{Name: "doctor_id", Column: "doctor_id", Kind: KindID, Description: "The doctor ID to search for"},
		{Name: "specialization", Column: "specialization", Kind: KindText, Description: "The specialization to filter doctors by"},
	},
}

// Appointments lists appointments with patient and doctor display names, most recent first.
var Appointments = Entity{
	Name: "appointments",
	Noun: "appointment",
	Base: "SELECT a.*, p.name AS patient_name, d.name AS doctor_name, d.specialization" +
		" FROM appointments a" +
		" LEFT JOIN patients p ON a.patient_id = p.patient_id" +
		" LEFT JOIN doctors d ON a.doctor_id = d.doctor_id",
	Filters: []Filter{
		{Name: "patient_id", Column: "a.patient_id", Kind: KindID, Description: "The patient ID to search appointments for"},
		{Name: "doctor_id", Column: "a.doctor_id", Kind: KindID, Description: "The doctor ID to search appointments for"},
		{Name: "appointment_date", Column: "a.appointment_date", Kind: KindDate, Description: "The appointment date to search for (YYYY-MM-DD format)"},
	},
	OrderBy: "a.appointment_date DESC",
}

// MedicalRecords lists one patient's records with display names, most recent first.
var MedicalRecords = Entity{
	Name: "medical_records",
	Noun: "medical record",
	Base: "SELECT mr.*, p.name AS patient_name, d.name AS doctor_name" +
		" FROM medical_records mr" +
		" LEFT JOIN patients p ON mr.patient_id = p.patient_id" +
		" LEFT JOIN doctors d ON mr.doctor_id = d.doctor_id",
	Filters: []Filter{
		{Name: "patient_id", Column: "mr.patient_id", Kind: KindID, Description: "The patient ID to retrieve medical records for"},
	},
	Required: []string{"patient_id"},
	OrderBy:  "mr.record_date DESC",
}
