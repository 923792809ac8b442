package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

// Tool names.
const (
	GetPatientInfo         = "get_patient_info"
	GetAppointments        = "get_appointments"
	GetDoctorInfo          = "get_doctor_info"
	GetMedicalRecords      = "get_medical_records"
	GetDatabaseSchema      = "get_database_schema"
	TestDatabaseConnection = "test_database_connection"
)

const (
	connectionOKText     = "Database connection successful!"
	connectionFailedText = "Database connection failed."
)

type hospitalTools struct {
	store  Store
	logger *zap.Logger
}

func (h *hospitalTools) tools() []Tool {
	return []Tool{
		h.entityTool(GetPatientInfo, query.Patients, "retrieving patient information",
			"Retrieves patient information from the hospital database. Use this when asked about a specific patient by ID or name. "+
				"Returns patient details including name, age, gender, contact, and admission date."),
		h.entityTool(GetAppointments, query.Appointments, "retrieving appointments",
			"Retrieves appointment information from the hospital database. Use this when asked about appointments for a specific patient, doctor, or date. "+
				"Returns appointment details including date, time, doctor, and status."),
		h.entityTool(GetDoctorInfo, query.Doctors, "retrieving doctor information",
			"Retrieves doctor information from the hospital database. Use this when asked about doctors, their specializations, or availability. "+
				"Returns doctor details including name, specialization, and contact."),
		h.entityTool(GetMedicalRecords, query.MedicalRecords, "retrieving medical records",
			"Retrieves medical records for a patient from the hospital database. Use this when asked about a patient's medical history, diagnoses, or treatments. "+
				"Returns diagnosis, treatment, and prescription information."),
		{
			Name: GetDatabaseSchema,
			Description: "Retrieves the database schema information. Use this to understand the structure of the database tables and their columns. " +
				"Helpful when you need to know what data is available.",
			handler: h.schema,
		},
		{
			Name:        TestDatabaseConnection,
			Description: "Tests the database connection to ensure it is working properly.",
			handler:     h.ping,
		},
	}
}

// entityTool wires an entity through the builder and the store.
func (h *hospitalTools) entityTool(name string, entity query.Entity, action, description string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Params:      paramsFor(entity),
		handler: func(ctx context.Context, args map[string]any) Result {
			stmt, err := entity.Build(args)
			if err != nil {
				return Failure(action, err)
			}
			for _, s := range stmt.Suspicious {
				h.logger.Warn("Possible SQL injection in filter value",
					zap.String("tool", name),
					zap.String("filter", s.FilterName),
					zap.String("fingerprint", s.Fingerprint))
			}

			rows, err := h.store.Query(ctx, stmt)
			if err != nil {
				return Failure(action, err)
			}
			if len(rows) == 0 {
				return Success(emptyMessage(entity, stmt.Applied))
			}
			return renderJSON(action, rows)
		},
	}
}

func (h *hospitalTools) schema(ctx context.Context, _ map[string]any) Result {
	const action = "retrieving database schema"
	schema, err := h.store.Schema(ctx)
	if err != nil {
		return Failure(action, err)
	}
	return renderJSON(action, schema)
}

// ping reports connectivity as text. An unreachable database is a normal
// answer for this tool, not a failure.
func (h *hospitalTools) ping(ctx context.Context, _ map[string]any) Result {
	if _, err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Database connection check failed", zap.Error(err))
		return Success(connectionFailedText)
	}
	return Success(connectionOKText)
}

// emptyMessage renders the zero-row message for an entity, echoing the
// first applied id filter when there is one:
//
//	No medical records found for patient ID 4.
//	No doctors found with the given criteria.
func emptyMessage(entity query.Entity, applied []query.AppliedFilter) string {
	plural := inflection.Plural(entity.Noun)
	for _, a := range applied {
		if a.Kind != query.KindID {
			continue
		}
		return fmt.Sprintf("No %s found for %s ID %v.", plural, idSubject(a.Name), a.Value)
	}
	return fmt.Sprintf("No %s found with the given criteria.", plural)
}

// idSubject turns "patient_id" into "patient".
func idSubject(filter string) string {
	if len(filter) > 3 && filter[len(filter)-3:] == "_id" {
		return filter[:len(filter)-3]
	}
	return filter
}

func renderJSON(action string, v any) Result {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Failure(action, fmt.Errorf("failed to encode result: %w", err))
	}
	return Success(string(out))
}

var _ Store = (*database.QueryExecutor)(nil)
