package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository"
)

// patientRepository addresses the patients table of the schema passed to each
// call. Schema names come from the tenants table and are always quoted.
type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func patientsTable(schema string) string {
	return pq.QuoteIdentifier(schema) + ".patients"
}

func (r *patientRepository) ExistsForUser(ctx context.Context, schema string, userID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1)`, patientsTable(schema))

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("failed to check patient record: %w", err)
	}
	return exists, nil
}

func (r *patientRepository) CreateWithIdentity(ctx context.Context, schema string, identity *model.Identity, patient *model.Patient) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, patientsTable(schema))

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertIdentity(ctx, tx, identity); err != nil {
			return err
		}

		now := time.Now()
		if patient.ID == uuid.Nil {
			patient.ID = uuid.New()
		}
		patient.UserID = identity.ID
		patient.CreatedAt = now
		patient.UpdatedAt = now

		_, err := tx.ExecContext(ctx, query,
			patient.ID,
			patient.UserID,
			patient.Age,
			patient.CreatedAt,
			patient.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create patient: %w", translate(err))
		}
		return nil
	})
}
