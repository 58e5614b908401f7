// Package store provides the relational persistence for application records
// and profile mutations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/models"
)

// ApplicationStore writes the write-once application record.
type ApplicationStore struct {
	db  *sql.DB
	log logger.Logger
}

func NewApplicationStore(db *sql.DB, log logger.Logger) *ApplicationStore {
	return &ApplicationStore{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "application-store"}),
	}
}

// Insert stores the normalized application record, assigning its id and
// partner id. A companion audit row is written best-effort; its failure is
// logged and never fails the insert.
func (s *ApplicationStore) Insert(ctx context.Context, app *models.Application) (*models.Application, error) {
	app.ID = uuid.New().String()
	app.PartnerID = uuid.New().String()
	app.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	applicationDataJSON, err := json.Marshal(app.ApplicationData)
	if err != nil {
		return nil, stderrors.NewApplicationWriteFailedError(fmt.Errorf("marshal application data: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO partner_applications (
			id, partner_id, identity_id, partner_country, category,
			partner_type, partner_class, legal_name, email, phone,
			phone_verified, nin_verified, application_data,
			application_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		app.ID,
		app.PartnerID,
		app.ApplicationData["identityId"],
		app.PartnerCountry,
		app.Category,
		app.PartnerType,
		app.PartnerClass,
		app.LegalName,
		app.Email,
		app.Phone,
		app.PhoneVerified,
		app.NINVerified,
		applicationDataJSON,
		app.ApplicationStatus,
		app.CreatedAt,
	)
	if err != nil {
		return nil, stderrors.NewApplicationWriteFailedError(err)
	}

	s.insertAuditRow(ctx, app)

	s.log.Info("application record created", map[string]interface{}{
		"applicationId": app.ID,
		"partnerId":     app.PartnerID,
		"country":       app.PartnerCountry,
		"category":      app.Category,
	})

	return app, nil
}

func (s *ApplicationStore) insertAuditRow(ctx context.Context, app *models.Application) {
	details, err := json.Marshal(map[string]interface{}{
		"partnerId": app.PartnerID,
		"country":   app.PartnerCountry,
		"category":  app.Category,
	})
	if err != nil {
		details = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_submitted",
		"partner_application",
		app.ID,
		details,
		app.CreatedAt,
	)
	if err != nil {
		s.log.Warn("audit log insert failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}
}

// ProfileStore mutates the applicant's profile row.
type ProfileStore struct {
	db  *sql.DB
	log logger.Logger
}

func NewProfileStore(db *sql.DB, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "profile-store"}),
	}
}

// ApplyPatch sets the partner role and verification flags on the profile
// identified by the identity id.
func (s *ProfileStore) ApplyPatch(ctx context.Context, patch models.ProfilePatch) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET user_role = $2, category = $3, phone_verified = $4, nin_verified = $5, updated_at = $6
		WHERE identity_id = $1`,
		patch.IdentityID,
		patch.UserRole,
		patch.Category,
		patch.PhoneVerified,
		patch.NINVerified,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return stderrors.NewProfileMutationFailedError(err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return stderrors.NewProfileMutationFailedError(
			fmt.Errorf("no profile row for identity %s", patch.IdentityID))
	}

	return nil
}
