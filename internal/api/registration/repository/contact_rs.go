package registrationRepository

import (
	"context"

	"FaceRegistry/internal/entity"
	contextPkg "FaceRegistry/pkg/context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *contactRepository) Create(c context.Context, contact entity.EmergencyContact) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"regis_id":          contact.RegistrationID,
		"emer_name":         contact.Name,
		"emer_relationship": contact.Relationship,
		"emer_phone_number": contact.PhoneNumber,
	}

	query, args, err := sqlx.Named(queryCreateEmergencyContact, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Create emergency contact")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		return translateError(r.log, requestID, "create_emergency_contact", err)
	}

	return nil
}

// Update applies the set fields of patch to the contact of registrationID and
// returns the number of rows touched, 0 when the registration has no contact.
func (r *contactRepository) Update(c context.Context, registrationID string, patch entity.ContactPatch) (int64, error) {
	if !patch.Any() {
		return 0, nil
	}
	requestID := contextPkg.GetRequestID(c)

	b := sq.Update(tableEmergencyContact).PlaceholderFormat(sq.Dollar)
	b = setOptional(b, "emer_name", patch.Name)
	b = setOptional(b, "emer_relationship", patch.Relationship)
	b = setOptional(b, "emer_phone_number", patch.PhoneNumber)
	b = b.Where(sq.Eq{"regis_id": registrationID})

	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		return 0, translateError(r.log, requestID, "update_emergency_contact", err)
	}

	return res.RowsAffected()
}
