package registrationRepository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"FaceRegistry/internal/api/registration"
	"FaceRegistry/internal/entity"
	contextPkg "FaceRegistry/pkg/context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type RegistrationDetailDB struct {
	ID               string         `db:"regis_id"`
	FirstName        string         `db:"regis_first_name"`
	MiddleName       sql.NullString `db:"regis_middle_name"`
	LastName         string         `db:"regis_last_name"`
	DateOfBirth      time.Time      `db:"regis_date_of_birth"`
	Nationality      string         `db:"regis_nationality"`
	MaritalStatus    string         `db:"regis_marital_status"`
	PlaceOfBirth     string         `db:"regis_place_of_birth"`
	Sex              string         `db:"regis_sex"`
	Gender           string         `db:"regis_gender"`
	Religion         string         `db:"regis_religion"`
	Address          string         `db:"regis_address"`
	PhoneNumber      string         `db:"regis_phone_number"`
	Email            string         `db:"regis_email"`
	Occupation       string         `db:"regis_occupation"`
	BloodType        string         `db:"regis_blood_type"`
	ProfileImagePath sql.NullString `db:"regis_profile_image_path"`
	FaceDescriptor   sql.NullString `db:"face_descriptor"`
	CreatedAt        time.Time      `db:"regis_created_at"`
	UpdatedAt        time.Time      `db:"regis_updated_at"`

	EmergencyID           sql.NullInt64  `db:"emer_id"`
	EmergencyName         sql.NullString `db:"emer_name"`
	EmergencyRelationship sql.NullString `db:"emer_relationship"`
	EmergencyPhoneNumber  sql.NullString `db:"emer_phone_number"`
}

func (d RegistrationDetailDB) toEntity() entity.RegistrationDetail {
	detail := entity.RegistrationDetail{
		Registration: entity.Registration{
			ID:               d.ID,
			FirstName:        d.FirstName,
			MiddleName:       d.MiddleName.String,
			LastName:         d.LastName,
			DateOfBirth:      d.DateOfBirth,
			Nationality:      d.Nationality,
			MaritalStatus:    d.MaritalStatus,
			PlaceOfBirth:     d.PlaceOfBirth,
			Sex:              d.Sex,
			Gender:           d.Gender,
			Religion:         d.Religion,
			Address:          d.Address,
			PhoneNumber:      d.PhoneNumber,
			Email:            d.Email,
			Occupation:       d.Occupation,
			BloodType:        d.BloodType,
			ProfileImagePath: d.ProfileImagePath.String,
			FaceDescriptor:   d.FaceDescriptor.String,
			CreatedAt:        d.CreatedAt,
			UpdatedAt:        d.UpdatedAt,
		},
	}

	if d.EmergencyID.Valid {
		detail.EmergencyContact = &entity.EmergencyContact{
			ID:             d.EmergencyID.Int64,
			RegistrationID: d.ID,
			Name:           d.EmergencyName.String,
			Relationship:   d.EmergencyRelationship.String,
			PhoneNumber:    d.EmergencyPhoneNumber.String,
		}
	}

	return detail
}

func (r *registrationRepository) Create(c context.Context, reg entity.Registration) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"regis_id":                 reg.ID,
		"regis_first_name":         reg.FirstName,
		"regis_middle_name":        nullString(reg.MiddleName),
		"regis_last_name":          reg.LastName,
		"regis_date_of_birth":      reg.DateOfBirth,
		"regis_nationality":        reg.Nationality,
		"regis_marital_status":     reg.MaritalStatus,
		"regis_place_of_birth":     reg.PlaceOfBirth,
		"regis_sex":                reg.Sex,
		"regis_gender":             reg.Gender,
		"regis_religion":           reg.Religion,
		"regis_address":            reg.Address,
		"regis_phone_number":       reg.PhoneNumber,
		"regis_email":              reg.Email,
		"regis_occupation":         reg.Occupation,
		"regis_blood_type":         reg.BloodType,
		"regis_profile_image_path": nullString(reg.ProfileImagePath),
		"face_descriptor":          nullString(reg.FaceDescriptor),
		"regis_created_at":         reg.CreatedAt,
		"regis_updated_at":         reg.UpdatedAt,
	}

	query, args, err := sqlx.Named(queryCreateRegistration, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Create registration")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		return translateError(r.log, requestID, "create_registration", err)
	}

	return nil
}

// Update writes only the fields set in patch. It reports
// ErrRegistrationNotFound when no row has the id.
func (r *registrationRepository) Update(c context.Context, id string, patch entity.RegistrationPatch) error {
	requestID := contextPkg.GetRequestID(c)

	b := sq.Update(tableRegistration).PlaceholderFormat(sq.Dollar)
	b = setOptional(b, "regis_first_name", patch.FirstName)
	b = setOptional(b, "regis_middle_name", patch.MiddleName)
	b = setOptional(b, "regis_last_name", patch.LastName)
	b = setOptional(b, "regis_date_of_birth", patch.DateOfBirth)
	b = setOptional(b, "regis_nationality", patch.Nationality)
	b = setOptional(b, "regis_marital_status", patch.MaritalStatus)
	b = setOptional(b, "regis_place_of_birth", patch.PlaceOfBirth)
	b = setOptional(b, "regis_sex", patch.Sex)
	b = setOptional(b, "regis_gender", patch.Gender)
	b = setOptional(b, "regis_religion", patch.Religion)
	b = setOptional(b, "regis_address", patch.Address)
	b = setOptional(b, "regis_phone_number", patch.PhoneNumber)
	b = setOptional(b, "regis_email", patch.Email)
	b = setOptional(b, "regis_occupation", patch.Occupation)
	b = setOptional(b, "regis_blood_type", patch.BloodType)
	b = setOptional(b, "regis_profile_image_path", patch.ProfileImagePath)
	b = setOptional(b, "face_descriptor", patch.FaceDescriptor)
	b = b.Set("regis_updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"regis_id": id})

	query, args, err := b.ToSql()
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Update registration")
		return err
	}

	res, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		return translateError(r.log, requestID, "update_registration", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		r.log.WithFields(logrus.Fields{
			"request_id":      requestID,
			"registration_id": id,
		}).Warn("Update registration matched no rows")
		return registration.ErrRegistrationNotFound
	}

	return nil
}

func (r *registrationRepository) GetDetail(c context.Context, id string) (entity.RegistrationDetail, error) {
	requestID := contextPkg.GetRequestID(c)
	var row RegistrationDetailDB

	query, args, err := sqlx.Named(queryGetRegistrationDetail, map[string]interface{}{"regis_id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetail named query preparation err")
		return entity.RegistrationDetail{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.WithFields(logrus.Fields{
				"request_id":      requestID,
				"registration_id": id,
			}).Warn("GetDetail no rows found")
			return entity.RegistrationDetail{}, registration.ErrRegistrationNotFound
		}

		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetDetail query failed")
		return entity.RegistrationDetail{}, err
	}

	return row.toEntity(), nil
}

// LockProfileImage locks the registration row for the rest of the
// transaction and returns its current profile image path.
func (r *registrationRepository) LockProfileImage(c context.Context, id string) (string, error) {
	var path sql.NullString

	if err := sqlx.GetContext(c, r.q, &path, queryLockProfileImage, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", registration.ErrRegistrationNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(c),
			"registration_id": id,
			"error":           err.Error(),
		}).Error("LockProfileImage query failed")
		return "", err
	}

	return path.String, nil
}

// ListWithDescriptors returns every registration with a stored descriptor in
// enrollment order. Descriptors are returned unvalidated.
func (r *registrationRepository) ListWithDescriptors(c context.Context) ([]entity.FaceCandidate, error) {
	var candidates []entity.FaceCandidate

	if err := sqlx.SelectContext(c, r.q, &candidates, queryListWithDescriptors); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(c),
			"error":      err.Error(),
		}).Error("ListWithDescriptors query failed")
		return nil, err
	}

	return candidates, nil
}

func setOptional[T any](b sq.UpdateBuilder, column string, o entity.Optional[T]) sq.UpdateBuilder {
	if v, ok := o.Get(); ok {
		return b.Set(column, v)
	}
	return b
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
