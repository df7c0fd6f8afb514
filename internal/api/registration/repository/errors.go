package registrationRepository

import (
	"errors"
	"fmt"

	"FaceRegistry/internal/api/registration"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	pqNotNullViolation    = "23502"
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
)

// translateError maps integrity violations to ErrConstraintViolation and
// logs everything else as a database failure.
func translateError(log *logrus.Logger, requestID, operation string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqNotNullViolation, pqForeignKeyViolation, pqUniqueViolation, pqCheckViolation:
			log.WithFields(logrus.Fields{
				"request_id": requestID,
				"operation":  operation,
				"code":       string(pqErr.Code),
				"constraint": pqErr.Constraint,
				"error":      err.Error(),
			}).Warn("Constraint violation")
			return fmt.Errorf("%w: %s", registration.ErrConstraintViolation, pqErr.Code.Name())
		}
	}

	log.WithFields(logrus.Fields{
		"request_id": requestID,
		"operation":  operation,
		"error":      err.Error(),
	}).Error("Database error")

	return err
}
