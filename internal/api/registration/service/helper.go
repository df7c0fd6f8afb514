package registrationService

import (
	"context"
	"errors"
	"strings"
	"time"

	"FaceRegistry/internal/api/registration"
	"FaceRegistry/internal/entity"
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/descriptor"
	"FaceRegistry/pkg/response"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "registration:"

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func parseDateOfBirth(value string) (time.Time, error) {
	dob, err := time.Parse(registration.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, response.WithDetails(registration.ErrInvalidDateOfBirth,
			"expected a date formatted as YYYY-MM-DD")
	}
	return dob, nil
}

// canonicalDescriptor validates a descriptor supplied as text and re-encodes
// it, so that only canonical JSON arrays are persisted.
func canonicalDescriptor(raw string) (string, error) {
	d, err := descriptor.Decode(raw)
	if err != nil {
		return "", response.WithDetails(registration.ErrInvalidFaceDescriptor, err.Error())
	}
	return descriptor.Encode(d)
}

func optionalText(value string) entity.Optional[string] {
	if value = strings.TrimSpace(value); value != "" {
		return entity.Some(value)
	}
	return entity.Optional[string]{}
}

// buildPatch turns a partial update into a patch. Blank fields are left unset.
func buildPatch(req registration.UpdateRequest) (entity.RegistrationPatch, error) {
	patch := entity.RegistrationPatch{
		FirstName:     optionalText(req.FirstName),
		MiddleName:    optionalText(req.MiddleName),
		LastName:      optionalText(req.LastName),
		Nationality:   optionalText(req.Nationality),
		MaritalStatus: optionalText(req.MaritalStatus),
		PlaceOfBirth:  optionalText(req.PlaceOfBirth),
		Sex:           optionalText(req.Sex),
		Gender:        optionalText(req.Gender),
		Religion:      optionalText(req.Religion),
		Address:       optionalText(req.Address),
		PhoneNumber:   optionalText(req.PhoneNumber),
		Email:         optionalText(req.Email),
		Occupation:    optionalText(req.Occupation),
		BloodType:     optionalText(req.BloodType),
		Contact: entity.ContactPatch{
			Name:         optionalText(req.EmergencyName),
			Relationship: optionalText(req.EmergencyRelationship),
			PhoneNumber:  optionalText(req.EmergencyPhone),
		},
	}

	if strings.TrimSpace(req.DateOfBirth) != "" {
		dob, err := parseDateOfBirth(req.DateOfBirth)
		if err != nil {
			return entity.RegistrationPatch{}, err
		}
		patch.DateOfBirth = entity.Some(dob)
	}

	if strings.TrimSpace(req.FaceDescriptor) != "" {
		encoded, err := canonicalDescriptor(req.FaceDescriptor)
		if err != nil {
			return entity.RegistrationPatch{}, err
		}
		patch.FaceDescriptor = entity.Some(encoded)
	}

	return patch, nil
}

// discardImage removes an image stored for a request that did not commit.
func (s *registrationDomainImpl) discardImage(ctx context.Context, location string) {
	if location == "" {
		return
	}
	// The request context may already be done.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.storage.Delete(ctx, location); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"location":   location,
			"error":      err.Error(),
		}).Warn("Failed to remove orphaned profile image")
	}
}

// refresh replaces the cached record after a committed write. The entry is
// dropped when it cannot be written so a stale copy is never left behind.
func (s *registrationDomainImpl) refresh(ctx context.Context, detail entity.RegistrationDetail) {
	if s.cacheTTL <= 0 {
		s.invalidate(ctx, detail.ID)
		return
	}

	payload, err := jsoniter.Marshal(detail)
	if err == nil {
		err = s.cache.Set(ctx, cacheKey(detail.ID), payload, s.cacheTTL)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"registration_id": detail.ID,
			"error":           err.Error(),
		}).Warn("Failed to refresh cached registration")
		s.invalidate(ctx, detail.ID)
	}
}

// fill caches a record read from the database unless a write has already
// cached a newer copy.
func (s *registrationDomainImpl) fill(ctx context.Context, detail entity.RegistrationDetail) {
	if s.cacheTTL <= 0 {
		return
	}

	payload, err := jsoniter.Marshal(detail)
	if err == nil {
		_, err = s.cache.SetIfAbsent(ctx, cacheKey(detail.ID), payload, s.cacheTTL)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"registration_id": detail.ID,
			"error":           err.Error(),
		}).Warn("Failed to cache registration")
	}
}

func (s *registrationDomainImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"registration_id": id,
			"error":           err.Error(),
		}).Warn("Failed to invalidate cached registration")
	}
}

// storageFailure logs the cause of a failed write and replaces it with the
// generic transaction error. Not-found and validation errors pass through.
func (s *registrationDomainImpl) storageFailure(ctx context.Context, operation string, err error) error {
	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < 500 && !errors.Is(err, registration.ErrConstraintViolation) {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"operation":  operation,
		"error":      err.Error(),
	}).Error("Registration transaction failed")

	return registration.ErrStorageTransaction
}
