package registrationService

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"FaceRegistry/internal/api/registration"
	"FaceRegistry/internal/entity"
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/redis"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Enroll validates the request, stores the optional profile image and writes
// the registration and its emergency contact in one transaction.
func (s *registrationDomainImpl) Enroll(ctx context.Context, req registration.EnrollRequest, image *multipart.FileHeader) (string, error) {
	requestID := contextPkg.GetRequestID(ctx)

	var encoded string
	if strings.TrimSpace(req.FaceDescriptor) != "" {
		var err error
		if encoded, err = canonicalDescriptor(req.FaceDescriptor); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Rejected enrollment with invalid face descriptor")
			return "", err
		}
	}

	dob, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return "", err
	}

	var ext string
	if image != nil {
		if ext, err = s.utils.ValidateImageFile(image); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"filename":   image.Filename,
				"error":      err.Error(),
			}).Warn("Rejected profile image")
			return "", err
		}
	}

	now := s.now()
	id, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate ULID")
		return "", err
	}

	var imagePath string
	if image != nil {
		name := s.utils.StoredImageName(now, ext, req.FirstName, req.MiddleName, req.LastName)
		if imagePath, err = s.storeImage(ctx, image, name); err != nil {
			return "", err
		}
	}

	reg := entity.Registration{
		ID:               id,
		FirstName:        strings.TrimSpace(req.FirstName),
		MiddleName:       strings.TrimSpace(req.MiddleName),
		LastName:         strings.TrimSpace(req.LastName),
		DateOfBirth:      dob,
		Nationality:      req.Nationality,
		MaritalStatus:    req.MaritalStatus,
		PlaceOfBirth:     req.PlaceOfBirth,
		Sex:              req.Sex,
		Gender:           req.Gender,
		Religion:         req.Religion,
		Address:          req.Address,
		PhoneNumber:      req.PhoneNumber,
		Email:            req.Email,
		Occupation:       req.Occupation,
		BloodType:        req.BloodType,
		ProfileImagePath: imagePath,
		FaceDescriptor:   encoded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	contact := entity.EmergencyContact{
		RegistrationID: id,
		Name:           req.EmergencyName,
		Relationship:   req.EmergencyRelationship,
		PhoneNumber:    req.EmergencyPhone,
	}

	if err := s.persistEnrollment(ctx, reg, contact); err != nil {
		s.discardImage(ctx, imagePath)
		return "", s.storageFailure(ctx, "enroll", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":      requestID,
		"registration_id": id,
		"has_descriptor":  encoded != "",
	}).Info("Registration enrolled")

	return id, nil
}

func (s *registrationDomainImpl) persistEnrollment(ctx context.Context, reg entity.Registration, contact entity.EmergencyContact) error {
	repo, err := s.repo.NewClient(ctx, true)
	if err != nil {
		return err
	}
	defer repo.Rollback()

	if err := repo.Registrations.Create(ctx, reg); err != nil {
		return err
	}

	if err := repo.Contacts.Create(ctx, contact); err != nil {
		return err
	}

	return repo.Commit()
}

func (s *registrationDomainImpl) storeImage(ctx context.Context, image *multipart.FileHeader, name string) (string, error) {
	src, err := image.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	location, err := s.storage.Save(ctx, name, src, image.Header.Get("Content-Type"))
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"name":       name,
			"error":      err.Error(),
		}).Error("Failed to store profile image")
		return "", registration.ErrFailedToStoreImage
	}

	return location, nil
}

// Update applies a partial update. Blank fields keep their stored values. A
// missing emergency contact is created only when all of its fields are given.
func (s *registrationDomainImpl) Update(ctx context.Context, id string, req registration.UpdateRequest, image *multipart.FileHeader) (entity.RegistrationDetail, error) {
	requestID := contextPkg.GetRequestID(ctx)

	patch, err := buildPatch(req)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":      requestID,
			"registration_id": id,
			"error":           err.Error(),
		}).Warn("Rejected registration update")
		return entity.RegistrationDetail{}, err
	}

	var ext string
	if image != nil {
		if ext, err = s.utils.ValidateImageFile(image); err != nil {
			return entity.RegistrationDetail{}, err
		}
	}

	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return entity.RegistrationDetail{}, s.storageFailure(ctx, "update", err)
	}

	current, err := repo.Registrations.GetDetail(ctx, id)
	if err != nil {
		return entity.RegistrationDetail{}, s.storageFailure(ctx, "update", err)
	}

	var imagePath string
	if image != nil {
		name := s.utils.StoredImageName(s.now(), ext,
			patch.FirstName.OrElse(current.FirstName),
			patch.MiddleName.OrElse(current.MiddleName),
			patch.LastName.OrElse(current.LastName))
		if imagePath, err = s.storeImage(ctx, image, name); err != nil {
			return entity.RegistrationDetail{}, err
		}
		patch.ProfileImagePath = entity.Some(imagePath)
	}

	detail, replaced, err := s.persistUpdate(ctx, id, patch)
	if err != nil {
		s.discardImage(ctx, imagePath)
		return entity.RegistrationDetail{}, s.storageFailure(ctx, "update", err)
	}

	if replaced != "" && replaced != imagePath {
		s.discardImage(ctx, replaced)
	}
	s.refresh(ctx, detail)

	return detail, nil
}

// persistUpdate applies patch in one transaction. When the patch sets a new
// profile image it returns the path it replaced, read under a row lock.
func (s *registrationDomainImpl) persistUpdate(ctx context.Context, id string, patch entity.RegistrationPatch) (entity.RegistrationDetail, string, error) {
	repo, err := s.repo.NewClient(ctx, true)
	if err != nil {
		return entity.RegistrationDetail{}, "", err
	}
	defer repo.Rollback()

	var replaced string
	if patch.ProfileImagePath.IsSet() {
		if replaced, err = repo.Registrations.LockProfileImage(ctx, id); err != nil {
			return entity.RegistrationDetail{}, "", err
		}
	}

	if err := repo.Registrations.Update(ctx, id, patch); err != nil {
		return entity.RegistrationDetail{}, "", err
	}

	if patch.Contact.Any() {
		updated, err := repo.Contacts.Update(ctx, id, patch.Contact)
		if err != nil {
			return entity.RegistrationDetail{}, "", err
		}

		if updated == 0 {
			if !patch.Contact.Complete() {
				s.log.WithFields(logrus.Fields{
					"request_id":      contextPkg.GetRequestID(ctx),
					"registration_id": id,
				}).Warn("Ignoring partial emergency contact for registration without one")
			} else {
				contact := patch.Contact.Apply(entity.EmergencyContact{RegistrationID: id})
				if err := repo.Contacts.Create(ctx, contact); err != nil {
					return entity.RegistrationDetail{}, "", err
				}
			}
		}
	}

	detail, err := repo.Registrations.GetDetail(ctx, id)
	if err != nil {
		return entity.RegistrationDetail{}, "", err
	}

	if err := repo.Commit(); err != nil {
		return entity.RegistrationDetail{}, "", err
	}

	return detail, replaced, nil
}

// GetByID reads through the record cache.
func (s *registrationDomainImpl) GetByID(ctx context.Context, id string) (entity.RegistrationDetail, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if cached, err := s.cache.Get(ctx, cacheKey(id)); err == nil {
		var detail entity.RegistrationDetail
		if err := jsoniter.Unmarshal(cached, &detail); err == nil {
			return detail, nil
		}
		s.invalidate(ctx, id)
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Record cache unavailable, reading from database")
	}

	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return entity.RegistrationDetail{}, err
	}

	detail, err := repo.Registrations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, registration.ErrRegistrationNotFound) {
			return entity.RegistrationDetail{}, err
		}
		s.log.WithFields(logrus.Fields{
			"request_id":      requestID,
			"registration_id": id,
			"error":           err.Error(),
		}).Error("Failed to fetch registration")
		return entity.RegistrationDetail{}, registration.ErrFailedToFetchUser
	}

	s.fill(ctx, detail)

	return detail, nil
}
