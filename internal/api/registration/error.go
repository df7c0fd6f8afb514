package registration

import (
	"net/http"

	"FaceRegistry/pkg/response"
)

var (
	ErrRegistrationNotFound  = response.NewError(http.StatusNotFound, "user not found")
	ErrInvalidFaceDescriptor = response.NewError(http.StatusBadRequest, "invalid face descriptor")
	ErrInvalidDateOfBirth    = response.NewError(http.StatusBadRequest, "invalid date of birth")
	ErrMalformedRequest      = response.NewError(http.StatusBadRequest, "malformed request body")
	ErrValidationFailed      = response.NewError(http.StatusBadRequest, "validation failed")
	ErrConstraintViolation   = response.NewError(http.StatusConflict, "record violates a storage constraint")
	ErrStorageTransaction    = response.NewError(http.StatusInternalServerError, "failed to save registration")
	ErrFailedToStoreImage    = response.NewError(http.StatusInternalServerError, "failed to store profile image")
	ErrRecognitionFailed     = response.NewError(http.StatusInternalServerError, "face recognition failed")
	ErrFailedToFetchUser     = response.NewError(http.StatusInternalServerError, "failed to fetch user profile")
)
