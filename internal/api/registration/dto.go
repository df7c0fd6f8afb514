package registration

import (
	"time"

	"FaceRegistry/internal/entity"

	jsoniter "github.com/json-iterator/go"
)

const (
	DateLayout        = "2006-01-02"
	ProfileImageField = "profileImage"
)

type EnrollRequest struct {
	FirstName             string `form:"firstName" json:"firstName" validate:"required,max=100"`
	MiddleName            string `form:"middleName" json:"middleName" validate:"max=100"`
	LastName              string `form:"lastName" json:"lastName" validate:"required,max=100"`
	DateOfBirth           string `form:"dateOfBirth" json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	Nationality           string `form:"nationality" json:"nationality" validate:"required,max=100"`
	MaritalStatus         string `form:"maritalStatus" json:"maritalStatus" validate:"required,max=50"`
	PlaceOfBirth          string `form:"placeOfBirth" json:"placeOfBirth" validate:"required,max=150"`
	Sex                   string `form:"sex" json:"sex" validate:"required,max=20"`
	Gender                string `form:"gender" json:"gender" validate:"required,max=50"`
	Religion              string `form:"religion" json:"religion" validate:"required,max=100"`
	Address               string `form:"address" json:"address" validate:"required"`
	PhoneNumber           string `form:"phoneNumber" json:"phoneNumber" validate:"required,max=30"`
	Email                 string `form:"email" json:"email" validate:"required,email,max=255"`
	Occupation            string `form:"occupation" json:"occupation" validate:"required,max=150"`
	BloodType             string `form:"bloodType" json:"bloodType" validate:"required,max=5"`
	EmergencyName         string `form:"emergencyName" json:"emergencyName" validate:"required,max=150"`
	EmergencyRelationship string `form:"emergencyRelationship" json:"emergencyRelationship" validate:"required,max=100"`
	EmergencyPhone        string `form:"emergencyPhone" json:"emergencyPhone" validate:"required,max=30"`
	FaceDescriptor        string `form:"faceDescriptor" json:"faceDescriptor"`
}

// UpdateRequest carries a partial update. An empty field leaves the stored
// value unchanged.
type UpdateRequest struct {
	FirstName             string `form:"firstName" json:"firstName" validate:"max=100"`
	MiddleName            string `form:"middleName" json:"middleName" validate:"max=100"`
	LastName              string `form:"lastName" json:"lastName" validate:"max=100"`
	DateOfBirth           string `form:"dateOfBirth" json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Nationality           string `form:"nationality" json:"nationality" validate:"max=100"`
	MaritalStatus         string `form:"maritalStatus" json:"maritalStatus" validate:"max=50"`
	PlaceOfBirth          string `form:"placeOfBirth" json:"placeOfBirth" validate:"max=150"`
	Sex                   string `form:"sex" json:"sex" validate:"max=20"`
	Gender                string `form:"gender" json:"gender" validate:"max=50"`
	Religion              string `form:"religion" json:"religion" validate:"max=100"`
	Address               string `form:"address" json:"address"`
	PhoneNumber           string `form:"phoneNumber" json:"phoneNumber" validate:"max=30"`
	Email                 string `form:"email" json:"email" validate:"omitempty,email,max=255"`
	Occupation            string `form:"occupation" json:"occupation" validate:"max=150"`
	BloodType             string `form:"bloodType" json:"bloodType" validate:"max=5"`
	EmergencyName         string `form:"emergencyName" json:"emergencyName" validate:"max=150"`
	EmergencyRelationship string `form:"emergencyRelationship" json:"emergencyRelationship" validate:"max=100"`
	EmergencyPhone        string `form:"emergencyPhone" json:"emergencyPhone" validate:"max=30"`
	FaceDescriptor        string `form:"faceDescriptor" json:"faceDescriptor"`
}

// RecognizeRequest keeps the descriptor raw so that it can be reported
// precisely when it is not a valid descriptor.
type RecognizeRequest struct {
	FaceDescriptor jsoniter.RawMessage `json:"faceDescriptor"`
	DetectionScore *float64            `json:"detectionScore" validate:"required,min=0,max=1"`
}

type EnrollResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	RegistrationID string `json:"registrationId"`
}

type UpdateResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type EmergencyContactResponse struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	PhoneNumber  string `json:"phoneNumber"`
}

type UserResponse struct {
	ID                string                    `json:"id"`
	FirstName         string                    `json:"firstName"`
	MiddleName        string                    `json:"middleName,omitempty"`
	LastName          string                    `json:"lastName"`
	DateOfBirth       string                    `json:"dateOfBirth"`
	Nationality       string                    `json:"nationality"`
	MaritalStatus     string                    `json:"maritalStatus"`
	PlaceOfBirth      string                    `json:"placeOfBirth"`
	Sex               string                    `json:"sex"`
	Gender            string                    `json:"gender"`
	Religion          string                    `json:"religion"`
	Address           string                    `json:"address"`
	PhoneNumber       string                    `json:"phoneNumber"`
	Email             string                    `json:"email"`
	Occupation        string                    `json:"occupation"`
	BloodType         string                    `json:"bloodType"`
	ProfileImagePath  string                    `json:"profileImagePath,omitempty"`
	HasFaceDescriptor bool                      `json:"hasFaceDescriptor"`
	EmergencyContact  *EmergencyContactResponse `json:"emergencyContact"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

func NewUserResponse(d entity.RegistrationDetail) UserResponse {
	resp := UserResponse{
		ID:                d.ID,
		FirstName:         d.FirstName,
		MiddleName:        d.MiddleName,
		LastName:          d.LastName,
		DateOfBirth:       d.DateOfBirth.Format(DateLayout),
		Nationality:       d.Nationality,
		MaritalStatus:     d.MaritalStatus,
		PlaceOfBirth:      d.PlaceOfBirth,
		Sex:               d.Sex,
		Gender:            d.Gender,
		Religion:          d.Religion,
		Address:           d.Address,
		PhoneNumber:       d.PhoneNumber,
		Email:             d.Email,
		Occupation:        d.Occupation,
		BloodType:         d.BloodType,
		ProfileImagePath:  d.ProfileImagePath,
		HasFaceDescriptor: d.FaceDescriptor != "",
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}

	if d.EmergencyContact != nil {
		resp.EmergencyContact = &EmergencyContactResponse{
			Name:         d.EmergencyContact.Name,
			Relationship: d.EmergencyContact.Relationship,
			PhoneNumber:  d.EmergencyContact.PhoneNumber,
		}
	}

	return resp
}

type MatchDetails struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type RecognizeResponse struct {
	Recognized   bool          `json:"recognized"`
	UserData     *UserResponse `json:"userData,omitempty"`
	Confidence   float64       `json:"confidence"`
	Threshold    float64       `json:"threshold"`
	MatchDetails *MatchDetails `json:"matchDetails,omitempty"`
	Message      string        `json:"message,omitempty"`
}
