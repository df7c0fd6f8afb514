package entity

import (
	"strings"
	"time"
)

type Registration struct {
	ID               string    `db:"regis_id"`
	FirstName        string    `db:"regis_first_name"`
	MiddleName       string    `db:"regis_middle_name"`
	LastName         string    `db:"regis_last_name"`
	DateOfBirth      time.Time `db:"regis_date_of_birth"`
	Nationality      string    `db:"regis_nationality"`
	MaritalStatus    string    `db:"regis_marital_status"`
	PlaceOfBirth     string    `db:"regis_place_of_birth"`
	Sex              string    `db:"regis_sex"`
	Gender           string    `db:"regis_gender"`
	Religion         string    `db:"regis_religion"`
	Address          string    `db:"regis_address"`
	PhoneNumber      string    `db:"regis_phone_number"`
	Email            string    `db:"regis_email"`
	Occupation       string    `db:"regis_occupation"`
	BloodType        string    `db:"regis_blood_type"`
	ProfileImagePath string    `db:"regis_profile_image_path"`
	FaceDescriptor   string    `db:"face_descriptor"`
	CreatedAt        time.Time `db:"regis_created_at"`
	UpdatedAt        time.Time `db:"regis_updated_at"`
}

func (r Registration) FullName() string {
	return joinName(r.FirstName, r.MiddleName, r.LastName)
}

type EmergencyContact struct {
	ID             int64  `db:"emer_id"`
	RegistrationID string `db:"regis_id"`
	Name           string `db:"emer_name"`
	Relationship   string `db:"emer_relationship"`
	PhoneNumber    string `db:"emer_phone_number"`
}

// RegistrationDetail is a registration joined with its emergency contact.
// EmergencyContact is nil when no contact row exists.
type RegistrationDetail struct {
	Registration
	EmergencyContact *EmergencyContact
}

// FaceCandidate is the projection scanned during recognition. FaceDescriptor
// is the stored text as-is and may be corrupt.
type FaceCandidate struct {
	ID             string `db:"regis_id"`
	FirstName      string `db:"regis_first_name"`
	MiddleName     string `db:"regis_middle_name"`
	LastName       string `db:"regis_last_name"`
	FaceDescriptor string `db:"face_descriptor"`
}

func (c FaceCandidate) FullName() string {
	return joinName(c.FirstName, c.MiddleName, c.LastName)
}

func joinName(parts ...string) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return strings.Join(names, " ")
}
