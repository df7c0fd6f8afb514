package registrationRepository

const (
	tableRegistration     = "registration"
	tableEmergencyContact = "emergency_contact"

	queryCreateRegistration = `
INSERT INTO registration (
    regis_id, regis_first_name, regis_middle_name, regis_last_name, regis_date_of_birth,
    regis_nationality, regis_marital_status, regis_place_of_birth, regis_sex, regis_gender,
    regis_religion, regis_address, regis_phone_number, regis_email, regis_occupation,
    regis_blood_type, regis_profile_image_path, face_descriptor, regis_created_at, regis_updated_at
)
VALUES (
    :regis_id, :regis_first_name, :regis_middle_name, :regis_last_name, :regis_date_of_birth,
    :regis_nationality, :regis_marital_status, :regis_place_of_birth, :regis_sex, :regis_gender,
    :regis_religion, :regis_address, :regis_phone_number, :regis_email, :regis_occupation,
    :regis_blood_type, :regis_profile_image_path, :face_descriptor, :regis_created_at, :regis_updated_at
)`

	queryGetRegistrationDetail = `
SELECT r.regis_id, r.regis_first_name, r.regis_middle_name, r.regis_last_name, r.regis_date_of_birth,
       r.regis_nationality, r.regis_marital_status, r.regis_place_of_birth, r.regis_sex, r.regis_gender,
       r.regis_religion, r.regis_address, r.regis_phone_number, r.regis_email, r.regis_occupation,
       r.regis_blood_type, r.regis_profile_image_path, r.face_descriptor, r.regis_created_at, r.regis_updated_at,
       ec.emer_id, ec.emer_name, ec.emer_relationship, ec.emer_phone_number
FROM registration r
    LEFT JOIN emergency_contact ec ON r.regis_id = ec.regis_id
WHERE r.regis_id = :regis_id`

	queryLockProfileImage = `
SELECT regis_profile_image_path
FROM registration
WHERE regis_id = $1
FOR UPDATE`

	queryListWithDescriptors = `
SELECT regis_id, regis_first_name, COALESCE(regis_middle_name, '') AS regis_middle_name, regis_last_name, face_descriptor
FROM registration
WHERE face_descriptor IS NOT NULL
ORDER BY regis_created_at, regis_id`

	queryCreateEmergencyContact = `
INSERT INTO emergency_contact (regis_id, emer_name, emer_relationship, emer_phone_number)
VALUES (:regis_id, :emer_name, :emer_relationship, :emer_phone_number)`
)
