package registrationService

import (
	"context"
	"database/sql/driver"
	"io"
	"regexp"
	"testing"
	"time"

	"FaceRegistry/internal/api/registration"
	registrationRepository "FaceRegistry/internal/api/registration/repository"
	"FaceRegistry/pkg/matcher"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLFixture(t *testing.T) (*fixture, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{storage: newMemStorage(), cache: newMemCache()}
	repo := registrationRepository.New(sqlx.NewDb(db, "postgres"), log)
	f.service = New(log, repo, matcher.NewLinearRanker(log), matcher.DefaultPolicy(),
		f.storage, f.cache, time.Minute, utilsForTest())
	return f, mock
}

func TestEnrollRollsBackOnContactInsertFailure(t *testing.T) {
	f, mock := newSQLFixture(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registration (")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO emergency_contact (")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := f.service.Registration().Enroll(context.Background(),
		enrollRequest("Ada", "Lovelace", oneHot(t, 0)), uploadedFile(t, "me.png", pngImage))

	require.ErrorIs(t, err, registration.ErrStorageTransaction)
	assert.Empty(t, f.storage.saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

const sqlRegistrationID = "01JNB3V6Q0R5J7K8M9N0P1Q2R3"

var selectDetail = regexp.QuoteMeta("FROM registration r")

func detailRow(phone string, image any) *sqlmock.Rows {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"regis_id", "regis_first_name", "regis_middle_name", "regis_last_name", "regis_date_of_birth",
		"regis_nationality", "regis_marital_status", "regis_place_of_birth", "regis_sex", "regis_gender",
		"regis_religion", "regis_address", "regis_phone_number", "regis_email", "regis_occupation",
		"regis_blood_type", "regis_profile_image_path", "face_descriptor", "regis_created_at", "regis_updated_at",
		"emer_id", "emer_name", "emer_relationship", "emer_phone_number",
	}).AddRow(
		sqlRegistrationID, "Ada", nil, "Lovelace", time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC),
		"British", "Married", "London", "Female", "Female",
		"Anglican", "St James's Square", phone, "ada@example.com", "Mathematician",
		"O", image, nil, created, created,
		int64(1), "Byron", "father", "0200",
	)
}

func TestUpdateWritesOnlyProvidedColumns(t *testing.T) {
	f, mock := newSQLFixture(t)
	id := sqlRegistrationID

	mock.ExpectQuery(selectDetail).WithArgs(id).WillReturnRows(detailRow("0100", nil))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registration SET regis_phone_number = $1, regis_updated_at = NOW() WHERE regis_id = $2")).
		WithArgs("0199", id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectDetail).WithArgs(id).WillReturnRows(detailRow("0199", nil))
	mock.ExpectCommit()

	f.cache.items[cacheKey(id)] = []byte(`{}`)

	detail, err := f.service.Registration().Update(context.Background(), id, registration.UpdateRequest{PhoneNumber: " 0199 "}, nil)
	require.NoError(t, err)

	assert.Equal(t, "0199", detail.PhoneNumber)
	assert.Equal(t, "Ada", detail.FirstName)
	assert.Contains(t, string(f.cache.items[cacheKey(id)]), `"0199"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateImageRemovesPathReadUnderLock(t *testing.T) {
	f, mock := newSQLFixture(t)
	id := sqlRegistrationID

	// The first read predates a concurrent image change.
	mock.ExpectQuery(selectDetail).WithArgs(id).WillReturnRows(detailRow("0100", "/uploads/stale.png"))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"regis_profile_image_path"}).AddRow("/uploads/current.png"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registration SET regis_profile_image_path = $1, regis_updated_at = NOW() WHERE regis_id = $2")).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectDetail).WithArgs(id).WillReturnRows(detailRow("0100", "/uploads/ada_lovelace_1.png"))
	mock.ExpectCommit()

	_, err := f.service.Registration().Update(context.Background(), id, registration.UpdateRequest{}, uploadedFile(t, "new.png", pngImage))
	require.NoError(t, err)

	assert.Equal(t, []string{"/uploads/current.png"}, f.storage.deleted)
	assert.Len(t, f.storage.saved, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecognizeDatabaseFailure(t *testing.T) {
	f, mock := newSQLFixture(t)
	score := 1.0

	mock.ExpectQuery(regexp.QuoteMeta("WHERE face_descriptor IS NOT NULL")).
		WillReturnError(driver.ErrBadConn)

	_, err := f.service.Recognition().Recognize(context.Background(), registration.RecognizeRequest{
		FaceDescriptor: []byte(oneHot(t, 0)),
		DetectionScore: &score,
	})

	require.ErrorIs(t, err, registration.ErrRecognitionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
