//go:build integration

package registrationService

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"FaceRegistry/database/postgres"
	"FaceRegistry/internal/api/registration"
	registrationRepository "FaceRegistry/internal/api/registration/repository"
	"FaceRegistry/pkg/matcher"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startDatabase(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil || container == nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.NewFromURL(fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	_, err = postgres.Migrate(ctx, db, log)
	require.NoError(t, err)

	return db
}

func newPostgresFixture(t *testing.T) (*fixture, *sqlx.DB) {
	db := startDatabase(t)

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{storage: newMemStorage(), cache: newMemCache()}
	f.service = New(log, registrationRepository.New(db, log), matcher.NewLinearRanker(log), matcher.DefaultPolicy(),
		f.storage, f.cache, time.Minute, utilsForTest())
	return f, db
}

func TestPostgresFailedContactLeavesNoRegistration(t *testing.T) {
	f, db := newPostgresFixture(t)
	ctx := context.Background()

	req := enrollRequest("Ada", "Lovelace", oneHot(t, 0))
	req.EmergencyPhone = strings.Repeat("9", 40)

	_, err := f.service.Registration().Enroll(ctx, req, nil)
	require.ErrorIs(t, err, registration.ErrStorageTransaction)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM registration"))
	assert.Zero(t, count)
}

func TestPostgresEnrollUpdateRecognize(t *testing.T) {
	f, _ := newPostgresFixture(t)
	ctx := context.Background()

	idA, err := f.service.Registration().Enroll(ctx, enrollRequest("Ada", "Lovelace", oneHot(t, 0)), nil)
	require.NoError(t, err)
	_, err = f.service.Registration().Enroll(ctx, enrollRequest("Grace", "Hopper", oneHot(t, 1)), nil)
	require.NoError(t, err)

	detail, err := f.service.Registration().Update(ctx, idA, registration.UpdateRequest{
		PhoneNumber:    "0899999999",
		EmergencyPhone: "0833333333",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "0899999999", detail.PhoneNumber)
	assert.Equal(t, "Ada", detail.FirstName)
	assert.Equal(t, "Indonesian", detail.Nationality)
	require.NotNil(t, detail.EmergencyContact)
	assert.Equal(t, "Rina", detail.EmergencyContact.Name)
	assert.Equal(t, "0833333333", detail.EmergencyContact.PhoneNumber)

	score := 0.9
	resp, err := f.service.Recognition().Recognize(ctx, registration.RecognizeRequest{
		FaceDescriptor: []byte(oneHot(t, 0)),
		DetectionScore: &score,
	})
	require.NoError(t, err)
	assert.True(t, resp.Recognized)
	assert.Equal(t, idA, resp.UserData.ID)
	assert.Equal(t, "0899999999", resp.UserData.PhoneNumber)
	assert.InDelta(t, 1.0, resp.Confidence, 1e-9)
}
