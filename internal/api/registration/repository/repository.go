package registrationRepository

import (
	"context"

	"FaceRegistry/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(ctx context.Context, tx bool) (Client, error)
}

// NewClient returns repositories bound either to the pool or, with tx, to a
// single transaction. Rollback is always safe to defer; after Commit it is a
// no-op.
func (r *repository) NewClient(ctx context.Context, tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.BeginTxx(ctx, nil)
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Registrations: &registrationRepository{q: db, log: r.log},
		Contacts:      &contactRepository{q: db, log: r.log},
		Commit:        commitFunc,
		Rollback:      rollbackFunc,
	}, nil
}

type Client struct {
	Registrations interface {
		Create(ctx context.Context, registration entity.Registration) error
		Update(ctx context.Context, id string, patch entity.RegistrationPatch) error
		GetDetail(ctx context.Context, id string) (entity.RegistrationDetail, error)
		LockProfileImage(ctx context.Context, id string) (string, error)
		ListWithDescriptors(ctx context.Context) ([]entity.FaceCandidate, error)
	}

	Contacts interface {
		Create(ctx context.Context, contact entity.EmergencyContact) error
		Update(ctx context.Context, registrationID string, patch entity.ContactPatch) (int64, error)
	}

	Commit   func() error
	Rollback func() error
}

type registrationRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type contactRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
