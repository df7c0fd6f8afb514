package registrationService

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"FaceRegistry/internal/api/registration"
	registrationRepository "FaceRegistry/internal/api/registration/repository"
	"FaceRegistry/internal/entity"
	"FaceRegistry/pkg/matcher"
	"FaceRegistry/pkg/redis"
	"FaceRegistry/pkg/utils"

	"github.com/sirupsen/logrus"
	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// memState is the committed content of the in-memory store. Transactions work
// on a clone and replace it on commit.
type memState struct {
	registrations map[string]entity.Registration
	contacts      map[string]entity.EmergencyContact
	nextContactID int64
}

func (s memState) clone() memState {
	c := memState{
		registrations: make(map[string]entity.Registration, len(s.registrations)),
		contacts:      make(map[string]entity.EmergencyContact, len(s.contacts)),
		nextContactID: s.nextContactID,
	}
	for k, v := range s.registrations {
		c.registrations[k] = v
	}
	for k, v := range s.contacts {
		c.contacts[k] = v
	}
	return c
}

type memStore struct {
	state             memState
	failContactCreate error
	commits           int
	rollbacks         int

	// afterRead runs once, after the next non-transactional GetDetail has
	// taken its snapshot.
	afterRead func()
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		registrations: map[string]entity.Registration{},
		contacts:      map[string]entity.EmergencyContact{},
	}}
}

func (m *memStore) NewClient(_ context.Context, tx bool) (registrationRepository.Client, error) {
	state := &m.state
	if tx {
		cloned := m.state.clone()
		state = &cloned
	}

	done := false
	return registrationRepository.Client{
		Registrations: &memRegistrations{store: m, state: state, tx: tx},
		Contacts:      &memContacts{store: m, state: state},
		Commit: func() error {
			if tx && !done {
				m.state = *state
				m.commits++
			}
			done = true
			return nil
		},
		Rollback: func() error {
			if tx && !done {
				m.rollbacks++
			}
			done = true
			return nil
		},
	}, nil
}

type memRegistrations struct {
	store *memStore
	state *memState
	tx    bool
}

func (r *memRegistrations) Create(_ context.Context, reg entity.Registration) error {
	if _, ok := r.state.registrations[reg.ID]; ok {
		return registration.ErrConstraintViolation
	}
	r.state.registrations[reg.ID] = reg
	return nil
}

func (r *memRegistrations) Update(_ context.Context, id string, p entity.RegistrationPatch) error {
	reg, ok := r.state.registrations[id]
	if !ok {
		return registration.ErrRegistrationNotFound
	}
	reg.FirstName = p.FirstName.OrElse(reg.FirstName)
	reg.MiddleName = p.MiddleName.OrElse(reg.MiddleName)
	reg.LastName = p.LastName.OrElse(reg.LastName)
	reg.DateOfBirth = p.DateOfBirth.OrElse(reg.DateOfBirth)
	reg.Nationality = p.Nationality.OrElse(reg.Nationality)
	reg.MaritalStatus = p.MaritalStatus.OrElse(reg.MaritalStatus)
	reg.PlaceOfBirth = p.PlaceOfBirth.OrElse(reg.PlaceOfBirth)
	reg.Sex = p.Sex.OrElse(reg.Sex)
	reg.Gender = p.Gender.OrElse(reg.Gender)
	reg.Religion = p.Religion.OrElse(reg.Religion)
	reg.Address = p.Address.OrElse(reg.Address)
	reg.PhoneNumber = p.PhoneNumber.OrElse(reg.PhoneNumber)
	reg.Email = p.Email.OrElse(reg.Email)
	reg.Occupation = p.Occupation.OrElse(reg.Occupation)
	reg.BloodType = p.BloodType.OrElse(reg.BloodType)
	reg.ProfileImagePath = p.ProfileImagePath.OrElse(reg.ProfileImagePath)
	reg.FaceDescriptor = p.FaceDescriptor.OrElse(reg.FaceDescriptor)
	r.state.registrations[id] = reg
	return nil
}

func (r *memRegistrations) GetDetail(_ context.Context, id string) (entity.RegistrationDetail, error) {
	reg, ok := r.state.registrations[id]
	if !ok {
		return entity.RegistrationDetail{}, registration.ErrRegistrationNotFound
	}
	detail := entity.RegistrationDetail{Registration: reg}
	if c, ok := r.state.contacts[id]; ok {
		detail.EmergencyContact = &c
	}
	if hook := r.store.afterRead; hook != nil && !r.tx {
		r.store.afterRead = nil
		hook()
	}
	return detail, nil
}

func (r *memRegistrations) LockProfileImage(_ context.Context, id string) (string, error) {
	reg, ok := r.state.registrations[id]
	if !ok {
		return "", registration.ErrRegistrationNotFound
	}
	return reg.ProfileImagePath, nil
}

func (r *memRegistrations) ListWithDescriptors(_ context.Context) ([]entity.FaceCandidate, error) {
	var out []entity.FaceCandidate
	for _, reg := range r.state.registrations {
		if reg.FaceDescriptor == "" {
			continue
		}
		out = append(out, entity.FaceCandidate{
			ID:             reg.ID,
			FirstName:      reg.FirstName,
			MiddleName:     reg.MiddleName,
			LastName:       reg.LastName,
			FaceDescriptor: reg.FaceDescriptor,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memContacts struct {
	store *memStore
	state *memState
}

func (c *memContacts) Create(_ context.Context, contact entity.EmergencyContact) error {
	if c.store.failContactCreate != nil {
		return c.store.failContactCreate
	}
	if _, ok := c.state.registrations[contact.RegistrationID]; !ok {
		return registration.ErrConstraintViolation
	}
	if _, ok := c.state.contacts[contact.RegistrationID]; ok {
		return registration.ErrConstraintViolation
	}
	c.state.nextContactID++
	contact.ID = c.state.nextContactID
	c.state.contacts[contact.RegistrationID] = contact
	return nil
}

func (c *memContacts) Update(_ context.Context, registrationID string, p entity.ContactPatch) (int64, error) {
	existing, ok := c.state.contacts[registrationID]
	if !ok || !p.Any() {
		return 0, nil
	}
	c.state.contacts[registrationID] = p.Apply(existing)
	return 1, nil
}

type memStorage struct {
	saved   map[string][]byte
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{saved: map[string][]byte{}}
}

func (s *memStorage) Save(_ context.Context, name string, body io.Reader, _ string) (string, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	location := "/uploads/" + name
	s.saved[location] = content
	return location, nil
}

func (s *memStorage) Delete(_ context.Context, location string) error {
	s.deleted = append(s.deleted, location)
	delete(s.saved, location)
	return nil
}

type memCache struct {
	items   map[string][]byte
	failSet error
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.items[key]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.failSet != nil {
		return c.failSet
	}
	c.items[key] = value
	return nil
}

func (c *memCache) SetIfAbsent(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	if c.failSet != nil {
		return false, c.failSet
	}
	if _, ok := c.items[key]; ok {
		return false, nil
	}
	c.items[key] = value
	return true, nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

type fixture struct {
	store   *memStore
	storage *memStorage
	cache   *memCache
	logs    *logrusTest.Hook
	service RegistrationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, hook := logrusTest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &fixture{
		store:   newMemStore(),
		storage: newMemStorage(),
		cache:   newMemCache(),
		logs:    hook,
	}
	f.service = New(log, f.store, matcher.NewLinearRanker(log), matcher.DefaultPolicy(),
		f.storage, f.cache, time.Minute, utilsForTest())
	return f
}

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func uploadedFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(registration.ProfileImageField, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File[registration.ProfileImageField][0]
}

// loggedEntry returns the last entry logged with msg.
func (f *fixture) loggedEntry(t *testing.T, msg string) *logrus.Entry {
	t.Helper()
	entries := f.logs.AllEntries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Message == msg {
			return entries[i]
		}
	}
	require.FailNow(t, "no log entry", msg)
	return nil
}

func utilsForTest() utils.IUtils {
	return utils.New(1024)
}
