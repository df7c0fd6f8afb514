package registrationService

import (
	"context"
	"mime/multipart"
	"time"

	"FaceRegistry/internal/api/registration"
	registrationRepository "FaceRegistry/internal/api/registration/repository"
	"FaceRegistry/internal/entity"
	"FaceRegistry/pkg/matcher"
	"FaceRegistry/pkg/redis"
	"FaceRegistry/pkg/storage"
	"FaceRegistry/pkg/utils"

	"github.com/sirupsen/logrus"
)

type RegistrationService interface {
	Registration() RegistrationDomain
	Recognition() RecognitionDomain
}

type RegistrationDomain interface {
	Enroll(ctx context.Context, req registration.EnrollRequest, image *multipart.FileHeader) (string, error)
	Update(ctx context.Context, id string, req registration.UpdateRequest, image *multipart.FileHeader) (entity.RegistrationDetail, error)
	GetByID(ctx context.Context, id string) (entity.RegistrationDetail, error)
}

type RecognitionDomain interface {
	Recognize(ctx context.Context, req registration.RecognizeRequest) (registration.RecognizeResponse, error)
}

type registrationService struct {
	registrationDomain RegistrationDomain
	recognitionDomain  RecognitionDomain
}

func (s *registrationService) Registration() RegistrationDomain {
	return s.registrationDomain
}

func (s *registrationService) Recognition() RecognitionDomain {
	return s.recognitionDomain
}

type registrationDomainImpl struct {
	log      *logrus.Logger
	repo     registrationRepository.Repository
	storage  storage.ItfStorage
	cache    redis.IRedis
	cacheTTL time.Duration
	utils    utils.IUtils
	now      func() time.Time
}

type recognitionDomainImpl struct {
	log    *logrus.Logger
	repo   registrationRepository.Repository
	ranker matcher.Ranker
	policy matcher.Policy
}

func New(
	log *logrus.Logger,
	repo registrationRepository.Repository,
	ranker matcher.Ranker,
	policy matcher.Policy,
	storage storage.ItfStorage,
	cache redis.IRedis,
	cacheTTL time.Duration,
	utils utils.IUtils,
) RegistrationService {
	return &registrationService{
		registrationDomain: &registrationDomainImpl{
			log:      log,
			repo:     repo,
			storage:  storage,
			cache:    cache,
			cacheTTL: cacheTTL,
			utils:    utils,
			now:      time.Now,
		},
		recognitionDomain: &recognitionDomainImpl{
			log:    log,
			repo:   repo,
			ranker: ranker,
			policy: policy,
		},
	}
}
