package registrationService

import (
	"context"
	"errors"

	"FaceRegistry/internal/api/registration"
	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/descriptor"
	"FaceRegistry/pkg/matcher"
	"FaceRegistry/pkg/response"

	"github.com/sirupsen/logrus"
)

const (
	topMatchesReported = 3
	noMatchMessage     = "No match found above confidence threshold"
)

// Recognize ranks every stored descriptor against the query and accepts the
// best one when it clears the policy threshold for the capture's detection
// score. Only an accepted match is identified in the response; the nearest
// candidates are logged.
func (s *recognitionDomainImpl) Recognize(ctx context.Context, req registration.RecognizeRequest) (registration.RecognizeResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, err := descriptor.Decode(req.FaceDescriptor)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Rejected recognition with invalid face descriptor")
		return registration.RecognizeResponse{}, response.WithDetails(registration.ErrInvalidFaceDescriptor, err.Error())
	}

	var detectionScore float64
	if req.DetectionScore != nil {
		detectionScore = *req.DetectionScore
	}

	repo, err := s.repo.NewClient(ctx, false)
	if err != nil {
		return registration.RecognizeResponse{}, s.failure(requestID, err)
	}

	rows, err := repo.Registrations.ListWithDescriptors(ctx)
	if err != nil {
		return registration.RecognizeResponse{}, s.failure(requestID, err)
	}

	candidates := make([]matcher.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, matcher.Candidate{
			ID:         row.ID,
			Descriptor: row.FaceDescriptor,
			Label:      row.FullName(),
		})
	}

	matches := s.ranker.Rank(ctx, query, candidates)
	threshold := s.policy.Threshold(detectionScore)
	best, accepted := s.policy.Best(matches, detectionScore)

	resp := registration.RecognizeResponse{
		Confidence: best.Score,
		Threshold:  threshold,
	}

	s.log.WithFields(logrus.Fields{
		"request_id":        requestID,
		"detection_score":   detectionScore,
		"threshold":         threshold,
		"total_comparisons": len(matches),
		"best_score":        best.Score,
		"accepted":          accepted,
		"top_matches":       matches[:min(len(matches), topMatchesReported)],
	}).Debug("Recognition metrics")

	if !accepted {
		resp.Message = noMatchMessage
		return resp, nil
	}

	detail, err := repo.Registrations.GetDetail(ctx, best.ID)
	if err != nil {
		if errors.Is(err, registration.ErrRegistrationNotFound) {
			// Removed between the scan and the lookup.
			resp.Message = noMatchMessage
			return resp, nil
		}
		return registration.RecognizeResponse{}, s.failure(requestID, err)
	}

	user := registration.NewUserResponse(detail)
	resp.Recognized = true
	resp.UserData = &user
	resp.MatchDetails = &registration.MatchDetails{
		Name:       best.Label,
		Similarity: best.Score,
	}

	return resp, nil
}

func (s *recognitionDomainImpl) failure(requestID string, err error) error {
	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"error":      err.Error(),
	}).Error("Face recognition failed")
	return registration.ErrRecognitionFailed
}
