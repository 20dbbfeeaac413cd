package identity

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/couple-registry/internal/domain"
	"github.com/couple-registry/internal/pkg/id"
)

// FaceDetector is the external oracle, one call per image.
type FaceDetector interface {
	DetectFace(ctx context.Context, image []byte) (found bool, confidence float64, err error)
}

type identityStore interface {
	Put(ctx context.Context, v *domain.IdentityVerification) error
	Get(ctx context.Context, verificationID string) (*domain.IdentityVerification, error)
	Update(ctx context.Context, verificationID string, updates map[string]interface{}) error
}

type imageStore interface {
	UploadBytes(ctx context.Context, key string, data []byte) (string, error)
	DeleteRef(ctx context.Context, ref string) error
}

// flagLedger marks the couple's id1/id2 flag once a document is approved.
type flagLedger interface {
	SetFlag(ctx context.Context, coupleID, flag string) (*domain.Couple, error)
	Get(ctx context.Context, coupleID string) (*domain.Couple, error)
}

type SubmitInput struct {
	CoupleID     string
	PersonNumber int
	IDImage      []byte
	Selfie       []byte // optional; absent means manual review
}

type Service interface {
	// Adjudicate classifies an ID photo against a live selfie.
	Adjudicate(ctx context.Context, idImage, selfie []byte) (domain.FaceMatchResult, error)
	// Submit stores a document pair, adjudicates when a selfie is present,
	// and on an automatic match approves and flags the couple.
	Submit(ctx context.Context, in SubmitInput) (*domain.IdentityVerification, error)
	// Review applies a manual decision to a pending verification. Terminal.
	Review(ctx context.Context, verificationID string, approved bool) (*domain.IdentityVerification, error)
}

type service struct {
	detector  FaceDetector
	repo      identityStore
	images    imageStore
	ledger    flagLedger
	threshold float64
}

func NewService(detector FaceDetector, repo identityStore, images imageStore, ledger flagLedger, threshold float64) Service {
	return &service{detector: detector, repo: repo, images: images, ledger: ledger, threshold: threshold}
}

func (s *service) Adjudicate(ctx context.Context, idImage, selfie []byte) (domain.FaceMatchResult, error) {
	var res domain.FaceMatchResult
	if s.detector == nil {
		return res, fmt.Errorf("face detector not configured: %w", domain.ErrUnavailable)
	}

	idFound, idConf, err := s.detector.DetectFace(ctx, idImage)
	if err != nil {
		return res, fmt.Errorf("detect face in id image: %w", err)
	}
	selfieFound, selfieConf, err := s.detector.DetectFace(ctx, selfie)
	if err != nil {
		return res, fmt.Errorf("detect face in selfie: %w", err)
	}

	res.IDFaceDetected = idFound
	res.SelfieFaceDetected = selfieFound
	if !idFound || !selfieFound {
		return res, nil
	}
	res.Confidence = math.Min(idConf, selfieConf)
	res.Match = res.Confidence > s.threshold
	return res, nil
}

func (s *service) Submit(ctx context.Context, in SubmitInput) (*domain.IdentityVerification, error) {
	if in.PersonNumber != 1 && in.PersonNumber != 2 {
		return nil, fmt.Errorf("person_number must be 1 or 2: %w", domain.ErrBadRequest)
	}
	if len(in.IDImage) == 0 {
		return nil, fmt.Errorf("id_image required: %w", domain.ErrBadRequest)
	}
	if _, err := s.ledger.Get(ctx, in.CoupleID); err != nil {
		return nil, err
	}

	verID := id.New()
	idRef, err := s.images.UploadBytes(ctx,
		fmt.Sprintf("identity/%s/p%d-id-%s.jpg", in.CoupleID, in.PersonNumber, verID), in.IDImage)
	if err != nil {
		return nil, err
	}

	v := &domain.IdentityVerification{
		VerificationID: verID,
		CoupleID:       in.CoupleID,
		PersonNumber:   in.PersonNumber,
		IDImageRef:     idRef,
		Status:         domain.ReviewPending,
		CreatedAt:      time.Now().UTC(),
	}

	if len(in.Selfie) > 0 {
		selfieRef, err := s.images.UploadBytes(ctx,
			fmt.Sprintf("identity/%s/p%d-selfie-%s.jpg", in.CoupleID, in.PersonNumber, verID), in.Selfie)
		if err != nil {
			return nil, err
		}
		v.SelfieRef = &selfieRef

		res, err := s.Adjudicate(ctx, in.IDImage, in.Selfie)
		if err != nil {
			// Oracle trouble must not lose the submission; park it for a
			// human instead.
			slog.Warn("adjudication failed, queuing for manual review",
				"couple_id", in.CoupleID, "err", err)
		} else {
			v.FaceMatch = res
			if res.Match {
				v.Status = domain.ReviewApproved
			}
		}
	}

	if err := s.repo.Put(ctx, v); err != nil {
		return nil, err
	}

	if v.Status == domain.ReviewApproved {
		if _, err := s.ledger.SetFlag(ctx, in.CoupleID, domain.IDFlagForPerson(in.PersonNumber)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (s *service) Review(ctx context.Context, verificationID string, approved bool) (*domain.IdentityVerification, error) {
	v, err := s.repo.Get(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if v.Status != domain.ReviewPending {
		return nil, fmt.Errorf("decision is terminal, status already %s: %w", v.Status, domain.ErrConflict)
	}

	status := domain.ReviewRejected
	if approved {
		status = domain.ReviewApproved
	}
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, verificationID, map[string]interface{}{
		"status":      status,
		"reviewed_at": now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	v.Status = status
	v.ReviewedAt = &now

	if approved {
		if _, err := s.ledger.SetFlag(ctx, v.CoupleID, domain.IDFlagForPerson(v.PersonNumber)); err != nil {
			return nil, err
		}
	} else if s.images != nil {
		// Rejected documents are not retained. Best effort; the decision
		// stands either way.
		refs := []string{v.IDImageRef}
		if v.SelfieRef != nil {
			refs = append(refs, *v.SelfieRef)
		}
		for _, ref := range refs {
			if err := s.images.DeleteRef(ctx, ref); err != nil {
				slog.Warn("could not delete rejected document",
					"verification_id", verificationID, "err", err)
			}
		}
	}
	return v, nil
}
