package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/couple-registry/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDetector struct{ mock.Mock }

func (m *mockDetector) DetectFace(ctx context.Context, image []byte) (bool, float64, error) {
	args := m.Called(ctx, image)
	return args.Bool(0), args.Get(1).(float64), args.Error(2)
}

type mockIdentityStore struct{ mock.Mock }

func (m *mockIdentityStore) Put(ctx context.Context, v *domain.IdentityVerification) error {
	return m.Called(ctx, v).Error(0)
}
func (m *mockIdentityStore) Get(ctx context.Context, verificationID string) (*domain.IdentityVerification, error) {
	args := m.Called(ctx, verificationID)
	if v := args.Get(0); v != nil {
		return v.(*domain.IdentityVerification), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockIdentityStore) Update(ctx context.Context, verificationID string, updates map[string]interface{}) error {
	return m.Called(ctx, verificationID, updates).Error(0)
}

type mockImageStore struct{ mock.Mock }

func (m *mockImageStore) UploadBytes(ctx context.Context, key string, data []byte) (string, error) {
	args := m.Called(ctx, key, data)
	return args.String(0), args.Error(1)
}

func (m *mockImageStore) DeleteRef(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) SetFlag(ctx context.Context, coupleID, flag string) (*domain.Couple, error) {
	args := m.Called(ctx, coupleID, flag)
	if c := args.Get(0); c != nil {
		return c.(*domain.Couple), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockLedger) Get(ctx context.Context, coupleID string) (*domain.Couple, error) {
	args := m.Called(ctx, coupleID)
	if c := args.Get(0); c != nil {
		return c.(*domain.Couple), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	idImg  = []byte("id-bytes")
	selfie = []byte("selfie-bytes")
)

// --- Adjudicate ---

func TestAdjudicate_MatchUsesWeakerConfidence(t *testing.T) {
	d := &mockDetector{}
	d.On("DetectFace", mock.Anything, idImg).Return(true, 0.8, nil).Once()
	d.On("DetectFace", mock.Anything, selfie).Return(true, 0.75, nil).Once()

	svc := NewService(d, nil, nil, nil, 0.7)
	res, err := svc.Adjudicate(context.Background(), idImg, selfie)

	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.InDelta(t, 0.75, res.Confidence, 1e-9)
	assert.True(t, res.IDFaceDetected)
	assert.True(t, res.SelfieFaceDetected)
}

func TestAdjudicate_BelowThresholdIsNoMatch(t *testing.T) {
	d := &mockDetector{}
	d.On("DetectFace", mock.Anything, idImg).Return(true, 0.9, nil).Once()
	d.On("DetectFace", mock.Anything, selfie).Return(true, 0.5, nil).Once()

	svc := NewService(d, nil, nil, nil, 0.7)
	res, err := svc.Adjudicate(context.Background(), idImg, selfie)

	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
}

func TestAdjudicate_ThresholdIsExclusive(t *testing.T) {
	d := &mockDetector{}
	d.On("DetectFace", mock.Anything, mock.Anything).Return(true, 0.7, nil)

	svc := NewService(d, nil, nil, nil, 0.7)
	res, err := svc.Adjudicate(context.Background(), idImg, selfie)

	require.NoError(t, err)
	assert.False(t, res.Match, "confidence equal to the threshold does not match")
}

func TestAdjudicate_MissingFace(t *testing.T) {
	d := &mockDetector{}
	d.On("DetectFace", mock.Anything, idImg).Return(false, 0.0, nil).Once()
	d.On("DetectFace", mock.Anything, selfie).Return(true, 0.95, nil).Once()

	svc := NewService(d, nil, nil, nil, 0.7)
	res, err := svc.Adjudicate(context.Background(), idImg, selfie)

	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.False(t, res.IDFaceDetected)
	assert.True(t, res.SelfieFaceDetected)
	assert.Zero(t, res.Confidence)
}

func TestAdjudicate_DetectorError(t *testing.T) {
	d := &mockDetector{}
	d.On("DetectFace", mock.Anything, idImg).Return(false, 0.0, errors.New("throttled"))

	svc := NewService(d, nil, nil, nil, 0.7)
	_, err := svc.Adjudicate(context.Background(), idImg, selfie)
	assert.Error(t, err)
}

func TestAdjudicate_NoDetectorConfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, 0.7)
	_, err := svc.Adjudicate(context.Background(), idImg, selfie)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

// --- Submit ---

func submitFixture(t *testing.T) (*mockDetector, *mockIdentityStore, *mockImageStore, *mockLedger, Service) {
	t.Helper()
	d := &mockDetector{}
	repo := &mockIdentityStore{}
	images := &mockImageStore{}
	ledger := &mockLedger{}
	ledger.On("Get", mock.Anything, "cpl1").Return(&domain.Couple{CoupleID: "cpl1"}, nil)
	images.On("UploadBytes", mock.Anything, mock.Anything, mock.Anything).Return("s3://ref", nil)
	return d, repo, images, ledger, NewService(d, repo, images, ledger, 0.7)
}

func TestSubmit_AutoApproveSetsIDFlag(t *testing.T) {
	d, repo, _, ledger, svc := submitFixture(t)
	d.On("DetectFace", mock.Anything, mock.Anything).Return(true, 0.9, nil)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	ledger.On("SetFlag", mock.Anything, "cpl1", domain.FlagID2).Return(&domain.Couple{}, nil)

	v, err := svc.Submit(context.Background(), SubmitInput{
		CoupleID: "cpl1", PersonNumber: 2, IDImage: idImg, Selfie: selfie,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, v.Status)
	assert.True(t, v.FaceMatch.Match)
	require.NotNil(t, v.SelfieRef)
	ledger.AssertExpectations(t)
}

func TestSubmit_NoMatchStaysPending(t *testing.T) {
	d, repo, _, ledger, svc := submitFixture(t)
	d.On("DetectFace", mock.Anything, mock.Anything).Return(true, 0.4, nil)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	v, err := svc.Submit(context.Background(), SubmitInput{
		CoupleID: "cpl1", PersonNumber: 1, IDImage: idImg, Selfie: selfie,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, v.Status)
	ledger.AssertNotCalled(t, "SetFlag", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_NoSelfieQueuesForReview(t *testing.T) {
	d, repo, _, ledger, svc := submitFixture(t)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	v, err := svc.Submit(context.Background(), SubmitInput{
		CoupleID: "cpl1", PersonNumber: 1, IDImage: idImg,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, v.Status)
	assert.Nil(t, v.SelfieRef)
	d.AssertNotCalled(t, "DetectFace", mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "SetFlag", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_OracleFailureParksSubmission(t *testing.T) {
	d, repo, _, ledger, svc := submitFixture(t)
	d.On("DetectFace", mock.Anything, mock.Anything).Return(false, 0.0, errors.New("throttled"))
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	v, err := svc.Submit(context.Background(), SubmitInput{
		CoupleID: "cpl1", PersonNumber: 1, IDImage: idImg, Selfie: selfie,
	})

	require.NoError(t, err, "oracle trouble must not lose the submission")
	assert.Equal(t, domain.ReviewPending, v.Status)
	ledger.AssertNotCalled(t, "SetFlag", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_Validation(t *testing.T) {
	svc := NewService(nil, nil, nil, &mockLedger{}, 0.7)

	_, err := svc.Submit(context.Background(), SubmitInput{CoupleID: "cpl1", PersonNumber: 3, IDImage: idImg})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Submit(context.Background(), SubmitInput{CoupleID: "cpl1", PersonNumber: 1})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSubmit_UnknownCouple(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)
	svc := NewService(nil, nil, nil, ledger, 0.7)

	_, err := svc.Submit(context.Background(), SubmitInput{CoupleID: "nope", PersonNumber: 1, IDImage: idImg})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- Review ---

func TestReview_ApproveSetsFlag(t *testing.T) {
	repo := &mockIdentityStore{}
	repo.On("Get", mock.Anything, "ver1").Return(&domain.IdentityVerification{
		VerificationID: "ver1", CoupleID: "cpl1", PersonNumber: 1,
		Status: domain.ReviewPending,
	}, nil)
	repo.On("Update", mock.Anything, "ver1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["status"] == domain.ReviewApproved
	})).Return(nil)
	ledger := &mockLedger{}
	ledger.On("SetFlag", mock.Anything, "cpl1", domain.FlagID1).Return(&domain.Couple{}, nil)

	svc := NewService(nil, repo, nil, ledger, 0.7)
	v, err := svc.Review(context.Background(), "ver1", true)

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, v.Status)
	require.NotNil(t, v.ReviewedAt)
	ledger.AssertExpectations(t)
}

func TestReview_RejectLeavesFlagsAlone(t *testing.T) {
	repo := &mockIdentityStore{}
	repo.On("Get", mock.Anything, "ver1").Return(&domain.IdentityVerification{
		VerificationID: "ver1", CoupleID: "cpl1", PersonNumber: 2,
		Status: domain.ReviewPending,
	}, nil)
	repo.On("Update", mock.Anything, "ver1", mock.Anything).Return(nil)
	ledger := &mockLedger{}

	svc := NewService(nil, repo, nil, ledger, 0.7)
	v, err := svc.Review(context.Background(), "ver1", false)

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewRejected, v.Status)
	ledger.AssertNotCalled(t, "SetFlag", mock.Anything, mock.Anything, mock.Anything)
}

func TestReview_RejectDeletesDocuments(t *testing.T) {
	selfieRef := "s3://bucket/identity/cpl1/p1-selfie-ver1.jpg"
	repo := &mockIdentityStore{}
	repo.On("Get", mock.Anything, "ver1").Return(&domain.IdentityVerification{
		VerificationID: "ver1", CoupleID: "cpl1", PersonNumber: 1,
		IDImageRef: "s3://bucket/identity/cpl1/p1-id-ver1.jpg",
		SelfieRef:  &selfieRef,
		Status:     domain.ReviewPending,
	}, nil)
	repo.On("Update", mock.Anything, "ver1", mock.Anything).Return(nil)
	images := &mockImageStore{}
	images.On("DeleteRef", mock.Anything, "s3://bucket/identity/cpl1/p1-id-ver1.jpg").Return(nil)
	images.On("DeleteRef", mock.Anything, selfieRef).Return(nil)

	svc := NewService(nil, repo, images, &mockLedger{}, 0.7)
	_, err := svc.Review(context.Background(), "ver1", false)

	require.NoError(t, err)
	images.AssertExpectations(t)
}

func TestReview_ApproveKeepsDocuments(t *testing.T) {
	repo := &mockIdentityStore{}
	repo.On("Get", mock.Anything, "ver1").Return(&domain.IdentityVerification{
		VerificationID: "ver1", CoupleID: "cpl1", PersonNumber: 1,
		IDImageRef: "s3://bucket/identity/cpl1/p1-id-ver1.jpg",
		Status:     domain.ReviewPending,
	}, nil)
	repo.On("Update", mock.Anything, "ver1", mock.Anything).Return(nil)
	images := &mockImageStore{}
	ledger := &mockLedger{}
	ledger.On("SetFlag", mock.Anything, "cpl1", domain.FlagID1).Return(&domain.Couple{}, nil)

	svc := NewService(nil, repo, images, ledger, 0.7)
	_, err := svc.Review(context.Background(), "ver1", true)

	require.NoError(t, err)
	images.AssertNotCalled(t, "DeleteRef", mock.Anything, mock.Anything)
}

func TestReview_DecisionIsTerminal(t *testing.T) {
	for _, status := range []string{domain.ReviewApproved, domain.ReviewRejected} {
		repo := &mockIdentityStore{}
		repo.On("Get", mock.Anything, "ver1").Return(&domain.IdentityVerification{
			VerificationID: "ver1", Status: status,
		}, nil)

		svc := NewService(nil, repo, nil, &mockLedger{}, 0.7)
		_, err := svc.Review(context.Background(), "ver1", true)
		assert.ErrorIs(t, err, domain.ErrConflict, status)
	}
}
