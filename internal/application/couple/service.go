package couple

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couple-registry/internal/domain"
	"github.com/couple-registry/internal/pkg/id"
	"github.com/couple-registry/internal/pkg/validate"
)

const dateLayout = "2006-01-02"

type coupleStore interface {
	Put(ctx context.Context, c *domain.Couple) error
	Get(ctx context.Context, coupleID string) (*domain.Couple, error)
	GetClaim(ctx context.Context, email string) (*domain.EmailClaim, error)
	Promote(ctx context.Context, c *domain.Couple) error
	SetFlag(ctx context.Context, coupleID, flag string) (*domain.Couple, error)
	Activate(ctx context.Context, coupleID string) error
	SetVerified(ctx context.Context, coupleID string) error
	SoftDelete(ctx context.Context, c *domain.Couple, deletedAt time.Time) error
	FindByEmail(ctx context.Context, email string) (*domain.Couple, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Couple, error)
	ScanActive(ctx context.Context) ([]domain.Couple, error)
	UpdateCustomization(ctx context.Context, coupleID string, c domain.Customization) error
	AppendPhoto(ctx context.Context, coupleID, ref string) error
}

type imageStore interface {
	UploadBytes(ctx context.Context, key string, data []byte) (string, error)
	PresignRef(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

// photoURLTTL bounds how long a presigned gallery link stays fetchable.
const photoURLTTL = 15 * time.Minute

// PublicPerson is the partner slice of the search projection: display name
// and location only, no contact details.
type PublicPerson struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

// PublicCouple is the search projection: no contact details, no flags.
type PublicCouple struct {
	CoupleID              string       `json:"id"`
	Person1               PublicPerson `json:"person1"`
	Person2               PublicPerson `json:"person2"`
	RelationshipStartDate time.Time    `json:"relationship_start_date"`
	Verified              bool         `json:"verified"`
}

func publicPerson(p domain.Person) PublicPerson {
	return PublicPerson{Name: p.BirthName, City: p.City, State: p.State}
}

// Profile is the couple page payload. PhotoURLs are presigned GETs; the raw
// object references in Couple.Photos are not fetchable by clients.
type Profile struct {
	Couple    *domain.Couple `json:"couple"`
	PhotoURLs []string       `json:"photo_urls"`
	Stats     ProfileStats   `json:"stats"`
}

type ProfileStats struct {
	DaysTogether int `json:"days_together"`
	PhotosCount  int `json:"photos_count"`
}

type Service interface {
	// Register validates the pair and reserves a payment-pending draft.
	// The record only becomes a couple when CompleteRegistration consumes the
	// payment confirmation.
	Register(ctx context.Context, req domain.RegisterCoupleRequest) (*domain.Couple, error)
	// CompleteRegistration promotes a paid draft to pending_verification,
	// claiming both email addresses.
	CompleteRegistration(ctx context.Context, coupleID string) error
	// MarkVerified records the paid badge upgrade.
	MarkVerified(ctx context.Context, coupleID string) error

	Get(ctx context.Context, coupleID string) (*domain.Couple, error)
	// GetPublic is Get minus soft-deleted records.
	GetPublic(ctx context.Context, coupleID string) (*domain.Couple, error)

	// SetFlag marks one verification flag and re-evaluates activation.
	SetFlag(ctx context.Context, coupleID, flag string) (*domain.Couple, error)
	// SetFlagForIdentifier resolves which couple and flag a redeemed
	// email/phone proof belongs to.
	SetFlagForIdentifier(ctx context.Context, channel, identifier string) error

	SoftDelete(ctx context.Context, coupleID string) error
	Search(ctx context.Context, name string) ([]PublicCouple, error)
	Customize(ctx context.Context, coupleID string, req domain.UpdateCustomizationRequest) (*domain.Couple, error)
	AddPhoto(ctx context.Context, coupleID string, image []byte) (string, error)
	Profile(ctx context.Context, coupleID string) (*Profile, error)
}

type service struct {
	repo   coupleStore
	images imageStore
}

func NewService(repo coupleStore, images imageStore) Service {
	return &service{repo: repo, images: images}
}

func (s *service) Register(ctx context.Context, req domain.RegisterCoupleRequest) (*domain.Couple, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	p1 := normalizePerson(req.Person1)
	p2 := normalizePerson(req.Person2)
	if p1.Email == p2.Email {
		return nil, fmt.Errorf("partners must use distinct emails: %w", domain.ErrBadRequest)
	}
	startDate, err := time.Parse(dateLayout, req.RelationshipStartDate)
	if err != nil {
		return nil, fmt.Errorf("relationship_start_date must be YYYY-MM-DD: %w", domain.ErrBadRequest)
	}

	// Early rejection; the promote transaction re-checks authoritatively.
	for _, email := range []string{p1.Email, p2.Email} {
		if _, err := s.repo.GetClaim(ctx, email); err == nil {
			return nil, fmt.Errorf("email already belongs to a registered couple: %w", domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	c := &domain.Couple{
		CoupleID:              id.New(),
		Person1:               p1,
		Person2:               p2,
		RelationshipStartDate: startDate,
		Photos:                req.Photos,
		Status:                domain.StatusAwaitingPayment,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) CompleteRegistration(ctx context.Context, coupleID string) error {
	c, err := s.repo.Get(ctx, coupleID)
	if err != nil {
		return err
	}
	if c.Status != domain.StatusAwaitingPayment {
		return nil // already promoted; payment confirmations may repeat
	}
	return s.repo.Promote(ctx, c)
}

func (s *service) MarkVerified(ctx context.Context, coupleID string) error {
	return s.repo.SetVerified(ctx, coupleID)
}

func (s *service) Get(ctx context.Context, coupleID string) (*domain.Couple, error) {
	return s.repo.Get(ctx, coupleID)
}

func (s *service) GetPublic(ctx context.Context, coupleID string) (*domain.Couple, error) {
	c, err := s.repo.Get(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.StatusDeleted {
		return nil, fmt.Errorf("couple not found: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (s *service) SetFlag(ctx context.Context, coupleID, flag string) (*domain.Couple, error) {
	if !domain.ValidFlag(flag) {
		return nil, fmt.Errorf("unknown verification flag %q: %w", flag, domain.ErrBadRequest)
	}
	c, err := s.repo.SetFlag(ctx, coupleID, flag)
	if err != nil {
		return nil, err
	}
	// Set-completion guard: flags arrive in any order; the last one activates.
	if c.Status == domain.StatusPendingVerification && c.Verification.Complete() {
		if err := s.repo.Activate(ctx, coupleID); err != nil {
			// A concurrent flag already won the transition.
			if !errors.Is(err, domain.ErrConflict) {
				return nil, err
			}
		}
		c.Status = domain.StatusActive
	}
	return c, nil
}

func (s *service) SetFlagForIdentifier(ctx context.Context, channel, identifier string) error {
	var c *domain.Couple
	var err error
	switch channel {
	case domain.ChannelEmail:
		c, err = s.repo.FindByEmail(ctx, identifier)
	case domain.ChannelSMS:
		c, err = s.repo.FindByPhone(ctx, identifier)
	default:
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	if err != nil {
		return err
	}

	var flag string
	switch {
	case channel == domain.ChannelEmail && c.Person1.Email == identifier:
		flag = domain.FlagEmail1
	case channel == domain.ChannelEmail:
		flag = domain.FlagEmail2
	case c.Person1.Phone == identifier:
		flag = domain.FlagPhone1
	default:
		flag = domain.FlagPhone2
	}
	_, err = s.SetFlag(ctx, c.CoupleID, flag)
	return err
}

func (s *service) SoftDelete(ctx context.Context, coupleID string) error {
	c, err := s.repo.Get(ctx, coupleID)
	if err != nil {
		return err
	}
	if c.Status == domain.StatusDeleted {
		return nil // already deleted; terminal state, nothing to do
	}
	return s.repo.SoftDelete(ctx, c, time.Now().UTC())
}

func (s *service) Search(ctx context.Context, name string) ([]PublicCouple, error) {
	couples, err := s.repo.ScanActive(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(name))
	results := []PublicCouple{}
	for i := range couples {
		c := &couples[i]
		if q != "" &&
			!strings.Contains(strings.ToLower(c.Person1.BirthName), q) &&
			!strings.Contains(strings.ToLower(c.Person2.BirthName), q) {
			continue
		}
		results = append(results, PublicCouple{
			CoupleID:              c.CoupleID,
			Person1:               publicPerson(c.Person1),
			Person2:               publicPerson(c.Person2),
			RelationshipStartDate: c.RelationshipStartDate,
			Verified:              c.Verified,
		})
	}
	return results, nil
}

func (s *service) Customize(ctx context.Context, coupleID string, req domain.UpdateCustomizationRequest) (*domain.Couple, error) {
	c, err := s.GetPublic(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	custom := c.Customization
	if req.CustomColor != nil {
		custom.CustomColor = *req.CustomColor
	}
	if req.LoveStory != nil {
		custom.LoveStory = *req.LoveStory
	}
	if req.AnniversaryDate != nil {
		if _, err := time.Parse(dateLayout, *req.AnniversaryDate); err != nil {
			return nil, fmt.Errorf("anniversary_date must be YYYY-MM-DD: %w", domain.ErrBadRequest)
		}
		custom.AnniversaryDate = *req.AnniversaryDate
	}
	if req.Tips != nil {
		custom.Tips = *req.Tips
	}
	if err := s.repo.UpdateCustomization(ctx, coupleID, custom); err != nil {
		return nil, err
	}
	c.Customization = custom
	return c, nil
}

func (s *service) AddPhoto(ctx context.Context, coupleID string, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("image required: %w", domain.ErrBadRequest)
	}
	c, err := s.GetPublic(ctx, coupleID)
	if err != nil {
		return "", err
	}
	ref, err := s.images.UploadBytes(ctx,
		fmt.Sprintf("gallery/%s/%s.jpg", c.CoupleID, id.New()), image)
	if err != nil {
		return "", err
	}
	if err := s.repo.AppendPhoto(ctx, coupleID, ref); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *service) Profile(ctx context.Context, coupleID string) (*Profile, error) {
	c, err := s.GetPublic(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	anchor := c.RelationshipStartDate
	if c.Customization.AnniversaryDate != "" {
		if d, err := time.Parse(dateLayout, c.Customization.AnniversaryDate); err == nil {
			anchor = d
		}
	}
	days := int(time.Since(anchor).Hours() / 24)
	if days < 0 {
		days = 0
	}

	urls := make([]string, 0, len(c.Photos))
	if s.images != nil {
		for _, ref := range c.Photos {
			u, err := s.images.PresignRef(ctx, ref, photoURLTTL)
			if err != nil {
				slog.Warn("could not presign gallery photo", "couple_id", c.CoupleID, "err", err)
				continue
			}
			urls = append(urls, u)
		}
	}

	return &Profile{
		Couple:    c,
		PhotoURLs: urls,
		Stats:     ProfileStats{DaysTogether: days, PhotosCount: len(c.Photos)},
	}, nil
}

func normalizePerson(p domain.Person) domain.Person {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.BirthName = strings.TrimSpace(p.BirthName)
	return p
}
