package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/config"
	"github.com/saulo-duarte/engmcq-web/internal/events"
)

type Backend interface {
	UploadAvatar(ctx context.Context, id backend.Identity, filename, contentType string, data []byte) (*backend.AvatarResponse, error)
	DeleteUserData(ctx context.Context, id backend.Identity) error
}

// FlowForgetter drops the in-progress quiz state of a user.
type FlowForgetter interface {
	Forget(ctx context.Context, userID string) error
}

type AvatarResult struct {
	URL     string
	Message string
}

type ProfileService interface {
	UpdateAvatar(ctx context.Context, id backend.Identity, u Upload) (*AvatarResult, error)
	DeleteData(ctx context.Context, id backend.Identity) error
}

type profileService struct {
	backend Backend
	flows   FlowForgetter
	events  events.Publisher
	now     func() time.Time
}

func NewService(b Backend, flows FlowForgetter, pub events.Publisher) ProfileService {
	return &profileService{backend: b, flows: flows, events: pub, now: time.Now}
}

func (s *profileService) UpdateAvatar(ctx context.Context, id backend.Identity, u Upload) (*AvatarResult, error) {
	log := config.WithContext(ctx)

	contentType, err := ValidateAvatar(u)
	if err != nil {
		log.WithError(err).Debug("Avatar rejected")
		return nil, err
	}

	resp, err := s.backend.UploadAvatar(ctx, id, u.Filename, contentType, u.Data)
	if err != nil {
		log.WithError(err).Warn("Failed to upload avatar")
		return nil, err
	}
	if resp.AvatarURL == "" {
		log.Warn("Backend accepted the avatar but returned no URL")
		if resp.Message != "" {
			return nil, &AvatarError{Message: resp.Message}
		}
		return nil, ErrNoAvatarURL
	}

	result := &AvatarResult{
		URL:     CacheBust(resp.AvatarURL, s.now()),
		Message: resp.Message,
	}
	if result.Message == "" {
		result.Message = "Avatar updated successfully!"
	}

	events.Emit(ctx, s.events, events.EventTypeAvatarUpdated, id.UserID, map[string]any{
		"avatar_url":   resp.AvatarURL,
		"content_type": contentType,
		"size":         len(u.Data),
	})
	return result, nil
}

// DeleteData removes the user's learning data upstream and then their local
// quiz state. Local cleanup failures are logged only.
func (s *profileService) DeleteData(ctx context.Context, id backend.Identity) error {
	log := config.WithContext(ctx)

	if err := s.backend.DeleteUserData(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to delete user data")
		return err
	}
	if s.flows != nil {
		if err := s.flows.Forget(ctx, id.UserID); err != nil {
			log.WithError(err).Error("Failed to drop quiz flows after data deletion")
		}
	}

	log.Info("User data deleted")
	events.Emit(ctx, s.events, events.EventTypeDataDeleted, id.UserID, nil)
	return nil
}

// CacheBust appends a v=<unix millis> query parameter to url.
func CacheBust(url string, now time.Time) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sv=%d", url, sep, now.UnixMilli())
}
