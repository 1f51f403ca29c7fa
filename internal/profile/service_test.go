package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/backend"
	"github.com/saulo-duarte/engmcq-web/internal/events"
	"github.com/saulo-duarte/engmcq-web/internal/profile"
)

type fakeBackend struct {
	avatarURL   string
	message     string
	uploadErr   error
	deleteErr   error
	uploadType  string
	uploadCount int
	deleted     int
}

func (b *fakeBackend) UploadAvatar(_ context.Context, _ backend.Identity, _, contentType string, _ []byte) (*backend.AvatarResponse, error) {
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	b.uploadCount++
	b.uploadType = contentType
	return &backend.AvatarResponse{AvatarURL: b.avatarURL, Message: b.message}, nil
}

func (b *fakeBackend) DeleteUserData(_ context.Context, _ backend.Identity) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deleted++
	return nil
}

type fakeFlows struct {
	forgotten []string
}

func (f *fakeFlows) Forget(_ context.Context, userID string) error {
	f.forgotten = append(f.forgotten, userID)
	return nil
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var ana = backend.Identity{UserID: "user-1", BearerToken: "id-token"}

func TestCacheBust(t *testing.T) {
	now := time.UnixMilli(1714560000123)
	if got := profile.CacheBust("https://cdn.example/a.png", now); got != "https://cdn.example/a.png?v=1714560000123" {
		t.Errorf("URL incorreta: %q", got)
	}
	if got := profile.CacheBust("https://cdn.example/a.png?size=64", now); got != "https://cdn.example/a.png?size=64&v=1714560000123" {
		t.Errorf("URL incorreta: %q", got)
	}
}

func TestUpdateAvatar(t *testing.T) {
	upload := profile.Upload{Filename: "me.png", ContentType: "image/png", Data: pngBytes}

	t.Run("Success", func(t *testing.T) {
		b := &fakeBackend{avatarURL: "https://cdn.example/a.png"}
		pub := &recordingPublisher{}
		s := profile.NewService(b, nil, pub)

		res, err := s.UpdateAvatar(context.Background(), ana, upload)
		if err != nil {
			t.Fatalf("erro inesperado: %v", err)
		}
		if len(res.URL) <= len("https://cdn.example/a.png?v=") || res.URL[:len("https://cdn.example/a.png?v=")] != "https://cdn.example/a.png?v=" {
			t.Errorf("URL sem cache busting: %q", res.URL)
		}
		if res.Message != "Avatar updated successfully!" {
			t.Errorf("mensagem padrão incorreta: %q", res.Message)
		}
		if b.uploadType != "image/png" {
			t.Errorf("tipo enviado incorreto: %q", b.uploadType)
		}
		if len(pub.events) != 1 || pub.events[0].Type != events.EventTypeAvatarUpdated {
			t.Errorf("evento ausente: %+v", pub.events)
		}
	})

	t.Run("RejectedBeforeUpload", func(t *testing.T) {
		b := &fakeBackend{avatarURL: "https://cdn.example/a.png"}
		s := profile.NewService(b, nil, nil)
		_, err := s.UpdateAvatar(context.Background(), ana, profile.Upload{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hello")})
		if !errors.Is(err, profile.ErrInvalidType) {
			t.Errorf("esperado ErrInvalidType, recebido %v", err)
		}
		if b.uploadCount != 0 {
			t.Error("arquivo inválido não deveria ser enviado ao backend")
		}
	})

	t.Run("MissingURL", func(t *testing.T) {
		s := profile.NewService(&fakeBackend{message: "Stored, URL pending"}, nil, nil)
		_, err := s.UpdateAvatar(context.Background(), ana, upload)
		var avatarErr *profile.AvatarError
		if !errors.As(err, &avatarErr) || avatarErr.Message != "Stored, URL pending" {
			t.Errorf("esperado a mensagem do backend, recebido %v", err)
		}

		s = profile.NewService(&fakeBackend{}, nil, nil)
		if _, err := s.UpdateAvatar(context.Background(), ana, upload); !errors.Is(err, profile.ErrNoAvatarURL) {
			t.Errorf("esperado ErrNoAvatarURL, recebido %v", err)
		}
	})
}

func TestDeleteData(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		b := &fakeBackend{}
		flows := &fakeFlows{}
		pub := &recordingPublisher{}
		s := profile.NewService(b, flows, pub)

		if err := s.DeleteData(context.Background(), ana); err != nil {
			t.Fatalf("erro inesperado: %v", err)
		}
		if b.deleted != 1 {
			t.Error("backend não recebeu a exclusão")
		}
		if len(flows.forgotten) != 1 || flows.forgotten[0] != "user-1" {
			t.Errorf("fluxos locais não foram apagados: %v", flows.forgotten)
		}
		if len(pub.events) != 1 || pub.events[0].Type != events.EventTypeDataDeleted {
			t.Errorf("evento ausente: %+v", pub.events)
		}
	})

	t.Run("BackendFailureKeepsFlows", func(t *testing.T) {
		flows := &fakeFlows{}
		s := profile.NewService(&fakeBackend{deleteErr: &backend.APIError{Status: 500, Detail: "boom"}}, flows, nil)
		if err := s.DeleteData(context.Background(), ana); err == nil {
			t.Fatal("esperado erro")
		}
		if len(flows.forgotten) != 0 {
			t.Error("fluxos não deveriam ser apagados quando o backend falha")
		}
	})
}
