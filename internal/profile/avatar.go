package profile

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const MaxAvatarSize = 2 << 20

// AvatarError is an avatar problem whose message is shown to the user as is.
type AvatarError struct {
	Message string
}

func (e *AvatarError) Error() string {
	return e.Message
}

var (
	ErrNoFile       = &AvatarError{Message: "Please select an image file."}
	ErrFileTooLarge = &AvatarError{Message: "File is too large. Maximum size is 2MB."}
	ErrInvalidType  = &AvatarError{Message: "Invalid file type. Please select a PNG, JPG, GIF, or WEBP image."}
	ErrNoAvatarURL  = &AvatarError{Message: "Failed to get new avatar URL from server."}
)

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload is an avatar image as received from the browser.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ValidateAvatar checks size and type before anything is sent upstream. The
// declared type has to be an accepted image type and so does the sniffed
// content; the sniffed type is returned.
func ValidateAvatar(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ErrNoFile
	}
	if len(u.Data) > MaxAvatarSize {
		return "", ErrFileTooLarge
	}

	declared := mediaType(u.ContentType)
	if declared == "" || declared == "application/octet-stream" {
		declared = mediaType(mime.TypeByExtension(strings.ToLower(filepath.Ext(u.Filename))))
	}
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if !avatarTypes[declared] {
		return "", ErrInvalidType
	}

	sniffed := http.DetectContentType(u.Data)
	if !avatarTypes[sniffed] {
		return "", ErrInvalidType
	}
	return sniffed, nil
}

func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}
