package core

import (
	"mime"
	"net/http"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/validation"
)

const MimeTypeJSON = "application/json"

// Validator defines request validation operations.
type Validator interface {
	// ContentType checks that the request's Content-Type matches allowedType.
	ContentType(r *http.Request, allowedType string) error
	// Struct checks a decoded payload against its validate tags.
	Struct(s any) error
}

// DefaultValidator implements the Validator interface.
type DefaultValidator struct{}

func NewValidator() Validator {
	return &DefaultValidator{}
}

// ContentType ignores parameters, "application/json; charset=utf-8" is
// application/json.
func (v *DefaultValidator) ContentType(r *http.Request, allowedType string) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return apperr.ErrInvalidContentType
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != allowedType {
		return apperr.ErrInvalidContentType
	}
	return nil
}

func (v *DefaultValidator) Struct(s any) error {
	return validation.Struct(s)
}
