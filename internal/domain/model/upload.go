package model

import (
	"fmt"

	"telegram-imgbb-uploader/internal/domain"
)

type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindProvider   ErrorKind = "provider"
)

// UploadOutcome is the normalized result of one upload attempt.
// When OK is true the URL fields are set (DeleteURL may be empty);
// otherwise Reason and Kind describe the failure.
type UploadOutcome struct {
	OK bool

	DirectURL    string
	ThumbnailURL string
	ViewerURL    string
	DeleteURL    string

	Reason string
	Kind   ErrorKind
}

func Success(directURL, thumbnailURL, viewerURL, deleteURL string) UploadOutcome {
	return UploadOutcome{
		OK:           true,
		DirectURL:    directURL,
		ThumbnailURL: thumbnailURL,
		ViewerURL:    viewerURL,
		DeleteURL:    deleteURL,
	}
}

func Failure(kind ErrorKind, reason string) UploadOutcome {
	return UploadOutcome{Kind: kind, Reason: reason}
}

// Err maps a failed outcome onto the domain error taxonomy. It returns nil on success.
func (o UploadOutcome) Err() error {
	if o.OK {
		return nil
	}
	switch o.Kind {
	case KindValidation:
		return fmt.Errorf("%w: %s", domain.ErrInvalidImage, o.Reason)
	case KindProvider:
		return fmt.Errorf("%w: %s", domain.ErrProvider, o.Reason)
	default:
		return fmt.Errorf("%w: %s", domain.ErrTransport, o.Reason)
	}
}
