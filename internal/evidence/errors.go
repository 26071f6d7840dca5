package evidence

import "errors"

var (
	// ErrEvidenceNotFound is returned when an evidence ID does not exist.
	ErrEvidenceNotFound = errors.New("evidence not found")

	// ErrInvalidType is returned for a type other than Image or Text.
	ErrInvalidType = errors.New("invalid evidence type")

	// ErrContentMismatch is returned when the content fields do not match the type.
	ErrContentMismatch = errors.New("evidence content does not match its type")

	// ErrInvalidImageURL is returned for an image_url that is not an absolute http(s) URL.
	ErrInvalidImageURL = errors.New("invalid image url")

	// ErrInvalidDescription is returned when the description is too long.
	ErrInvalidDescription = errors.New("invalid evidence description")
)

// IsValidation reports whether err is a client input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrContentMismatch) ||
		errors.Is(err, ErrInvalidImageURL) ||
		errors.Is(err, ErrInvalidDescription)
}
