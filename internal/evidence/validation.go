package evidence

import (
	"fmt"
	"net/url"
	"unicode/utf8"
)

const maxDescriptionLength = 10000

// validateContent enforces that exactly the field matching t is set.
func validateContent(t Type, imageURL, content string) error {
	switch t {
	case TypeImage:
		if imageURL == "" || content != "" {
			return fmt.Errorf("%w: Image evidence requires image_url and no content", ErrContentMismatch)
		}
		return validateImageURL(imageURL)
	case TypeText:
		if content == "" || imageURL != "" {
			return fmt.Errorf("%w: Text evidence requires content and no image_url", ErrContentMismatch)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidImageURL, raw)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return nil
}
