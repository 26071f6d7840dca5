package cases

import "errors"

var (
	// ErrCaseNotFound is returned when a case ID does not exist.
	ErrCaseNotFound = errors.New("case not found")

	// ErrEvidenceNotFound is returned when linking evidence that does not exist.
	ErrEvidenceNotFound = errors.New("evidence not found")

	// ErrEvidenceAlreadyLinked is returned when the evidence is already in the case.
	ErrEvidenceAlreadyLinked = errors.New("evidence already linked to case")

	// ErrInvalidTitle is returned when the title is empty or too long.
	ErrInvalidTitle = errors.New("invalid case title")

	// ErrInvalidStatus is returned for a status outside Open, Closed, Archived.
	ErrInvalidStatus = errors.New("invalid case status")

	// ErrInvalidDescription is returned when the description is too long.
	ErrInvalidDescription = errors.New("invalid case description")
)

// IsValidation reports whether err is a client input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidTitle) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDescription)
}
