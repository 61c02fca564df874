package service

import (
	"errors"

	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
)

// translateScoringErr maps scoring sentinels onto API errors.
// Configuration faults stay distinct from caller mistakes.
func translateScoringErr(err error, message string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, scoring.ErrConfiguration), errors.Is(err, scoring.ErrInvalidHierarchy):
		return appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, appErrors.ErrConfiguration.Message)
	case errors.Is(err, scoring.ErrInvalidPercentage):
		return appErrors.Wrap(err, appErrors.ErrInvalidPercentage.Code, appErrors.ErrInvalidPercentage.Status, appErrors.ErrInvalidPercentage.Message)
	case errors.Is(err, scoring.ErrUnknownItem), errors.Is(err, scoring.ErrDuplicateItem), errors.Is(err, scoring.ErrLevelOutOfRange):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating does not match the competency hierarchy")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}
