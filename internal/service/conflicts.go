package service

import (
	"github.com/noah-isme/campus-portal-api/internal/models"
	"github.com/noah-isme/campus-portal-api/internal/timeslot"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

// conflictError wraps detected conflicts into a 409 whose details list every colliding row.
func conflictError(metrics *MetricsService, message string, conflicts []timeslot.Conflict) error {
	seen := map[timeslot.Dimension]bool{}
	for _, c := range conflicts {
		if !seen[c.Dimension] {
			seen[c.Dimension] = true
			metrics.RecordConflict(c.Dimension)
		}
	}
	domainErr := &models.ReservationConflictError{Message: message, Conflicts: conflicts}
	appErr := appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	appErr.Details = map[string]interface{}{"conflicts": conflicts}
	return appErr
}

// transitionError reports an illegal status change in the wording clients match on.
func transitionError(from, to string) error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, "Cannot change status from "+from+" to "+to)
}
