package service

import (
	"github.com/noah-isme/campus-portal-api/internal/models"
	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

// WorkflowConfig tunes the booking workflows.
type WorkflowConfig struct {
	AutoApprove          bool
	AutoApprovedMarker   string
	SessionTimetableName string
}

func (c WorkflowConfig) withDefaults() WorkflowConfig {
	if c.AutoApprovedMarker == "" {
		c.AutoApprovedMarker = "auto-approved"
	}
	if c.SessionTimetableName == "" {
		c.SessionTimetableName = "Booked Sessions"
	}
	return c
}

// authorizeApprover checks that actor may decide on a request for a resource owned by
// targetDepartment. Admins may always decide; an HOD only for their own department; shared
// resources fall to the principal.
func authorizeApprover(actor *models.JWTClaims, targetDepartment *string) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing actor")
	}
	if actor.HasRole(models.RoleAdmin) {
		return nil
	}
	if targetDepartment == nil || *targetDepartment == "" {
		if actor.HasRole(models.RolePrincipal) {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "only the principal can decide on shared resources")
	}
	if actor.HasRole(models.RoleHOD) && actor.DepartmentID == *targetDepartment {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "approver must belong to the target department")
}

// sameDepartmentHOD reports whether actor heads the department owning the target.
func sameDepartmentHOD(actor *models.JWTClaims, targetDepartment *string) bool {
	if actor == nil || !actor.HasRole(models.RoleHOD) || targetDepartment == nil {
		return false
	}
	return actor.DepartmentID != "" && actor.DepartmentID == *targetDepartment
}
