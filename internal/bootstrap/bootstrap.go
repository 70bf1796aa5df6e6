// Package bootstrap is the one-time startup migration. It is safe to run on
// every start: a second run finds nothing to change.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fmac-task/internal/services"
)

type Deps struct {
	Tasks    *services.TaskService
	Projects *services.ProjectService
	Users    *services.UserService
}

// Report counts the documents each step rewrote. Skipped lists the
// collection/id of documents left alone because their stored value could not
// be parsed.
type Report struct {
	RolesNormalized      int      `json:"rolesNormalized"`
	AssigneesReconciled  int      `json:"assigneesReconciled"`
	MembersCanonicalized int      `json:"membersCanonicalized"`
	Skipped              []string `json:"skipped,omitempty"`
}

func (r Report) String() string {
	return fmt.Sprintf("roles=%d assignees=%d members=%d skipped=%d", r.RolesNormalized, r.AssigneesReconciled, r.MembersCanonicalized, len(r.Skipped))
}

// Run executes every step even if an earlier one failed and returns the
// joined errors with whatever was done.
func Run(ctx context.Context, deps Deps) (Report, error) {
	var report Report
	var errs []error

	n, err := deps.Users.NormalizeRoles(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("normalize roles: %w", err))
	}
	report.RolesNormalized = n

	n, skipped, err := deps.Tasks.ReconcileAssignees(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile assignees: %w", err))
	}
	report.AssigneesReconciled = n
	report.Skipped = append(report.Skipped, skipped...)

	profiles, err := deps.Users.ProfileIndex(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("load profiles: %w", err))
	} else {
		n, skipped, err = deps.Projects.CanonicalizeMembers(ctx, profiles)
		if err != nil {
			errs = append(errs, fmt.Errorf("canonicalize members: %w", err))
		}
		report.MembersCanonicalized = n
		report.Skipped = append(report.Skipped, skipped...)
	}

	if err := errors.Join(errs...); err != nil {
		log.Printf("bootstrap: finished with errors (%s): %v", report, err)
		return report, err
	}
	log.Printf("bootstrap: done (%s)", report)
	return report, nil
}
