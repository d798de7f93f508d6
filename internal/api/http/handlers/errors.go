package handlers

import (
	"context"
	"errors"

	"github.com/spec-kit/helpdesk-dashboard/internal/service"
	"github.com/spec-kit/helpdesk-dashboard/internal/zammad"
	apperrors "github.com/spec-kit/helpdesk-dashboard/pkg/util/errorutil"
)

// sessionError maps session and helpdesk failures onto API errors.
func sessionError(err error) error {
	var failed *zammad.RequestFailedError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrNoSession):
		return apperrors.NewUnauthenticated("session expired")
	case errors.Is(err, zammad.ErrUnauthenticated):
		return apperrors.NewUnauthenticated("helpdesk session expired")
	case errors.Is(err, service.ErrNotAgent):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, zammad.ErrForbidden):
		return apperrors.NewForbidden("helpdesk denied access")
	case errors.As(err, &failed):
		return apperrors.NewUpstreamFailed(failed.Status, failed.StatusText, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewServiceUnavailable("helpdesk did not respond in time", nil)
	}
	return err
}
