package server

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sponsorly/sponsorly/internal/ads"
	"github.com/sponsorly/sponsorly/internal/auth"
	"github.com/sponsorly/sponsorly/internal/budget"
	"github.com/sponsorly/sponsorly/internal/common"
	"github.com/sponsorly/sponsorly/misc"
)

// abortErr maps engine errors onto the stable error-kind taxonomy.
// Anything unrecognized is logged with context and surfaced opaquely.
func abortErr(c *gin.Context, err error) {
	var exceeded *budget.ExceededError
	if errors.As(err, &exceeded) {
		misc.AbortWithKind(c, 400, "BudgetExceeded", err)
		return
	}

	switch err {
	case errBudgetBelowSpend:
		misc.AbortWithKind(c, 400, "BudgetExceeded", err)
	case ads.ErrAdNotFound, ads.ErrCampaignNotFound, ads.ErrInfluencerNotFound,
		errCampaignNotFound, errSponsorNotFound, auth.ErrInvalidUserID, auth.ErrRoleNotFound:
		misc.AbortWithKind(c, 404, "NotFound", err)
	case ads.ErrForbidden, errNotOwner:
		misc.AbortWithKind(c, 403, "Forbidden", err)
	case auth.ErrUnauthorized, auth.ErrInvalidCredentials:
		misc.AbortWithKind(c, 401, "Unauthorized", err)
	case ads.ErrInvalidTransition:
		misc.AbortWithKind(c, 400, "InvalidTransition", err)
	case ads.ErrNoNegotiationPending:
		misc.AbortWithKind(c, 400, "NoNegotiationPending", err)
	case auth.ErrRoleConflict:
		misc.AbortWithKind(c, 409, "RoleConflict", err)
	case auth.ErrEmailExists, auth.ErrUsernameExists, common.ErrProfileExists:
		misc.AbortWithKind(c, 409, "Conflict", err)
	case ads.ErrInvalidAmount, ads.ErrMissingRequirement,
		common.ErrInvalidCampaign, common.ErrBadNiche, common.ErrBadStatus,
		common.ErrBadVisibility, common.ErrBadAdStatus, common.ErrInvalidSponsor,
		common.ErrInvalidInfluencer, common.ErrVerificationBackward,
		common.ErrBadVerification,
		common.ErrAlreadyDeleted, common.ErrNotDeleted,
		auth.ErrInvalidRequest, auth.ErrInvalidName, auth.ErrInvalidEmail,
		auth.ErrShortPass, auth.ErrPasswordMismatch:
		misc.AbortWithKind(c, 400, "ValidationError", err)
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		misc.AbortWithKind(c, 500, "InternalError", auth.ErrUnexpected)
	}
}
