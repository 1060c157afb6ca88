package gifts

import (
	"net/http"

	"github.com/goattech/giftflow/pkg/common"
)

// Error codes returned to clients alongside the mapped HTTP status.
const (
	CodeInvalidCode       = "INVALID_CODE"
	CodeLockedOut         = "LOCKED_OUT"
	CodeExpired           = "EXPIRED"
	CodeNotVerified       = "NOT_VERIFIED"
	CodeAlreadyClaimed    = "ALREADY_CLAIMED"
	CodeConflict          = "CONFLICT"
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeDependencyTimeout = "DEPENDENCY_TIMEOUT"
)

func NewGiftNotFoundError() *common.AppError {
	return common.NewAppError(http.StatusNotFound, CodeNotFound, "gift not found", nil)
}

func NewInvalidCodeError() *common.AppError {
	return common.NewAppError(http.StatusBadRequest, CodeInvalidCode, "verification code does not match", nil)
}

func NewLockedOutError() *common.AppError {
	return common.NewAppError(http.StatusConflict, CodeLockedOut, "too many failed verification attempts", nil)
}

func NewExpiredError() *common.AppError {
	return common.NewAppError(http.StatusGone, CodeExpired, "gift has expired", nil)
}

func NewNotVerifiedError() *common.AppError {
	return common.NewAppError(http.StatusPreconditionFailed, CodeNotVerified, "gift must be verified before claiming", nil)
}

func NewAlreadyClaimedError() *common.AppError {
	return common.NewAppError(http.StatusConflict, CodeAlreadyClaimed, "gift has already been claimed", nil)
}

func NewConflictError() *common.AppError {
	return common.NewAppError(http.StatusConflict, CodeConflict, "gift was modified concurrently, please retry", nil)
}

func NewDependencyTimeoutError(err error) *common.AppError {
	return common.NewAppError(http.StatusBadGateway, CodeDependencyTimeout, "order service is unavailable, claim will be completed shortly", err)
}
