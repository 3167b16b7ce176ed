package debate

import (
	"fmt"
	"net/http"

	"github.com/yungbote/agora-backend/internal/platform/apierr"
)

// Error codes returned synchronously by Start/Stop. Failures inside the
// asynchronous round loop never surface here; they arrive as an `error` event
// plus the debate's terminal `failed` status.
const (
	CodeValidation  = "validation_error"
	CodeComposition = "composition_error"
	CodeCapacity    = "capacity_error"
)

func validationError(format string, args ...interface{}) *apierr.Error {
	return apierr.New(http.StatusConflict, CodeValidation, fmt.Errorf(format, args...))
}

func notFoundError(format string, args ...interface{}) *apierr.Error {
	return apierr.New(http.StatusNotFound, CodeValidation, fmt.Errorf(format, args...))
}

func compositionError(format string, args ...interface{}) *apierr.Error {
	return apierr.New(http.StatusUnprocessableEntity, CodeComposition, fmt.Errorf(format, args...))
}

func capacityError(format string, args ...interface{}) *apierr.Error {
	return apierr.New(http.StatusTooManyRequests, CodeCapacity, fmt.Errorf(format, args...))
}
