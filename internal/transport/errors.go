package transport

import (
	"errors"
	"net/http"

	"shopkeeper/internal/middleware"
	"shopkeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var statusByKind = map[service.ErrorKind]int{
	service.KindNotFound:          http.StatusNotFound,
	service.KindEmptyCart:         http.StatusBadRequest,
	service.KindInsufficientStock: http.StatusBadRequest,
	service.KindValidation:        http.StatusBadRequest,
	service.KindConflict:          http.StatusConflict,
	service.KindUnauthorized:      http.StatusUnauthorized,
	service.KindInternal:          http.StatusInternalServerError,
}

// respondWithServiceError writes err using the error envelope. The code is
// the error kind and stock failures carry their product details.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = &service.Error{Kind: service.KindInternal, Message: "internal server error", Err: err}
	}

	status, ok := statusByKind[svcErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithErrorCode(w, status, string(service.KindInternal), "internal server error", errorDetails(svcErr))
		return
	}

	middleware.RespondWithErrorCode(w, status, string(svcErr.Kind), svcErr.Message, errorDetails(svcErr))
}

func errorDetails(e *service.Error) map[string]interface{} {
	details := map[string]interface{}{}
	if e.ProductID != uuid.Nil {
		details["productId"] = e.ProductID.String()
	}
	if e.ProductName != "" {
		details["productName"] = e.ProductName
	}
	if e.Kind == service.KindInsufficientStock || e.Requested != 0 {
		details["requested"] = e.Requested
		details["available"] = e.Available
	}
	if e.Applied > 0 {
		details["appliedLines"] = e.Applied
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// pathID parses the {id} URL parameter, writing a 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, string(service.KindValidation), "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}
