package utils

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/logger"
)

// JSON writes data with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error maps err to an AppError response. Internal errors are logged and the
// client only sees a generic message.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternalError {
		logger.For("http").WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		JSON(w, appErr.HTTPStatus, errorBody{Code: appErr.Code, Message: "internal server error"})
		return
	}
	JSON(w, appErr.HTTPStatus, errorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details})
}
