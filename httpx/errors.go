package httpx

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/log"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// LogError maps a core error to its HTTP status: validation failures are
// 422 with the message in the body, missing entities 404, link generation
// exhaustion 503, anything else 500.
func LogError(w http.ResponseWriter, code string, err error) {
	switch {
	case apperr.IsValidation(err):
		log.Debugf("%s: %s", code, err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case apperr.IsNotFound(err):
		log.Debugf("%s: %s", code, err)
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrLinkExhausted):
		log.Errorf("%s: %s", code, err)
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		LogInternalError(w, code, err)
	}
}
