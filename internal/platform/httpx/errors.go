package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/vouchergrid/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrNotEditable):
		Problem(w, http.StatusConflict, "Not Editable", err.Error())
	case errors.Is(err, shared.ErrActionInFlight):
		Problem(w, http.StatusConflict, "Action In Flight", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
