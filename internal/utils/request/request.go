package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/course-admin-service/internal/utils/response"
)

var validate = validator.New()

// DecodeJSON reads and validates the request body into v. On failure it
// writes a 400 response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.KindError("InvalidArgument", errors.New("request body cannot be empty")))
		return false
	} else if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.KindError("InvalidArgument", err))
		return false
	}

	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.KindError("InvalidArgument", err))
		return false
	}

	return true
}
