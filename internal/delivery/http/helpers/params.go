package helpers

import (
	"net/http"

	"github.com/google/uuid"
)

// PathUUID returns the named path value if it is a valid UUID. Otherwise it writes a
// 400 and returns false.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id.String(), true
}
