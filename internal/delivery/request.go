package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Vovarama1992/nexcast/internal/domain"
)

// maxBodyBytes caps JSON bodies; base64 frames are the largest payload.
const maxBodyBytes = 16 << 20

// flexID accepts 42 and "42" alike; clients of the old API send both.
type flexID int64

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("session_id must be an integer")
	}
	*id = flexID(n)
	return nil
}

// decodeBody treats a missing body as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: invalid json: %v", domain.ErrBadRequest, err)
}
