package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
)

// IntRange bounds an integer query parameter. Default applies when the parameter is absent.
type IntRange struct {
	Default int
	Min     int
	Max     int
}

// ParseQueryInt reads key from the query string and checks it against bounds.
func ParseQueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bounds.Default, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "must be a whole number")
	}
	if value < bounds.Min || value > bounds.Max {
		return 0, queryError(key, fmt.Sprintf("must be between %d and %d", bounds.Min, bounds.Max))
	}
	return value, nil
}

func queryError(key, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "Invalid query parameter").
		WithDetails(map[string]string{key: msg})
}
