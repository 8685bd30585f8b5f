package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/middleware"
	"wholesale-backend/internal/timeutil"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator reports JSON field names in validation errors
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// decodeJSON reads the body into dst and runs struct validation
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := getValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return apperr.ValidationFields("request validation failed", fields)
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || n <= 0 {
		return 0, apperr.Validation("invalid " + name).WithDetail(name, mux.Vars(r)[name])
	}
	return n, nil
}

// queryInt returns 0 when the parameter is absent
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("invalid " + name).WithDetail(name, raw)
	}
	return n, nil
}

// queryDateRange parses from/to (YYYY-MM-DD, both inclusive) into [start, end)
func queryDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := timeutil.ParseDate(raw)
		if err != nil {
			return nil, nil, apperr.Validation("invalid from date").WithDetail("from", raw)
		}
		start = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := timeutil.ParseDate(raw)
		if err != nil {
			return nil, nil, apperr.Validation("invalid to date").WithDetail("to", raw)
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	return start, end, nil
}

// pagination reads limit/offset
func pagination(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// operatorID is the authenticated user; the auth middleware guarantees it on /api routes
func operatorID(r *http.Request) int {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}
