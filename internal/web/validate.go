package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/auction/internal/auction"
	"github.com/JonMunkholm/auction/internal/core"
)

// maxJSONBody caps API request bodies; imports use the multipart limit.
const maxJSONBody = 1 << 20

// newValidator builds the request validator with the auction rules
// registered.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
		_, ok := auction.ParsePosition(fl.Field().String())
		return ok
	})
	v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		_, ok := auction.ParseGender(fl.Field().String())
		return ok
	})
	return v
}

// fieldErrors maps a failing field to the domain error the operator sees.
var fieldErrors = map[string]error{
	"name":     auction.ErrNameRequired,
	"position": auction.ErrInvalidPosition,
	"gender":   auction.ErrInvalidGender,
	"budget":   auction.ErrInvalidBudget,
	"price":    auction.ErrInvalidPrice,
	"teamId":   auction.ErrTeamRequired,
	"playerId": errInvalidID,
}

// checkRequest validates v and converts the first failure to a domain error.
func (s *Server) checkRequest(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		if mapped, ok := fieldErrors[fe.Field()]; ok {
			return mapped
		}
		return fmt.Errorf("%w: %s failed %s", errInvalidBody, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", errInvalidBody, err)
}

// decodeJSON reads a JSON body into v and validates it. An empty body
// decodes as the zero value.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return s.checkRequest(v)
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}

// confirmed reports whether a destructive request carries explicit
// confirmation, either ?confirm=true (or a form field) or X-Confirm: true.
func confirmed(r *http.Request) bool {
	for _, v := range []string{r.FormValue("confirm"), r.Header.Get("X-Confirm")} {
		if ok, err := strconv.ParseBool(v); err == nil && ok {
			return true
		}
	}
	return false
}

// requireConfirm returns core.ErrConfirmationRequired unless confirmed.
func requireConfirm(r *http.Request) error {
	if confirmed(r) {
		return nil
	}
	return core.ErrConfirmationRequired
}
