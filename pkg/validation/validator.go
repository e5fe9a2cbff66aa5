package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// LocalDateTimeLayout is the edit-friendly date form used by event forms (UTC, minute precision).
const LocalDateTimeLayout = "2006-01-02T15:04"

// MaxPriceDecimals is the number of fractional digits a price may carry; the events table stores NUMERIC(12,2).
const MaxPriceDecimals = 2

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// categoryNames backs the "category" message; set by RegisterEventRules.
var categoryNames []string

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the event rules (with the allowed categories) and account aliases.
func Init(categories []string) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Configure(v, categories)
	}
}

// New returns a standalone validator configured like the Gin one.
func New(categories []string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Configure(v, categories)
	return v
}

// Configure applies JSON tag naming, the event rules and the account aliases to v.
func Configure(v *validator.Validate, categories []string) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterEventRules(v, categories)

	_ = v.RegisterValidation("mixedpwd", isMixedPassword)
	v.RegisterAlias("pwd", "min=6,mixedpwd")
	v.RegisterAlias("displayname", "notblank,min=2")
}

// RegisterEventRules registers the custom tags shared by the event form and the API binding:
//
//	notblank  - string is non-empty after trimming
//	price     - decimal string or number, >= 0, at most MaxPriceDecimals fractional digits
//	category  - member of categories
//	eventdate - parses as LocalDateTimeLayout or RFC3339
func RegisterEventRules(v *validator.Validate, categories []string) {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c] = struct{}{}
	}
	categoryNames = append([]string(nil), categories...)

	_ = v.RegisterValidation("notblank", isNotBlank)
	_ = v.RegisterValidation("price", isPrice)
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return false
		}
		_, ok := allowed[f.String()]
		return ok
	})
	_ = v.RegisterValidation("eventdate", isEventDate)
}

func isNotBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return !f.IsZero()
	}
	return strings.TrimSpace(f.String()) != ""
}

func isPrice(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.String:
		d, err := ParsePrice(f.String())
		return err == nil && ValidPrice(d)
	case reflect.Float32, reflect.Float64:
		return ValidPrice(decimal.NewFromFloat(f.Float()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() >= 0
	case reflect.Struct:
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return ValidPrice(d)
		}
	}
	return false
}

// ValidPrice reports whether d is non-negative and storable without rounding.
func ValidPrice(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(MaxPriceDecimals))
}

func isEventDate(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() == reflect.Struct {
		if t, ok := f.Interface().(time.Time); ok {
			return !t.IsZero()
		}
		return false
	}
	if f.Kind() != reflect.String {
		return false
	}
	_, err := ParseEventDate(f.String())
	return err == nil
}

func isMixedPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return hasLower.MatchString(s) && hasUpper.MatchString(s) && hasDigit.MatchString(s)
}

// ParsePrice parses a user-entered price. Surrounding spaces are ignored.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty price")
	}
	return decimal.NewFromString(s)
}

// ParseEventDate accepts the edit-friendly local form (interpreted as UTC) or RFC3339.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(LocalDateTimeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event date %q", s)
	}
	return t.UTC(), nil
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "price":
		return fmt.Sprintf("must be a number greater than or equal to 0 with at most %d decimal places", MaxPriceDecimals)
	case "category":
		return "must be one of: " + categoryList()
	case "eventdate":
		return "must be a date in " + LocalDateTimeLayout + " or RFC3339 format"
	case "mixedpwd", "pwd":
		return "must include uppercase, lowercase, and numbers"
	case "displayname":
		return "must be at least 2 characters"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}

func categoryList() string {
	return strings.Join(categoryNames, ", ")
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
