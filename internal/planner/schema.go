package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephgoksu/weekplan/internal/utils"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// RawCandidate is the oracle's unverified output.
type RawCandidate string

// TaskRef is a task id as written by the oracle. Numbers and numeric strings
// are both accepted.
type TaskRef int64

// UnmarshalJSON accepts 3, 3.0 and "3".
func (r *TaskRef) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*r = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*r = TaskRef(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return fmt.Errorf("invalid task id %s", b)
	}
	*r = TaskRef(int64(f))
	return nil
}

// candidateItem is one entry of a day list. Only the id is read; title,
// priority and estimate always come from the request.
type candidateItem struct {
	ID TaskRef `json:"id" validate:"required,gt=0"`
}

// Candidate is a parsed but not yet normalized oracle answer.
type Candidate struct {
	Days         map[Weekday][]int64
	UnknownDays  []string
	InvalidItems int
}

// ParseCandidate reads raw oracle output into per-day id lists. Day keys are
// matched case-insensitively and repeated keys are concatenated in document
// order. Entries without a usable id are counted and dropped. It fails with
// ErrMalformedCandidate when the payload is not an object keyed by weekday
// whose values are lists.
func ParseCandidate(raw RawCandidate) (Candidate, error) {
	body, err := utils.ExtractJSONObject(string(raw))
	if err != nil {
		return Candidate{}, malformed("%v", err)
	}

	fields, err := orderedObject(body)
	if err != nil {
		return Candidate{}, malformed("%v", err)
	}
	fields = unwrapSingleObject(fields)

	cand := Candidate{Days: make(map[Weekday][]int64, len(Weekdays))}
	known := 0
	for _, f := range fields {
		day, ok := ParseWeekday(f.key)
		if !ok {
			cand.UnknownDays = append(cand.UnknownDays, f.key)
			continue
		}
		known++

		if bytes.Equal(bytes.TrimSpace(f.value), []byte("null")) {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(f.value, &entries); err != nil {
			return Candidate{}, malformed("%s is not a list", f.key)
		}
		for _, e := range entries {
			id, ok := parseEntry(e)
			if !ok {
				cand.InvalidItems++
				continue
			}
			cand.Days[day] = append(cand.Days[day], id)
		}
	}
	if known == 0 {
		return Candidate{}, malformed("no weekday keys found")
	}
	return cand, nil
}

// parseEntry extracts the id from an item object or a bare id.
func parseEntry(e json.RawMessage) (int64, bool) {
	trimmed := bytes.TrimSpace(e)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item candidateItem
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return 0, false
		}
		if res := validateStruct(&item); !res.Valid {
			return 0, false
		}
		return int64(item.ID), true
	}
	var ref TaskRef
	if err := json.Unmarshal(trimmed, &ref); err != nil || ref <= 0 {
		return 0, false
	}
	return int64(ref), true
}

type objectField struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object keeping key order, which encoding/json
// maps do not preserve.
func orderedObject(body string) ([]objectField, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var fields []objectField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		fields = append(fields, objectField{key: key, value: value})
	}
	return fields, nil
}

// unwrapSingleObject handles answers like {"weeklyPlan": {"Monday": [...]}}.
func unwrapSingleObject(fields []objectField) []objectField {
	if len(fields) != 1 {
		return fields
	}
	if _, ok := ParseWeekday(fields[0].key); ok {
		return fields
	}
	inner, err := orderedObject(string(fields[0].value))
	if err != nil {
		return fields
	}
	return inner
}

// ValidationError provides structured error information for schema validation failures
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// ValidationResult contains the result of schema validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// validateStruct validates any struct and returns a ValidationResult
func validateStruct(s any) ValidationResult {
	err := validate.Struct(s)
	if err == nil {
		return ValidationResult{Valid: true}
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationResult{Errors: []ValidationError{{Message: err.Error()}}}
	}
	var errs []ValidationError
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: formatValidationError(fe),
		})
	}
	return ValidationResult{Errors: errs}
}

// formatValidationError creates a human-readable error message
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
	}
}

// ErrorSummary returns a single string summarizing all validation errors
func (r ValidationResult) ErrorSummary() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}
