package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 10
	DefaultMaxLimit = 100
)

// Verdict is the outcome of a validation. Validators never return errors;
// a failed check is a Verdict with IsValid false and a 4xx StatusCode.
type Verdict struct {
	IsValid       bool
	Errors        []string
	StatusCode    int
	ValidatedData interface{}
}

func valid(data interface{}) Verdict {
	return Verdict{IsValid: true, StatusCode: http.StatusOK, ValidatedData: data}
}

func invalid(errs ...string) Verdict {
	return Verdict{IsValid: false, Errors: errs, StatusCode: http.StatusBadRequest}
}

// ListQuery is the raw query string of a listing request.
type ListQuery struct {
	Page       string
	Limit      string
	Difficulty string
	Category   string
}

// SearchQuery is the raw query string of a search request.
type SearchQuery struct {
	ListQuery
	Query string
}

// UpdateRequest is the validated data of an update.
type UpdateRequest struct {
	ID    int64
	Input model.UpdateInput
}

// SubmissionRequest is the validated data of a recorded submission.
type SubmissionRequest struct {
	ID       int64
	Accepted bool
}

type testCasePayload struct {
	Input       string `json:"input" validate:"required"`
	Output      string `json:"output" validate:"required"`
	Description string `json:"description,omitempty"`
}

type createPayload struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"required,min=10,max=5000"`
	Difficulty  string            `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Category    string            `json:"category" validate:"required,max=100"`
	TestCases   []testCasePayload `json:"testCases" validate:"required,min=1,dive"`
	Constraints []string          `json:"constraints"`
	Tags        []string          `json:"tags"`
	TimeLimit   *int              `json:"timeLimit" validate:"omitnil,min=100,max=30000"`
	MemoryLimit *int              `json:"memoryLimit" validate:"omitnil,min=16,max=512"`
}

type updatePayload struct {
	Title       *string            `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string            `json:"description" validate:"omitnil,min=10,max=5000"`
	Difficulty  *string            `json:"difficulty" validate:"omitnil,oneof=easy medium hard"`
	Category    *string            `json:"category" validate:"omitnil,min=1,max=100"`
	TestCases   *[]testCasePayload `json:"testCases" validate:"omitnil,min=1,dive"`
	Constraints *[]string          `json:"constraints"`
	Tags        *[]string          `json:"tags"`
	TimeLimit   *int               `json:"timeLimit" validate:"omitnil,min=100,max=30000"`
	MemoryLimit *int               `json:"memoryLimit" validate:"omitnil,min=16,max=512"`
}

type submissionPayload struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

// RequestValidator checks incoming problem requests.
type RequestValidator struct {
	validate *validator.Validate
	maxLimit int
}

// NewRequestValidator creates a validator whose page size ceiling is maxLimit (100 when non-positive).
func NewRequestValidator(maxLimit int) *RequestValidator {
	if maxLimit <= 0 {
		maxLimit = DefaultMaxLimit
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v, maxLimit: maxLimit}
}

// ValidateGetProblems checks pagination and filters. ValidatedData is a model.ListFilter.
func (v *RequestValidator) ValidateGetProblems(q ListQuery) Verdict {
	filter, errs := v.listFilter(q)
	if errs != nil {
		return invalid(errs...)
	}
	return valid(filter)
}

// ValidateSearchProblems checks the query before the listing parameters. ValidatedData is a model.SearchFilter.
func (v *RequestValidator) ValidateSearchProblems(q SearchQuery) Verdict {
	if strings.TrimSpace(q.Query) == "" {
		return invalid("Search query is required")
	}
	if msg := checkLength(q.Query, "Search query", 1, model.QueryMaxLen); msg != "" {
		return invalid(msg)
	}
	filter, errs := v.listFilter(q.ListQuery)
	if errs != nil {
		return invalid(errs...)
	}
	return valid(model.SearchFilter{ListFilter: filter, Query: strings.TrimSpace(q.Query)})
}

func (v *RequestValidator) listFilter(q ListQuery) (model.ListFilter, []string) {
	page := parseLeadingInt(q.Page)
	if page == 0 {
		page = DefaultPage
	}
	limit := parseLeadingInt(q.Limit)
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		return model.ListFilter{}, []string{"Page number must be at least 1"}
	}
	if limit < 1 || limit > v.maxLimit {
		return model.ListFilter{}, []string{fmt.Sprintf("Limit must be between 1 and %d", v.maxLimit)}
	}

	filter := model.ListFilter{Page: page, Limit: limit}
	if q.Difficulty != "" {
		difficulty, ok := model.ParseDifficulty(q.Difficulty)
		if !ok {
			return model.ListFilter{}, []string{invalidDifficulty(q.Difficulty)}
		}
		filter.Difficulty = difficulty
	}
	if q.Category != "" {
		if msg := checkLength(q.Category, "category", 1, model.CategoryMaxLen); msg != "" {
			return model.ListFilter{}, []string{msg}
		}
		filter.Category = q.Category
	}
	return filter, nil
}

// ValidateProblemID checks a path id. ValidatedData is the int64 id.
func (v *RequestValidator) ValidateProblemID(raw string) Verdict {
	id, msg := parseProblemID(raw)
	if msg != "" {
		return invalid(msg)
	}
	return valid(id)
}

// ValidateDeleteProblem applies the id rules.
func (v *RequestValidator) ValidateDeleteProblem(raw string) Verdict {
	return v.ValidateProblemID(raw)
}

// ValidateCreateProblem decodes and checks a create body, reporting every violation.
// ValidatedData is a model.CreateInput with trimmed text and lower-case difficulty.
func (v *RequestValidator) ValidateCreateProblem(body []byte) Verdict {
	var payload createPayload
	if msg := decodeStrict(body, &payload); msg != "" {
		return invalid(msg)
	}
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Description = strings.TrimSpace(payload.Description)
	payload.Category = strings.TrimSpace(payload.Category)
	payload.Difficulty = strings.ToLower(strings.TrimSpace(payload.Difficulty))

	if errs := v.structErrors(payload); len(errs) > 0 {
		return invalid(errs...)
	}
	return valid(model.CreateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Difficulty:  model.Difficulty(payload.Difficulty),
		Category:    payload.Category,
		TestCases:   toTestCases(payload.TestCases),
		Constraints: payload.Constraints,
		Tags:        payload.Tags,
		TimeLimit:   payload.TimeLimit,
		MemoryLimit: payload.MemoryLimit,
	})
}

// ValidateUpdateProblem checks the id, then requires at least one key, then checks the fields.
// ValidatedData is an UpdateRequest.
func (v *RequestValidator) ValidateUpdateProblem(rawID string, body []byte) Verdict {
	id, msg := parseProblemID(rawID)
	if msg != "" {
		return invalid(msg)
	}

	var keys map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &keys); err != nil {
			return invalid(decodeMessage(err))
		}
	}
	if len(keys) == 0 {
		return invalid("At least one field must be provided for update")
	}

	var payload updatePayload
	if msg := decodeStrict(body, &payload); msg != "" {
		return invalid(msg)
	}
	payload.Title = trimmed(payload.Title)
	payload.Description = trimmed(payload.Description)
	payload.Category = trimmed(payload.Category)
	if payload.Difficulty != nil {
		d := strings.ToLower(strings.TrimSpace(*payload.Difficulty))
		payload.Difficulty = &d
	}

	if errs := v.structErrors(payload); len(errs) > 0 {
		return invalid(errs...)
	}

	input := model.UpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Constraints: payload.Constraints,
		Tags:        payload.Tags,
		TimeLimit:   payload.TimeLimit,
		MemoryLimit: payload.MemoryLimit,
	}
	if payload.Difficulty != nil {
		d := model.Difficulty(*payload.Difficulty)
		input.Difficulty = &d
	}
	if payload.TestCases != nil {
		tcs := toTestCases(*payload.TestCases)
		input.TestCases = &tcs
	}
	return valid(UpdateRequest{ID: id, Input: input})
}

// ValidateRecordSubmission checks the id and a body of the form {"accepted": bool}.
// ValidatedData is a SubmissionRequest.
func (v *RequestValidator) ValidateRecordSubmission(rawID string, body []byte) Verdict {
	id, msg := parseProblemID(rawID)
	if msg != "" {
		return invalid(msg)
	}
	var payload submissionPayload
	if msg := decodeStrict(body, &payload); msg != "" {
		return invalid(msg)
	}
	if errs := v.structErrors(payload); len(errs) > 0 {
		return invalid(errs...)
	}
	return valid(SubmissionRequest{ID: id, Accepted: *payload.Accepted})
}

func (v *RequestValidator) structErrors(payload interface{}) []string {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return msgs
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		switch kind {
		case reflect.Slice:
			return fmt.Sprintf("%q must contain at least %s items", field, fe.Param())
		case reflect.String:
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		switch kind {
		case reflect.Slice:
			return fmt.Sprintf("%q must contain less than or equal to %s items", field, fe.Param())
		case reflect.String:
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	}
	return fmt.Sprintf("%q is invalid", field)
}

// fieldPath drops the struct name so nested errors read like testCases[0].input.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func decodeStrict(body []byte, dst interface{}) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return "Request body must be a JSON object"
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeMessage(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "Request body must contain a single JSON object"
	}
	return ""
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return "Request body must be a JSON object"
		}
		return fmt.Sprintf("%q must be a %s", typeErr.Field, jsonTypeName(typeErr.Type))
	}
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return fmt.Sprintf("%s is not allowed", field)
	}
	return "Request body is not valid JSON"
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float64:
		return "number"
	case reflect.Slice:
		return "array"
	}
	return "object"
}

func parseProblemID(raw string) (int64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "Problem ID is required"
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if id < 1 {
			return 0, "Problem ID must be at least 1"
		}
		return id, ""
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, "Problem ID must be a valid number"
	}
	if f < 1 {
		return 0, "Problem ID must be at least 1"
	}
	return 0, "Problem ID must be a positive integer"
}

// parseLeadingInt reads an optional sign and the leading digits of s, ignoring the rest.
// Input without leading digits yields 0 so the caller falls back to its default.
func parseLeadingInt(s string) int {
	s = strings.TrimSpace(s)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		n = math.MaxInt32
	}
	return sign * int(n)
}

func checkLength(value, field string, min, max int) string {
	n := utf8.RuneCountInString(value)
	if n < min {
		return fmt.Sprintf("%s must be at least %d characters long", field, min)
	}
	if n > max {
		return fmt.Sprintf("%s must not exceed %d characters", field, max)
	}
	return ""
}

func invalidDifficulty(raw string) string {
	names := make([]string, 0, len(model.Difficulties))
	for _, d := range model.Difficulties {
		names = append(names, string(d))
	}
	return fmt.Sprintf("Invalid difficulty '%s'. Must be one of: %s", raw, strings.Join(names, ", "))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func toTestCases(payloads []testCasePayload) []model.TestCase {
	testCases := make([]model.TestCase, 0, len(payloads))
	for _, tc := range payloads {
		testCases = append(testCases, model.TestCase{Input: tc.Input, Output: tc.Output, Description: tc.Description})
	}
	return testCases
}
