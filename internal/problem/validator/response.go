package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"
)

// Operation names the action in error messages, e.g. "Problem creation failed".
type Operation string

const (
	OpRetrieval Operation = "retrieval"
	OpCreation  Operation = "creation"
	OpUpdate    Operation = "update"
	OpDeletion  Operation = "deletion"
	OpSearch    Operation = "search"
)

// SensitiveFields are removed from every object before it is returned.
var SensitiveFields = []string{"password", "token", "secret"}

var (
	listItemFields   = []string{"title", "difficulty", "category"}
	detailFields     = []string{"id", "title", "description", "difficulty", "category", "testCases"}
	writeFields      = []string{"id", "title", "description", "difficulty", "category"}
	searchItemFields = []string{"id", "title", "difficulty", "category"}
)

// InvalidRequestResponse turns a failed request verdict into a 400 envelope.
func InvalidRequestResponse(v Verdict) response.Envelope {
	env := response.NewValidationError(v.Errors, strings.Join(v.Errors, ", "))
	if v.StatusCode != 0 {
		env.StatusCode = v.StatusCode
	}
	return env
}

// GetProblemsResponse shapes a listing page.
func GetProblemsResponse(page model.ProblemPage) response.Envelope {
	items, env, ok := checkedItems(page.Items, listItemFields, "Invalid problem data structure")
	if !ok {
		return env
	}
	return response.NewPaginated(items, page.Page, page.Limit, page.Total, "Problems retrieved successfully")
}

// SearchProblemsResponse shapes a search page and attaches search metadata.
func SearchProblemsResponse(page model.ProblemPage, query string) response.Envelope {
	items, env, ok := checkedItems(page.Items, searchItemFields, "Invalid problem data structure in search results")
	if !ok {
		return env
	}
	env = response.NewPaginated(items, page.Page, page.Limit, page.Total, "Search completed successfully")
	env.SearchMetadata = &response.SearchMetadata{
		Query:        query,
		ResultsCount: len(items),
		TotalResults: page.Total,
	}
	return env
}

// GetProblemByIDResponse shapes a single fetch; nil yields 404.
func GetProblemByIDResponse(p *model.Problem) response.Envelope {
	if p == nil {
		return response.NewNotFound("Problem")
	}
	return checkedEntity(p, detailFields, "Invalid problem data structure", "Problem retrieved successfully", http.StatusOK)
}

// CreateProblemResponse shapes a created problem with status 201.
func CreateProblemResponse(p *model.Problem) response.Envelope {
	if p == nil {
		return structuralError("Problem creation failed", "Failed to create problem")
	}
	return checkedEntity(p, writeFields, "Invalid created problem structure", "Problem created successfully", http.StatusCreated)
}

// UpdateProblemResponse shapes an updated problem; nil yields 404.
func UpdateProblemResponse(p *model.Problem) response.Envelope {
	if p == nil {
		return response.NewNotFound("Problem")
	}
	return checkedEntity(p, writeFields, "Invalid updated problem structure", "Problem updated successfully", http.StatusOK)
}

// DeleteProblemResponse confirms a soft delete.
func DeleteProblemResponse(deleted bool) response.Envelope {
	if !deleted {
		return response.NewNotFound("Problem")
	}
	const msg = "Problem deleted successfully"
	return response.NewSuccess(map[string]string{"message": msg}, msg, http.StatusOK)
}

// SubmissionResponse returns the problem with its refreshed counters.
func SubmissionResponse(p *model.Problem) response.Envelope {
	if p == nil {
		return response.NewNotFound("Problem")
	}
	return checkedEntity(p, writeFields, "Invalid updated problem structure", "Submission recorded successfully", http.StatusOK)
}

// StatisticsResponse wraps the catalog statistics.
func StatisticsResponse(stats model.Statistics) response.Envelope {
	return response.NewSuccess(stats, "Statistics retrieved successfully", http.StatusOK)
}

// ProblemErrorResponse classifies err by its code: validation 400, not found 404,
// conflict 409, auth codes as they are, anything else a generic 500.
func ProblemErrorResponse(err error, op Operation) response.Envelope {
	status := pkgerrors.GetCode(err).HTTPStatus()
	switch status {
	case http.StatusBadRequest:
		return response.NewValidationError(pkgerrors.Messages(err), fmt.Sprintf("Problem %s validation failed", op))
	case http.StatusNotFound:
		return response.NewNotFound("Problem")
	case http.StatusConflict:
		return response.NewConflict(fmt.Sprintf("Problem %s conflict: %s", op, err.Error()))
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return response.FromError(err)
	}
	return response.NewInternalError(fmt.Sprintf("Problem %s failed", op))
}

func checkedEntity(p *model.Problem, required []string, invalidMsg, okMsg string, status int) response.Envelope {
	obj, err := toObject(p)
	if err != nil {
		return structuralError(invalidMsg, err.Error())
	}
	if missing := MissingFields(obj, required); len(missing) > 0 {
		return structuralError(invalidMsg, missingMessage(missing))
	}
	return response.NewSuccess(Sanitize(obj), okMsg, status)
}

func checkedItems(items []model.Problem, required []string, invalidMsg string) ([]interface{}, response.Envelope, bool) {
	out := make([]interface{}, 0, len(items))
	for i := range items {
		obj, err := toObject(&items[i])
		if err != nil {
			return nil, structuralError(invalidMsg, err.Error()), false
		}
		if missing := MissingFields(obj, required); len(missing) > 0 {
			return nil, structuralError(invalidMsg, missingMessage(missing)), false
		}
		out = append(out, Sanitize(obj))
	}
	return out, response.Envelope{}, true
}

func structuralError(message, detail string) response.Envelope {
	env := response.NewInternalError(message)
	env.Errors = []string{detail}
	return env
}

func missingMessage(missing []string) string {
	return "Missing required response fields: " + strings.Join(missing, ", ")
}

// MissingFields lists the required keys that are absent, null or empty strings in obj.
func MissingFields(obj map[string]interface{}, required []string) []string {
	var missing []string
	for _, field := range required {
		value, ok := obj[field]
		if !ok || value == nil {
			missing = append(missing, field)
			continue
		}
		if s, isString := value.(string); isString && s == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Sanitize returns data with SensitiveFields removed from every nested object.
func Sanitize(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				continue
			}
			out[key] = Sanitize(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, value := range v {
			out[i] = Sanitize(value)
		}
		return out
	}
	return data
}

func isSensitive(key string) bool {
	for _, field := range SensitiveFields {
		if key == field {
			return true
		}
	}
	return false
}

func toObject(v interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}
