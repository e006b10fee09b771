package controller

import (
	"io"

	commonmw "github.com/kuntalKnight/cpftw-problems-service/internal/common/http/middleware"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/model"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/service"
	"github.com/kuntalKnight/cpftw-problems-service/internal/problem/validator"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ProblemController handles the problem catalog HTTP endpoints.
// Every handler validates the request, calls the service and shapes the result
// through the response validator.
type ProblemController struct {
	problemService *service.ProblemService
	requests       *validator.RequestValidator
}

// NewProblemController creates a new ProblemController.
func NewProblemController(problemService *service.ProblemService, requests *validator.RequestValidator) *ProblemController {
	if requests == nil {
		requests = validator.NewRequestValidator(validator.DefaultMaxLimit)
	}
	return &ProblemController{problemService: problemService, requests: requests}
}

// List handles GET /problems.
func (h *ProblemController) List(c *gin.Context) {
	verdict := h.requests.ValidateGetProblems(listQuery(c))
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	page, err := h.problemService.ListProblems(c.Request.Context(), verdict.ValidatedData.(model.ListFilter))
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpRetrieval))
		return
	}
	response.JSON(c, validator.GetProblemsResponse(page))
}

// Search handles GET /problems/search.
func (h *ProblemController) Search(c *gin.Context) {
	verdict := h.requests.ValidateSearchProblems(validator.SearchQuery{
		ListQuery: listQuery(c),
		Query:     c.Query("query"),
	})
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	filter := verdict.ValidatedData.(model.SearchFilter)
	page, err := h.problemService.SearchProblems(c.Request.Context(), filter)
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpSearch))
		return
	}
	response.JSON(c, validator.SearchProblemsResponse(page, filter.Query))
}

// Get handles GET /problems/:id.
func (h *ProblemController) Get(c *gin.Context) {
	verdict := h.requests.ValidateProblemID(c.Param("id"))
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	problem, err := h.problemService.GetProblem(c.Request.Context(), verdict.ValidatedData.(int64))
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpRetrieval))
		return
	}
	response.JSON(c, validator.GetProblemByIDResponse(problem))
}

// Create handles POST /problems.
func (h *ProblemController) Create(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	verdict := h.requests.ValidateCreateProblem(body)
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	problem, err := h.problemService.CreateProblem(c.Request.Context(), verdict.ValidatedData.(model.CreateInput))
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpCreation))
		return
	}
	response.JSON(c, validator.CreateProblemResponse(problem))
}

// Update handles PUT /problems/:id.
func (h *ProblemController) Update(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	verdict := h.requests.ValidateUpdateProblem(c.Param("id"), body)
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	req := verdict.ValidatedData.(validator.UpdateRequest)
	problem, err := h.problemService.UpdateProblem(c.Request.Context(), req.ID, req.Input)
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpUpdate))
		return
	}
	response.JSON(c, validator.UpdateProblemResponse(problem))
}

// Delete handles DELETE /problems/:id.
func (h *ProblemController) Delete(c *gin.Context) {
	verdict := h.requests.ValidateDeleteProblem(c.Param("id"))
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	if err := h.problemService.DeleteProblem(c.Request.Context(), verdict.ValidatedData.(int64)); err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpDeletion))
		return
	}
	response.JSON(c, validator.DeleteProblemResponse(true))
}

// RecordSubmission handles POST /problems/:id/submissions.
func (h *ProblemController) RecordSubmission(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}
	verdict := h.requests.ValidateRecordSubmission(c.Param("id"), body)
	if !verdict.IsValid {
		response.JSON(c, validator.InvalidRequestResponse(verdict))
		return
	}
	req := verdict.ValidatedData.(validator.SubmissionRequest)
	problem, err := h.problemService.RecordSubmission(c.Request.Context(), req.ID, req.Accepted)
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpUpdate))
		return
	}
	response.JSON(c, validator.SubmissionResponse(problem))
}

// Statistics handles GET /problems/statistics.
func (h *ProblemController) Statistics(c *gin.Context) {
	stats, err := h.problemService.GetStatistics(c.Request.Context())
	if err != nil {
		response.JSON(c, validator.ProblemErrorResponse(err, validator.OpRetrieval))
		return
	}
	response.JSON(c, validator.StatisticsResponse(stats))
}

func listQuery(c *gin.Context) validator.ListQuery {
	return validator.ListQuery{
		Page:       c.Query("page"),
		Limit:      c.Query("limit"),
		Difficulty: c.Query("difficulty"),
		Category:   c.Query("category"),
	}
}

func readBody(c *gin.Context) ([]byte, bool) {
	if c.Request.Body == nil {
		return nil, true
	}
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		return body, true
	}
	if commonmw.IsBodyTooLarge(err) {
		response.JSON(c, response.FromError(pkgerrors.New(pkgerrors.PayloadTooLarge)))
		return nil, false
	}
	response.JSON(c, response.NewValidationError([]string{"Request body could not be read"}, "Request body could not be read"))
	return nil, false
}
