package controller

import (
	"context"
	"errors"
	"fst_cloud_backend/internal/quiz"
	"fst_cloud_backend/internal/service"
	"fst_cloud_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type AnswerRequest struct {
	// option index for mcq, text for fill-blank and theory, null to clear
	Value any `json:"value" swaggertype:"string" example:"2"`
}

type NavigateRequest struct {
	Delta *int `json:"delta" example:"1"`
	Index *int `json:"index" example:"0"`
}

func prepareFailureStatus(err error) int {
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quiz.ErrExtractionFailed), errors.Is(err, quiz.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, quiz.ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return 0
	}
}

// writeQuizError maps registry, session and preparation errors.
func writeQuizError(ctx *gin.Context, err error) {
	if code := prepareFailureStatus(err); code != 0 {
		util.ErrorWithData(ctx, code, err.Error(), gin.H{"outcome": quiz.Outcome(err)})
		return
	}
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrSessionNotReady),
		errors.Is(err, quiz.ErrAlreadySubmitted),
		errors.Is(err, quiz.ErrNotSubmitted):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, quiz.ErrInvalidRequest),
		errors.Is(err, quiz.ErrInvalidAnswer),
		errors.Is(err, quiz.ErrIndexOutOfRange),
		errors.Is(err, util.ErrTooManyQuestions):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrServiceShutdown):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *QuizController) userID(ctx *gin.Context) (string, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return "", false
	}
	return claims.UserID(), true
}

// Start godoc
// @Summary Generate a quiz from an approved document
// @Description Starts preparing a quiz in the background and returns 202 with the session id. With wait=true the request blocks until the quiz is ready or failed.
// @Tags quiz
// @Produce  json
// @Security ApiKeyAuth
// @Param   pdfId query string true "Approved document ID"
// @Param   type query string true "Question type" Enums(mcq, fill-blank, theory)
// @Param   count query int false "Number of questions" default(10)
// @Param   wait query bool false "Block until ready"
// @Success 201 {object} util.Response{data=service.QuizStatus} "Ready"
// @Success 202 {object} util.Response{data=service.QuizStatus} "Preparing"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 404 {object} util.Response "Document not found"
// @Failure 422 {object} util.Response "Generated questions invalid"
// @Failure 502 {object} util.Response "Extraction or generation failed"
// @Router /quiz/sessions [post]
func (c *QuizController) Start(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}

	pdfID := ctx.Query("pdfId")
	if pdfID == "" {
		util.BadRequest(ctx, "pdfId parameter is required")
		return
	}
	kind, err := quiz.ParseKind(ctx.Query("type"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	count := c.QuizService.DefaultCount()
	if raw := ctx.Query("count"); raw != "" {
		if count, err = strconv.Atoi(raw); err != nil {
			util.BadRequest(ctx, "count must be a number")
			return
		}
	}

	st, err := c.QuizService.Start(userID, pdfID, kind, count)
	if err != nil {
		writeQuizError(ctx, err)
		return
	}

	if wait, _ := strconv.ParseBool(ctx.Query("wait")); !wait {
		util.Accepted(ctx, st)
		return
	}

	st, err = c.QuizService.Wait(ctx.Request.Context(), userID, st.ID)
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	if st.Phase == quiz.PhaseFailed {
		writeQuizError(ctx, c.QuizService.Err(userID, st.ID))
		return
	}
	util.Created(ctx, st)
}

// Get godoc
// @Summary Quiz session status and questions
// @Description Correct answers are never included before submission.
// @Tags quiz
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=service.QuizStatus} "Success"
// @Failure 404 {object} util.Response "Not Found"
// @Router /quiz/sessions/{id} [get]
func (c *QuizController) Get(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	st, err := c.QuizService.Status(userID, ctx.Param("id"))
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, st)
}

// Answer godoc
// @Summary Record an answer
// @Tags quiz
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Param   index path int true "Question index"
// @Param   body body AnswerRequest true "Answer"
// @Success 200 {object} util.Response{data=quiz.SessionView} "Success"
// @Failure 400 {object} util.Response "Bad Request"
// @Failure 409 {object} util.Response "Not ready or already submitted"
// @Router /quiz/sessions/{id}/answers/{index} [put]
func (c *QuizController) Answer(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "index must be a number")
		return
	}
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.QuizService.Answer(userID, ctx.Param("id"), index, req.Value)
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Navigate godoc
// @Summary Move between questions
// @Description Send delta for previous/next or index to jump. The position is clamped to the question range.
// @Tags quiz
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Param   body body NavigateRequest true "Delta or index"
// @Success 200 {object} util.Response{data=quiz.SessionView} "Success"
// @Router /quiz/sessions/{id}/navigate [post]
func (c *QuizController) Navigate(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	var req NavigateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var (
		view *quiz.SessionView
		err  error
	)
	switch {
	case req.Index != nil:
		view, err = c.QuizService.Goto(userID, ctx.Param("id"), *req.Index)
	case req.Delta != nil:
		view, err = c.QuizService.Navigate(userID, ctx.Param("id"), *req.Delta)
	default:
		util.BadRequest(ctx, "delta or index is required")
		return
	}
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Submit godoc
// @Summary Submit and grade the quiz
// @Tags quiz
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=quiz.Results} "Success"
// @Router /quiz/sessions/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	res, err := c.QuizService.Submit(userID, ctx.Param("id"))
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Retake godoc
// @Summary Clear answers and start the same quiz again
// @Tags quiz
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=quiz.SessionView} "Success"
// @Router /quiz/sessions/{id}/retake [post]
func (c *QuizController) Retake(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	view, err := c.QuizService.Retake(userID, ctx.Param("id"))
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Results godoc
// @Summary Graded results of a submitted quiz
// @Tags quiz
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=quiz.Results} "Success"
// @Failure 409 {object} util.Response "Not submitted"
// @Router /quiz/sessions/{id}/results [get]
func (c *QuizController) Results(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	res, err := c.QuizService.Results(userID, ctx.Param("id"))
	if err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// Discard godoc
// @Summary Abandon a quiz
// @Description Drops the session and cancels its preparation if still running.
// @Tags quiz
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response "Success"
// @Router /quiz/sessions/{id} [delete]
func (c *QuizController) Discard(ctx *gin.Context) {
	userID, ok := c.userID(ctx)
	if !ok {
		return
	}
	if err := c.QuizService.Discard(userID, ctx.Param("id")); err != nil {
		writeQuizError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}
