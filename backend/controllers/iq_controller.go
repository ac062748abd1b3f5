package controllers

import (
	"log"

	"eduhub/backend/services"
	"eduhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type IQController struct {
	Service *services.IQService
	Catalog *services.CatalogService
	Logger  *log.Logger
}

func NewIQController(service *services.IQService, catalog *services.CatalogService, logger *log.Logger) *IQController {
	return &IQController{Service: service, Catalog: catalog, Logger: logger}
}

type startSessionRequest struct {
	UserID uint `json:"userId"`
	TestID uint `json:"testId"`
}

// StartSession godoc
// @Summary Start or resume an IQ test session
// @Tags iq
// @Accept json
// @Produce json
// @Param body body startSessionRequest true "User and test"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /iq/sessions/start [post]
func (ic *IQController) StartSession(c *fiber.Ctx) error {
	var req startSessionRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	started, err := ic.Service.StartSession(c.UserContext(), req.UserID, req.TestID)
	if err != nil {
		return respondError(c, ic.Logger, err)
	}

	message := "Test session started"
	if started.Resumed {
		message = "Test session resumed"
	}
	return utils.SuccessMessage(c, fiber.StatusOK, message, started)
}

// GetSessionQuestions godoc
// @Summary Questions of a session, without correct answers
// @Tags iq
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /iq/sessions/{token}/questions [get]
func (ic *IQController) GetSessionQuestions(c *fiber.Ctx) error {
	questions, err := ic.Service.GetSessionQuestions(c.UserContext(), c.Params("token"))
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, questions)
}

func (ic *IQController) SaveAnswer(c *fiber.Ctx) error {
	var req services.SaveAnswerInput
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	if err := ic.Service.SaveAnswer(c.UserContext(), c.Params("token"), req); err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "Answer saved", nil)
}

type submitRequest struct {
	TimeSpent int `json:"timeSpent" validate:"gte=0"`
}

// SubmitTest godoc
// @Summary Score and complete a session
// @Tags iq
// @Accept json
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /iq/sessions/{token}/submit [post]
func (ic *IQController) SubmitTest(c *fiber.Ctx) error {
	var req submitRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	submission, err := ic.Service.SubmitTest(c.UserContext(), c.Params("token"), req.TimeSpent)
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "Test submitted successfully", submission)
}

func (ic *IQController) GetTestResult(c *fiber.Ctx) error {
	id, ok := paramID(c, "resultId")
	if !ok {
		return utils.BadRequest(c, "Invalid result ID")
	}

	result, err := ic.Service.GetTestResult(c.UserContext(), id)
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, result)
}

func (ic *IQController) GetUserHistory(c *fiber.Ctx) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return utils.BadRequest(c, "Invalid user ID")
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return utils.BadRequest(c, "limit must be a non-negative integer")
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return utils.BadRequest(c, "offset must be a non-negative integer")
	}

	history, err := ic.Service.GetUserHistory(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.Paginate(c, history.Results, utils.Pagination{
		Total:  history.Total,
		Limit:  history.Limit,
		Offset: history.Offset,
	})
}

func (ic *IQController) ListTests(c *fiber.Ctx) error {
	tests, err := ic.Catalog.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, tests)
}

func (ic *IQController) ListTestsSimple(c *fiber.Ctx) error {
	tests, err := ic.Catalog.ListSimple(c.UserContext())
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, tests)
}

func (ic *IQController) GetTest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}

	test, err := ic.Catalog.PublicTest(c.UserContext(), id)
	if err != nil {
		return respondError(c, ic.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, test)
}
