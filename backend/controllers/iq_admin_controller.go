package controllers

import (
	"log"

	"eduhub/backend/middleware"
	"eduhub/backend/services"
	"eduhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type IQAdminController struct {
	Catalog *services.CatalogService
	Logger  *log.Logger
}

func NewIQAdminController(catalog *services.CatalogService, logger *log.Logger) *IQAdminController {
	return &IQAdminController{Catalog: catalog, Logger: logger}
}

func pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// ListTests godoc
// @Summary List IQ tests for administration
// @Tags iq-admin
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param search query string false "Title or description filter"
// @Param status query string false "all, active or inactive"
// @Success 200 {object} utils.PaginatedResponse
// @Router /iq/admin/tests [get]
func (ac *IQAdminController) ListTests(c *fiber.Ctx) error {
	var q services.AdminTestQuery
	if err := c.QueryParser(&q); err != nil {
		return utils.BadRequest(c, "Invalid query parameters")
	}
	if fields := utils.ValidateStruct(&q); len(fields) > 0 {
		return utils.ValidationError(c, fields)
	}

	page, err := ac.Catalog.AdminList(c.UserContext(), q)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Paginate(c, page.Tests, utils.Pagination{
		Total:  page.Total,
		Page:   page.Page,
		Limit:  page.Limit,
		Offset: (page.Page - 1) * page.Limit,
		Pages:  pages(page.Total, page.Limit),
	})
}

// CreateTest godoc
// @Summary Create an IQ test
// @Tags iq-admin
// @Accept json
// @Produce json
// @Param test body services.CreateTestInput true "Test, time limit in minutes"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /iq/admin/tests [post]
func (ac *IQAdminController) CreateTest(c *fiber.Ctx) error {
	var in services.CreateTestInput
	if ok, err := bindBody(c, &in); !ok {
		return err
	}

	test, err := ac.Catalog.CreateTest(c.UserContext(), in, middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusCreated, "IQ test created successfully", test)
}

func (ac *IQAdminController) GetTest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}

	test, err := ac.Catalog.AdminTest(c.UserContext(), id)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, test)
}

func (ac *IQAdminController) UpdateTest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}
	var patch services.TestPatch
	if ok, err := bindBody(c, &patch); !ok {
		return err
	}

	test, err := ac.Catalog.UpdateTest(c.UserContext(), id, patch)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "IQ test updated successfully", test)
}

type statusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (ac *IQAdminController) UpdateTestStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}
	var req statusRequest
	if ok, err := bindBody(c, &req); !ok {
		return err
	}

	if err := ac.Catalog.SetStatus(c.UserContext(), id, *req.IsActive); err != nil {
		return respondError(c, ac.Logger, err)
	}
	message := "IQ test deactivated successfully"
	if *req.IsActive {
		message = "IQ test activated successfully"
	}
	return utils.SuccessMessage(c, fiber.StatusOK, message, fiber.Map{"id": id, "is_active": *req.IsActive})
}

func (ac *IQAdminController) DeleteTest(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}

	if err := ac.Catalog.DeleteTest(c.UserContext(), id); err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "IQ test deleted successfully", nil)
}

func (ac *IQAdminController) AddQuestions(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}
	var in services.AddQuestionsInput
	if ok, err := bindBody(c, &in); !ok {
		return err
	}

	questions, err := ac.Catalog.AddQuestions(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusCreated, "Questions added successfully", questions)
}

func (ac *IQAdminController) ListQuestions(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return utils.BadRequest(c, "page must be a non-negative integer")
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return utils.BadRequest(c, "limit must be a non-negative integer")
	}

	result, err := ac.Catalog.Questions(c.UserContext(), id, page, limit)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Paginate(c, result.Questions, utils.Pagination{
		Total:  result.Total,
		Page:   result.Page,
		Limit:  result.Limit,
		Offset: (result.Page - 1) * result.Limit,
		Pages:  pages(result.Total, result.Limit),
	})
}

func (ac *IQAdminController) UpdateQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "questionId")
	if !ok {
		return utils.BadRequest(c, "Invalid question ID")
	}
	var patch services.QuestionPatch
	if ok, err := bindBody(c, &patch); !ok {
		return err
	}

	question, err := ac.Catalog.UpdateQuestion(c.UserContext(), id, patch)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "Question updated successfully", question)
}

func (ac *IQAdminController) DeleteQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "questionId")
	if !ok {
		return utils.BadRequest(c, "Invalid question ID")
	}

	if _, err := ac.Catalog.DeleteQuestion(c.UserContext(), id); err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "Question deleted successfully", nil)
}

// TestStatistics godoc
// @Summary Result statistics of an IQ test
// @Tags iq-admin
// @Produce json
// @Param id path int true "Test ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /iq/admin/tests/{id}/statistics [get]
func (ac *IQAdminController) TestStatistics(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return utils.BadRequest(c, "Invalid test ID")
	}

	report, err := ac.Catalog.Statistics(c.UserContext(), id)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, report)
}

func (ac *IQAdminController) RecentResults(c *fiber.Ctx) error {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return utils.BadRequest(c, "limit must be a non-negative integer")
	}

	results, err := ac.Catalog.RecentResults(c.UserContext(), limit)
	if err != nil {
		return respondError(c, ac.Logger, err)
	}
	return utils.Success(c, fiber.StatusOK, results)
}
