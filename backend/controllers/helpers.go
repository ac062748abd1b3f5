package controllers

import (
	"log"
	"strconv"

	"eduhub/backend/services"
	"eduhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a service error onto an HTTP status. Internal causes are
// logged and replaced by a generic message.
func respondError(c *fiber.Ctx, logger *log.Logger, err error) error {
	switch services.KindOf(err) {
	case services.KindValidation:
		return utils.BadRequest(c, services.Message(err))
	case services.KindNotFound:
		return utils.NotFound(c, services.Message(err))
	case services.KindConflict:
		return utils.Conflict(c, services.Message(err))
	default:
		logger.Printf("%s %s %s: %v", c.GetRespHeader(fiber.HeaderXRequestID), c.Method(), c.Path(), err)
		return utils.InternalServerError(c, "Internal server error")
	}
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *fiber.Ctx, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// bindBody decodes and validates a JSON body. An empty body leaves dst
// untouched. When ok is false the error response has already been written
// and err is the result of writing it.
func bindBody(c *fiber.Ctx, dst interface{}) (ok bool, err error) {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return false, utils.BadRequest(c, "Invalid request body")
		}
	}
	if fields := utils.ValidateStruct(dst); len(fields) > 0 {
		return false, utils.ValidationError(c, fields)
	}
	return true, nil
}
