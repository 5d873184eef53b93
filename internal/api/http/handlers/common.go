package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mfrelance/workflow-service/internal/attachment"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.NewValidationError("invalid "+param, nil)
	}
	return id, nil
}

func parsePage(c *fiber.Ctx) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	offset, _ = strconv.Atoi(c.Query("offset"))
	return limit, offset
}

// messagePayload extracts the message body for a thread append. A multipart
// "file" part is bounded and base64-encoded into the same field prose goes
// through, so an attachment travels the wire like any other message.
func messagePayload(c *fiber.Ctx, maxBytes int64) (string, error) {
	if header, err := c.FormFile("file"); err == nil && header != nil {
		file, err := header.Open()
		if err != nil {
			return "", util.NewValidationError("unreadable file upload", nil)
		}
		defer file.Close()
		return attachment.EncodeUpload(file, maxBytes)
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return "", util.NewValidationError("invalid payload", nil)
	}
	return req.Message, nil
}
