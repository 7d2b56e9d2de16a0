package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API and page responses.
// Page responses name the view that renders them.
type APIResponse struct {
	Success bool              `json:"success"`
	View    string            `json:"view,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
	})
}

// SendView renders a page as its view name plus model attributes.
func SendView(c *fiber.Ctx, status int, view string, data interface{}) error {
	return SendViewWithErrors(c, status, view, "", data, nil)
}

// SendViewWithErrors renders a page carrying form errors keyed by field.
func SendViewWithErrors(c *fiber.Ctx, status int, view, message string, data interface{}, errs map[string]string) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	success := status < fiber.StatusBadRequest
	if message == "" {
		if success {
			message = "success"
		} else {
			message = "error"
		}
	}

	return c.Status(status).JSON(APIResponse{
		Success: success,
		View:    view,
		Data:    data,
		Message: message,
		Errors:  errs,
	})
}
