package app

import (
	"errors"
	"strconv"
	"strings"

	"gpiocount/pkg/ledbank"
	"gpiocount/pkg/raspberry"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	err := app.web.Listen(app.urlParsed.Host)
	debug.ErrorLog.Print(err)
}

// parseUint reads a non-negative integer out of a request body, sysfs
// style: plain text, surrounding whitespace tolerated. The accepted range
// is the platform word, so a value never truncates on 32-bit builds.
func parseUint(body []byte) (uint, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, strconv.IntSize)
	return uint(v), err
}

// statusOf maps a counter/binding error to a http status: descriptor
// parse errors are the caller's fault, binding over an existing binding
// is forbidden, everything else is a device failure.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ledbank.ErrBadDescriptor):
		return fiber.StatusBadRequest
	case errors.Is(err, ledbank.ErrAlreadyBound):
		return fiber.StatusForbidden
	case errors.Is(err, raspberry.ErrInvalidLine), errors.Is(err, raspberry.ErrLineInUse):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleState returns the full counter state as JSON.
func (app *App) HandleState() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request state")

		return ctx.JSON(app.State())
	}
}

// HandleGetValue serves the displayed value as plain text.
func (app *App) HandleGetValue() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.SendString(strconv.FormatUint(uint64(app.Value()), 10) + "\n")
	}
}

// HandleSetValue overrides the displayed value. No capacity clamp, the
// projector shows the low digit bits.
func (app *App) HandleSetValue() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		v, err := parseUint(ctx.Body())
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).SendString(err.Error() + "\n")
		}

		app.SetValue(v)
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

// HandleGetMaxValue serves the historical maximum as plain text.
func (app *App) HandleGetMaxValue() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.SendString(strconv.FormatUint(uint64(app.MaxValue()), 10) + "\n")
	}
}

// HandleSetMaxValue overrides the historical maximum.
func (app *App) HandleSetMaxValue() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		v, err := parseUint(ctx.Body())
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).SendString(err.Error() + "\n")
		}

		app.SetMaxValue(v)
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

// HandleGetLeds serves the bound LED lines, comma-separated, LSB first.
func (app *App) HandleGetLeds() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.SendString(app.LedsDescriptor() + "\n")
	}
}

// HandleSetLeds rebinds the LED set from a descriptor in the body.
func (app *App) HandleSetLeds() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := app.RebindLeds(string(ctx.Body())); err != nil {
			return ctx.Status(statusOf(err)).SendString(err.Error() + "\n")
		}
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

// HandleGetButton serves the bound button line, 0 when unbound.
func (app *App) HandleGetButton() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.SendString(strconv.Itoa(app.ButtonGpio()) + "\n")
	}
}

// HandleSetButton rebinds the increment button; 0 unbinds.
func (app *App) HandleSetButton() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		v, err := parseUint(ctx.Body())
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).SendString(err.Error() + "\n")
		}

		if err := app.RebindButton(int(v)); err != nil {
			return ctx.Status(statusOf(err)).SendString(err.Error() + "\n")
		}
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}

// HandleIncrement triggers one counter advance; the body is ignored.
func (app *App) HandleIncrement() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request increment")

		app.Increment()
		return ctx.SendStatus(fiber.StatusNoContent)
	}
}
