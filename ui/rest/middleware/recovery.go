package middleware

import (
	"fmt"

	pkgError "github.com/AzielCF/az-mediaext/pkg/error"
	"github.com/AzielCF/az-mediaext/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery captura panics de los handlers y los traduce al envelope
// estándar de respuesta.
func Recovery() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		defer func() {
			err := recover()
			if err != nil {
				var res utils.ResponseData
				res.Status = 500
				res.Code = "INTERNAL_SERVER_ERROR"
				res.Message = fmt.Sprintf("%v", err)

				logrus.Errorf("Panic recovered in middleware: %v", err)

				genericError, isGenericError := err.(pkgError.GenericError)
				if isGenericError {
					res.Status = genericError.StatusCode()
					res.Code = genericError.ErrCode()
					res.Message = genericError.Error()
				}

				_ = ctx.Status(res.Status).JSON(res)
			}
		}()

		return ctx.Next()
	}
}
