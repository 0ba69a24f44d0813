package validations

import (
	pkgError "github.com/AzielCF/az-mediaext/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// BotSettings son los ajustes mínimos que el bot necesita para arrancar.
type BotSettings struct {
	Token                string
	MediaGroupDebounceMs int
	MediaGroupTimeoutMs  int
	CaptionFreshnessMs   int
	WorkerPoolSize       int
}

// ValidateBotSettings verifica la configuración antes de arrancar el bot.
func ValidateBotSettings(settings BotSettings) error {
	err := validation.ValidateStruct(&settings,
		validation.Field(&settings.Token, validation.Required),
		validation.Field(&settings.MediaGroupDebounceMs, validation.Min(100)),
		validation.Field(&settings.MediaGroupTimeoutMs, validation.Min(settings.MediaGroupDebounceMs)),
		validation.Field(&settings.CaptionFreshnessMs, validation.Min(0)),
		validation.Field(&settings.WorkerPoolSize, validation.Min(1)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
