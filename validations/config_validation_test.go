package validations

import (
	"testing"

	pkgError "github.com/AzielCF/az-mediaext/pkg/error"
	"github.com/stretchr/testify/assert"
)

func validSettings() BotSettings {
	return BotSettings{
		Token:                "123456:ABC-DEF",
		MediaGroupDebounceMs: 1000,
		MediaGroupTimeoutMs:  5000,
		CaptionFreshnessMs:   1000,
		WorkerPoolSize:       6,
	}
}

func TestValidateBotSettings_OK(t *testing.T) {
	assert.NoError(t, ValidateBotSettings(validSettings()))
}

func TestValidateBotSettings_SinToken(t *testing.T) {
	s := validSettings()
	s.Token = ""

	err := ValidateBotSettings(s)
	assert.Error(t, err)
	assert.IsType(t, pkgError.ValidationError(""), err)
}

func TestValidateBotSettings_DebounceMuyChico(t *testing.T) {
	s := validSettings()
	s.MediaGroupDebounceMs = 10

	assert.Error(t, ValidateBotSettings(s))
}

func TestValidateBotSettings_TimeoutMenorQueDebounce(t *testing.T) {
	s := validSettings()
	s.MediaGroupTimeoutMs = 500

	assert.Error(t, ValidateBotSettings(s), "la ventana de agrupación no puede ser menor que el debounce")
}
