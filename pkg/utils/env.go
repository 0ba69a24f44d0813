package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadConfig carga variables de entorno desde un archivo .env si existe.
// Las variables ya definidas en el entorno tienen prioridad.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logrus.Warnf("[CONFIG] Could not load %s: %v", envFile, err)
	}
}
