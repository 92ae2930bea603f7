package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// loadEnvFiles loads .env and .env.local from the working directory into the
// process environment. Variables already set in the environment are never
// overwritten, so the real environment wins over file contents.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Debug("Skipping unreadable env file", logfields.Path(name), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment from file", logfields.Path(name))
	}
}
