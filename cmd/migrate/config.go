package main

import (
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles reads .env then .env.local from the working directory.
// godotenv.Load never overrides variables the runtime already set, so
// real environment (Docker, CI) always wins over the files.
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// migrationsDir resolves where the goose SQL files live. The default
// matches the db/migrations tree in this repo; MIGRATIONS_DIR overrides
// it when the binary runs from somewhere else.
func migrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "db/migrations"
}
