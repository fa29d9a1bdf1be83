package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/abhisek/smartmath/cmd"
)

func main() {
	// A missing .env is normal; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
