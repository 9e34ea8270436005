package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/richardndungu94/secretsmith/cmd/secretsmith/commands"
)

func main() {
	// Optional .env for AWS profile/region overrides during local use.
	_ = godotenv.Load()

	rootCmd := commands.NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
