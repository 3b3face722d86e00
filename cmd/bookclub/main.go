package main

import (
	"fmt"
	"os"

	"github.com/bookclub/api/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	logger.Init()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("dotenv_not_loaded", map[string]interface{}{"reason": err.Error()})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
