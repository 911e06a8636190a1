package main

import (
	"log"

	"github.com/joho/godotenv"

	"squad/internal/cli"
	"squad/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using process environment.")
	}

	if err := logger.Init("squad.log"); err != nil {
		log.Fatalf("Fatal Error: Could not initialize audit log: %v", err)
	}

	cli.Execute()
}
