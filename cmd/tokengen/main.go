package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"dwdcdc/internal/auth"
)

func main() {
	subject := flag.String("sub", "ops", "token subject recorded in the logs of triggered runs")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JOBS_API_SECRET")
	if secret == "" {
		log.Fatalf("JOBS_API_SECRET is not set")
	}

	token, err := auth.NewTokenService(secret).Generate(*subject, *ttl)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	fmt.Println(token)
}
