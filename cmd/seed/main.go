package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/classwork"
	"github.com/ClassTrack/CT-Backend/internal/config"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/seeds"
)

func main() {
	_ = godotenv.Load(".env.local")
	config.Load()
	db.Connect()

	auth.Init()
	classwork.Init()

	if err := seeds.SeedAll(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
