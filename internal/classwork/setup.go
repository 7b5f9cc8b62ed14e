package classwork

import (
	"log"

	"github.com/ClassTrack/CT-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "classwork"); err != nil {
		log.Fatal("Failed to ensure schema classwork: ", err)
	}

	if err := db.DB.AutoMigrate(&Assignment{}, &Task{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
