package auth

import (
	"log"

	"github.com/ClassTrack/CT-Backend/internal/config"
	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/notifications"
)

var (
	cfg         config.Config
	resetTokens *ResetTokenGenerator
	mailer      notifications.Mailer
)

func Init() {
	cfg = config.App
	if cfg.SecretKey == "" {
		log.Fatal("SECRET_KEY is empty")
	}

	resetTokens = &ResetTokenGenerator{
		Secret: []byte(cfg.SecretKey),
		TTL:    cfg.ResetTokenTTL,
	}
	mailer = notifications.FromConfig(cfg.SMTP)

	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to ensure schema app_auth: ", err)
	}

	if err := db.DB.AutoMigrate(&User{}, &AuthToken{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}
}
