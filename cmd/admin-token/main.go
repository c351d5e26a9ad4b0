// Command admin-token prints a bcrypt hash for ADMIN_PASSWORD_HASH or mints an admin JWT offline.
//
//	admin-token -hash 'secret password'
//	admin-token -email owner@aromatales.pk
package main

import (
	"flag"
	"fmt"
	"os"

	"aroma-tales/internal/config"
	"aroma-tales/internal/logger"
	"aroma-tales/internal/service"

	"go.uber.org/zap"
)

func main() {
	hash := flag.String("hash", "", "print the bcrypt hash of this password and exit")
	email := flag.String("email", "", "admin email to mint a token for (defaults to ADMIN_EMAIL)")
	flag.Parse()

	log := logger.NewWithDefaults()
	defer log.Sync()

	if *hash != "" {
		hashed, err := service.HashPassword(*hash)
		if err != nil {
			log.Fatal("Failed to hash password", zap.Error(err))
		}
		fmt.Println(hashed)
		return
	}

	cfg := config.Load()
	if cfg.JWT.Secret == "" {
		log.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	subject := *email
	if subject == "" {
		subject = cfg.Admin.Email
	}

	token, err := service.NewAdminService(cfg.Admin, cfg.JWT).IssueToken(subject)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}

	log.Info("Admin token issued", zap.String("email", subject), zap.Time("expires_at", token.ExpiresAt))
	fmt.Println(token.AccessToken)
}
