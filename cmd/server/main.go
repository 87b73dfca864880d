package main

import (
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"auth_backend/internal/app/router"
	"auth_backend/internal/config"
	authadapters "auth_backend/internal/feature/auth/adapters"
	authhandler "auth_backend/internal/feature/auth/transport/handler"
	authusecase "auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/db"
	"auth_backend/internal/platform/hash"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/mailer"
	infraredis "auth_backend/internal/platform/redis"
	"auth_backend/internal/platform/token"
	"auth_backend/internal/shared/ratelimiter"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	// Redis backs the rate limiter only; the server runs without it.
	var rdb *redisv9.Client
	if addr := cfg.RedisAddr(); addr != "" {
		if tmp, err := infraredis.NewClient(addr, cfg.RedisPassword); err != nil {
			log.Println("[WARN] Redis unavailable. Running without rate limiting.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Println("[ERROR] Failed to close Redis client:", err)
				}
			}()
		}
	}

	// Repository
	userRepo := authadapters.NewUserGorm(conn)
	tokenRepo := authadapters.NewTokenGorm(conn)

	// Platform
	hasher := hash.NewBcrypt()
	issuer := jwtmw.NewIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)
	generator := token.NewGenerator()
	notifier, err := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPLogin, cfg.SMTPPassword)
	if err != nil {
		log.Fatal(err)
	}

	// Usecase
	authUC := authusecase.NewAuthUsecase(
		userRepo, tokenRepo, hasher, issuer, generator, notifier,
		cfg.MailFrom, cfg.WebAppURL,
	)

	// Handler
	authH := authhandler.NewAuthHandler(authUC)

	limiter := ratelimiter.New(rdb, cfg.LoginRateLimit, time.Minute)

	r := router.New(authH, issuer, limiter)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
