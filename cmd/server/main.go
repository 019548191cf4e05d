package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stagedesk/stagedesk/internal/cache"
	"github.com/stagedesk/stagedesk/internal/config"
	"github.com/stagedesk/stagedesk/internal/database"
	"github.com/stagedesk/stagedesk/internal/handler"
	"github.com/stagedesk/stagedesk/internal/middleware"
	"github.com/stagedesk/stagedesk/internal/queue"
	"github.com/stagedesk/stagedesk/internal/repository"
	"github.com/stagedesk/stagedesk/internal/router"
	"github.com/stagedesk/stagedesk/internal/translate"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	mem := cache.New(cacheCfg.Enabled, cacheCfg.SweepInterval)
	mem.Start()
	defer mem.Stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// repositories
	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db, mem, cacheCfg.CategoryTTL)
	equipment := repository.NewEquipmentRepo(db, mem, cacheCfg.EquipmentTTL)
	clients := repository.NewClientRepo(db)
	partners := repository.NewPartnerRepo(db)
	events := repository.NewEventRepo(db)
	quotes := repository.NewQuoteRepo(db)
	subrentals := repository.NewSubrentalRepo(db)
	shares := repository.NewCatalogShareRepo(db, mem, cacheCfg.ShareTTL)
	notifications := repository.NewNotificationRepo(db)
	activities := repository.NewActivityRepo(db)
	cloud := repository.NewCloudRepo(db, int64(cfg.DefaultQuotaMB)*1024*1024)
	translations := repository.NewTranslationRepo(db)

	// translation service; nil provider means pass-through mode
	var provider translate.Provider
	if cfg.DeepLKey != "" {
		provider = translate.NewDeepLClient(cfg.DeepLURL, cfg.DeepLKey, cfg.DeepLTimeout)
	}
	svc := translate.New(provider, translations, mem, logger.With("component", "translate"), translate.Options{
		MemoryTTL:        cacheCfg.TranslateTTL,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
	})

	go queue.StartTranslationWorker(svc, logger.With("component", "translate-worker"))

	audit := handler.NewAuditor(activities)
	h := router.Handlers{
		Auth:          &handler.AuthHandler{Users: users, JWTSecret: cfg.JWTSecret, SessionTTL: cfg.SessionTTLHour},
		Users:         &handler.UserHandler{Users: users, Notifications: notifications, Audit: audit, BcryptCost: cfg.BcryptCost},
		Categories:    &handler.CategoryHandler{Categories: categories, Audit: audit},
		Equipment:     &handler.EquipmentHandler{Equipment: equipment, Audit: audit},
		Clients:       &handler.ClientHandler{Clients: clients, Audit: audit},
		Partners:      &handler.PartnerHandler{Partners: partners, Audit: audit},
		Events:        &handler.EventHandler{Events: events, Audit: audit},
		Quotes:        &handler.QuoteHandler{Quotes: quotes, Audit: audit},
		Subrentals:    &handler.SubrentalHandler{Subrentals: subrentals, Audit: audit},
		Catalog:       &handler.CatalogHandler{Shares: shares, Equipment: equipment, Audit: audit},
		Notifications: &handler.NotificationHandler{Notifications: notifications},
		Activity:      &handler.ActivityHandler{Activities: activities},
		Cloud:         &handler.CloudHandler{Cloud: cloud, StorageRoot: cfg.StorageRoot, Audit: audit},
		Translate: &handler.TranslateHandler{
			Service:      svc,
			Translations: translations,
			SeedMax:      cfg.SeedMaxDuration,
			Audit:        audit,
		},
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h,
		middleware.Session(cfg.JWTSecret),
		middleware.NewTokenBucket(rateCfg, config.NewRedisClient()),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
