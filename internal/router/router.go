package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/stagedesk/stagedesk/internal/auth"
	"github.com/stagedesk/stagedesk/internal/handler"
	"github.com/stagedesk/stagedesk/internal/middleware"
)

// Handlers bundles everything the router needs to register routes.
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Categories    *handler.CategoryHandler
	Equipment     *handler.EquipmentHandler
	Clients       *handler.ClientHandler
	Partners      *handler.PartnerHandler
	Events        *handler.EventHandler
	Quotes        *handler.QuoteHandler
	Subrentals    *handler.SubrentalHandler
	Catalog       *handler.CatalogHandler
	Notifications *handler.NotificationHandler
	Activity      *handler.ActivityHandler
	Cloud         *handler.CloudHandler
	Translate     *handler.TranslateHandler
}

// Register wires every route. Reads sit behind RequireAuth, mutations
// behind the matching permission; the public catalog view and the
// health probe are the only unauthenticated routes.
func Register(e *echo.Echo, h Handlers, session echo.MiddlewareFunc, rateLimit echo.MiddlewareFunc) {
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(session)
	e.Use(rateLimit)

	e.GET("/healthz", handler.Healthz)

	api := e.Group("/api")

	// auth
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/me", h.Auth.Me, middleware.RequireAuth())

	authed := api.Group("", middleware.RequireAuth())

	// users (admin)
	users := api.Group("/users", middleware.RequirePermission(auth.PermManageUsers))
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.PUT("/:id/password", h.Users.SetPassword)

	// categories
	authed.GET("/categories", h.Categories.List)
	catW := api.Group("/categories", middleware.RequirePermission(auth.PermManageEquipment))
	catW.POST("", h.Categories.Create)
	catW.PUT("/:id", h.Categories.Update)
	catW.DELETE("/:id", h.Categories.Delete)

	// equipment
	authed.GET("/equipment", h.Equipment.List)
	authed.GET("/equipment/:id", h.Equipment.Get)
	eqW := api.Group("/equipment", middleware.RequirePermission(auth.PermManageEquipment))
	eqW.POST("", h.Equipment.Create)
	eqW.PUT("/:id", h.Equipment.Update)
	eqW.DELETE("/:id", h.Equipment.Delete)
	eqW.POST("/:id/restore", h.Equipment.Restore)

	// clients
	authed.GET("/clients", h.Clients.List)
	authed.GET("/clients/:id", h.Clients.Get)
	clW := api.Group("/clients", middleware.RequirePermission(auth.PermManageClients))
	clW.POST("", h.Clients.Create)
	clW.PUT("/:id", h.Clients.Update)
	clW.DELETE("/:id", h.Clients.Delete)

	// partners
	authed.GET("/partners", h.Partners.List)
	authed.GET("/partners/:id", h.Partners.Get)
	paW := api.Group("/partners", middleware.RequirePermission(auth.PermManagePartners))
	paW.POST("", h.Partners.Create)
	paW.PUT("/:id", h.Partners.Update)
	paW.DELETE("/:id", h.Partners.Delete)

	// events
	authed.GET("/events", h.Events.List)
	authed.GET("/events/:id", h.Events.Get)
	evW := api.Group("/events", middleware.RequirePermission(auth.PermManageEvents))
	evW.POST("", h.Events.Create)
	evW.PUT("/:id", h.Events.Update)
	evW.DELETE("/:id", h.Events.Delete)

	// quotes
	authed.GET("/quotes", h.Quotes.List)
	authed.GET("/quotes/:id", h.Quotes.Get)
	quW := api.Group("/quotes", middleware.RequirePermission(auth.PermManageQuotes))
	quW.POST("", h.Quotes.Create)
	quW.PUT("/:id", h.Quotes.Update)
	quW.DELETE("/:id", h.Quotes.Delete)

	// subrentals
	authed.GET("/subrentals", h.Subrentals.List)
	authed.GET("/subrentals/:id", h.Subrentals.Get)
	suW := api.Group("/subrentals", middleware.RequirePermission(auth.PermManageRentals))
	suW.POST("", h.Subrentals.Create)
	suW.PUT("/:id", h.Subrentals.Update)
	suW.POST("/:id/return", h.Subrentals.Return)
	suW.DELETE("/:id", h.Subrentals.Delete)

	// catalog shares: staff management plus the public token view
	authed.GET("/catalog-shares", h.Catalog.ListShares)
	shW := api.Group("/catalog-shares", middleware.RequirePermission(auth.PermManagePartners))
	shW.POST("", h.Catalog.CreateShare)
	shW.DELETE("/:id", h.Catalog.RevokeShare)
	api.GET("/catalog/:token", h.Catalog.Public)

	// notifications (owner-scoped, auth only)
	authed.GET("/notifications", h.Notifications.List)
	authed.PUT("/notifications/:id/read", h.Notifications.MarkRead)
	authed.PUT("/notifications/read-all", h.Notifications.MarkAllRead)
	authed.DELETE("/notifications/:id", h.Notifications.Delete)

	// activity log
	api.GET("/activity", h.Activity.List, middleware.RequirePermission(auth.PermViewReports))

	// cloud storage (owner-scoped, auth only)
	authed.GET("/cloud/quota", h.Cloud.Quota)
	authed.GET("/cloud/folders", h.Cloud.ListFolders)
	authed.POST("/cloud/folders", h.Cloud.CreateFolder)
	authed.DELETE("/cloud/folders/:id", h.Cloud.DeleteFolder)
	authed.GET("/cloud/files", h.Cloud.ListFiles)
	authed.POST("/cloud/files", h.Cloud.Upload)
	authed.GET("/cloud/files/:id/download", h.Cloud.Download)
	authed.PUT("/cloud/files/:id/rename", h.Cloud.Rename)
	authed.PUT("/cloud/files/:id/move", h.Cloud.Move)
	authed.PUT("/cloud/files/:id/star", h.Cloud.Star)
	authed.PUT("/cloud/files/:id/trash", h.Cloud.Trash)
	authed.PUT("/cloud/files/:id/restore", h.Cloud.Restore)
	authed.DELETE("/cloud/files/:id", h.Cloud.Delete)

	// translation cache
	authed.GET("/translate/seed", h.Translate.SeedProgress)
	authed.GET("/translate/preload", h.Translate.Preload)
	authed.GET("/translate/health", h.Translate.Health)
	authed.POST("/translate/batch", h.Translate.Batch)
	trW := api.Group("/translate", middleware.RequirePermission(auth.PermManageUsers))
	trW.POST("/seed", h.Translate.Seed)
	trW.PUT("/:id", h.Translate.Update)
	trW.DELETE("/:id", h.Translate.Delete)
	trW.DELETE("", h.Translate.DeleteByLang)
}
