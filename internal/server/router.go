// Package server assembles the HTTP surface of the marketplace.
package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/handlers"
	"marketplace/internal/metrics"
	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/services"
)

type Deps struct {
	Config   config.Config
	Services *services.Services
	Resolver auth.IdentityResolver
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	Ping     handlers.Pinger
	// UploadRoot is the local media root served under /uploads. Empty when
	// media lives in object storage.
	UploadRoot string
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := services.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("register validators: %w", err)
		}
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.AccessLog(d.Log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.ErrorDetail(!d.Config.IsProduction()))
	r.Use(cors.New(corsConfig(d.Config.CORSOrigins)))

	r.NoRoute(middleware.NoRoute())
	r.NoMethod(middleware.NoMethod())

	if d.UploadRoot != "" {
		r.Static("/uploads", filepath.Join(d.UploadRoot, "uploads"))
	}

	svc := d.Services
	cfg := d.Config

	r.GET("/healthz", handlers.Health(d.Ping))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	r.POST("/auth/signup", handlers.Register(svc.Accounts))
	r.POST("/auth/register", handlers.Register(svc.Accounts))
	r.POST("/auth/login", handlers.Login(svc.Accounts))

	r.GET("/categories", handlers.GetCategories())
	r.GET("/sizes", handlers.GetSizes())
	r.GET("/products", handlers.GetProducts(svc.Products, cfg.MediaPublicBase))
	r.GET("/products/:id", handlers.GetProduct(svc.Products, cfg.MediaPublicBase))
	r.GET("/shops/:id", handlers.GetShop(svc.Shops))

	authed := r.Group("/")
	authed.Use(middleware.Authenticate(d.Resolver))
	{
		authed.GET("/auth/me", handlers.GetMe())
		authed.PATCH("/auth/me", handlers.UpdateMe(svc.Accounts))

		authed.GET("/addresses", handlers.GetUserAddresses(svc.Addresses))
		authed.POST("/addresses", handlers.CreateUserAddress(svc.Addresses))
		authed.PUT("/addresses/:id", handlers.UpdateUserAddress(svc.Addresses))
		authed.DELETE("/addresses/:id", handlers.DeleteUserAddress(svc.Addresses))

		authed.POST("/orders", handlers.CreateOrder(svc.Orders))
		authed.GET("/orders", handlers.GetMyOrders(svc.Orders))
		authed.GET("/orders/:id", handlers.GetOrder(svc.Orders))
		authed.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(svc.Orders))
	}

	owner := r.Group("/")
	owner.Use(middleware.Authenticate(d.Resolver), middleware.RequireRole(models.RoleShopOwner))
	{
		owner.POST("/shops", handlers.CreateShop(svc.Shops))
		owner.GET("/shops/mine", handlers.GetMyShop(svc.Shops))
		owner.POST("/products", handlers.CreateProduct(svc.Products, cfg.MaxImageBytes, cfg.MediaPublicBase))
	}

	admin := r.Group("/admin")
	admin.Use(middleware.Authenticate(d.Resolver), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/orders", handlers.AdminListOrders(svc.Orders))
	}

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	cfg.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
