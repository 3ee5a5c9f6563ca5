package router

import (
	"log"
	"net/http"

	"github.com/dinnerhall/api/internal/config"
	"github.com/dinnerhall/api/internal/database"
	"github.com/dinnerhall/api/internal/enum"
	"github.com/dinnerhall/api/internal/handler"
	mw "github.com/dinnerhall/api/internal/middleware"
	"github.com/dinnerhall/api/internal/payment"
	"github.com/dinnerhall/api/internal/service"
	"github.com/dinnerhall/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, store scoping, and role-based middleware as needed.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // web dev server
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Public catalog: menus, styles, side dishes, cakes
	menuHandler := handler.NewMenuHandler(queries)
	menuHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/stores/{sid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Customer loyalty state
		customerHandler := handler.NewCustomerHandler(queries)
		customerHandler.RegisterRoutes(r)

		// Store-scoped routes
		r.Route("/stores/{sid}", func(r chi.Router) {
			r.Use(mw.RequireStore)

			// Orders
			newOrderStore := func(db database.DBTX) service.OrderStore {
				return database.New(db)
			}
			orderService := service.NewOrderService(pool, newOrderStore, payment.NewMockGateway(), hub)
			orderHandler := handler.NewOrderHandler(orderService, queries)
			r.Route("/orders", orderHandler.RegisterRoutes)

			// Stock (restock is manager-only)
			ingredientHandler := handler.NewIngredientHandler(queries)
			r.Route("/stock", func(r chi.Router) {
				r.Get("/", ingredientHandler.ListStock)
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.RoleManager))
					r.Post("/{code}/restock", ingredientHandler.Restock)
				})
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
