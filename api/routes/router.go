package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricepilot/pricepilot-backend/api/controllers"
	"github.com/pricepilot/pricepilot-backend/api/middleware"
	authsvc "github.com/pricepilot/pricepilot-backend/internal/auth"
	listsvc "github.com/pricepilot/pricepilot-backend/internal/lists"
	pricesvc "github.com/pricepilot/pricepilot-backend/internal/prices"
	productsvc "github.com/pricepilot/pricepilot-backend/internal/products"
	storesvc "github.com/pricepilot/pricepilot-backend/internal/stores"
	usersvc "github.com/pricepilot/pricepilot-backend/internal/users"
	"github.com/pricepilot/pricepilot-backend/pkg/auth/session"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	"github.com/pricepilot/pricepilot-backend/pkg/logger"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth     authsvc.Service
	Products productsvc.Service
	Prices   pricesvc.Service
	Stores   storesvc.Service
	Lists    listsvc.Service
	Users    usersvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	backend controllers.Pinger,
	cache controllers.Pinger,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, backend, cache))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/oauth", controllers.AuthOAuth(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.Get("/barcode/{barcode}", controllers.ProductBarcodeLookup(svcs.Products, logg))
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", controllers.ProductGet(svcs.Products, logg))
				r.Patch("/", controllers.ProductUpdate(svcs.Products, logg))
				r.Delete("/", controllers.ProductDelete(svcs.Products, logg))
				r.Post("/like", controllers.ProductToggleLike(svcs.Products, logg))
				r.Post("/dislike", controllers.ProductToggleDislike(svcs.Products, logg))
				r.Get("/prices", controllers.ProductPriceComparison(svcs.Prices, logg))
			})
		})

		r.Route("/price-entries", func(r chi.Router) {
			r.Get("/", controllers.PriceEntryList(svcs.Prices, logg))
			r.Post("/", controllers.PriceEntryCreate(svcs.Prices, logg))
			r.Route("/{priceEntryId}", func(r chi.Router) {
				r.Get("/", controllers.PriceEntryGet(svcs.Prices, logg))
				r.Patch("/", controllers.PriceEntryUpdate(svcs.Prices, logg))
				r.Delete("/", controllers.PriceEntryDelete(svcs.Prices, logg))
				r.Post("/like", controllers.PriceEntryToggleLike(svcs.Prices, logg))
				r.Post("/dislike", controllers.PriceEntryToggleDislike(svcs.Prices, logg))
			})
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(svcs.Stores, logg))
			r.Post("/", controllers.StoreCreate(svcs.Stores, logg))
			r.Route("/{storeId}", func(r chi.Router) {
				r.Get("/", controllers.StoreGet(svcs.Stores, logg))
				r.Patch("/", controllers.StoreUpdate(svcs.Stores, logg))
				r.Delete("/", controllers.StoreDelete(svcs.Stores, logg))
				r.Post("/like", controllers.StoreToggleLike(svcs.Stores, logg))
				r.Post("/dislike", controllers.StoreToggleDislike(svcs.Stores, logg))
			})
		})

		r.Route("/lists", func(r chi.Router) {
			r.Get("/", controllers.ShoppingListList(svcs.Lists, logg))
			r.Post("/", controllers.ShoppingListCreate(svcs.Lists, logg))
			r.Post("/fast", controllers.ShoppingListFast(svcs.Lists, logg))
			r.Route("/{listId}", func(r chi.Router) {
				r.Get("/", controllers.ShoppingListGet(svcs.Lists, logg))
				r.Patch("/", controllers.ShoppingListUpdate(svcs.Lists, logg))
				r.Delete("/", controllers.ShoppingListDelete(svcs.Lists, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Get("/me", controllers.UserMe(svcs.Users, logg))
			r.Patch("/me", controllers.UserUpdateMe(svcs.Users, logg))
			r.Put("/me/username", controllers.UserSetUsername(svcs.Users, logg))
		})
	})

	return r
}
