package routes

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/carcino/internal/catalog"
	"github.com/example/carcino/internal/checkout"
	"github.com/example/carcino/internal/config"
	"github.com/example/carcino/internal/handlers"
	"github.com/example/carcino/internal/middleware"
	"github.com/example/carcino/internal/services"
	"github.com/example/carcino/internal/session"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Sessions   *session.Manager
	Identity   services.IdentityProvider
	Classifier *services.ClassifierClient
	Search     *services.SearchClient
	Geocoder   *services.GeocoderClient
	Notifier   *services.OrderNotifier

	CheckoutOptions []checkout.Option
}

// NewApp creates the fiber app with the shared middleware stack.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Carcino AI Backend",
		BodyLimit:    handlers.MaxImageSize + 1024*1024,
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + middleware.SessionHeader,
		ExposeHeaders: middleware.SessionHeader,
	}))

	return app
}

// ErrorHandler renders errors as {"success": false, "error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	cfg := deps.Config

	authHandler := handlers.NewAuthHandler(deps.Identity)
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	cartHandler := handlers.NewCartHandler(deps.Catalog)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Notifier, cfg.ProgressInterval, deps.CheckoutOptions...)
	orderHandler := handlers.NewOrderHandler()
	historyHandler := handlers.NewHistoryHandler()
	predictHandler := handlers.NewPredictHandler(deps.Classifier)
	lookupHandler := handlers.NewLookupHandler(deps.Search, deps.Geocoder)

	startedAt := time.Now()
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"store":  cfg.StoreDriver,
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		})
	})

	api := app.Group("/api")

	// Stateless routes
	api.Get("/search", lookupHandler.Search)
	api.Get("/geocode/reverse", lookupHandler.ReverseGeocode)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/products", catalogHandler.ListProducts)
	api.Get("/products/:id", catalogHandler.GetProduct)
	api.Get("/doctors", catalogHandler.ListDoctors)
	api.Get("/doctors/:id", catalogHandler.GetDoctor)
	api.Get("/doctors/:id/slots", catalogHandler.DoctorSlots)

	// Session scoped routes
	sessioned := api.Group("", middleware.SessionMiddleware(cfg, deps.Sessions))

	sessioned.Get("/auth/me", authHandler.Me)
	sessioned.Post("/predict", predictHandler.Predict)
	sessioned.Post("/doctors/:id/appointments", catalogHandler.BookAppointment)

	cartGroup := sessioned.Group("/cart")
	cartGroup.Get("/", cartHandler.GetCart)
	cartGroup.Delete("/", cartHandler.ClearCart)
	cartGroup.Post("/items", cartHandler.AddItem)
	cartGroup.Put("/items/:id", cartHandler.UpdateItem)
	cartGroup.Delete("/items/:id", cartHandler.RemoveItem)

	wishlist := sessioned.Group("/wishlist")
	wishlist.Get("/", cartHandler.GetWishlist)
	wishlist.Delete("/", cartHandler.ClearWishlist)
	wishlist.Post("/items", cartHandler.AddWishlistItem)
	wishlist.Delete("/items/:id", cartHandler.RemoveWishlistItem)
	wishlist.Post("/items/:id/move-to-cart", cartHandler.MoveWishlistItemToCart)

	checkoutGroup := sessioned.Group("/checkout")
	checkoutGroup.Get("/", checkoutHandler.GetCheckout)
	checkoutGroup.Post("/address", checkoutHandler.SubmitAddress)
	checkoutGroup.Get("/payment", checkoutHandler.EnterPayment)
	checkoutGroup.Post("/payment", checkoutHandler.SubmitPayment)
	checkoutGroup.Get("/progress", checkoutHandler.Progress)
	checkoutGroup.Post("/restart", checkoutHandler.Restart)

	sessioned.Get("/orders/current", orderHandler.CurrentOrder)

	historyGroup := sessioned.Group("/history")
	historyGroup.Get("/", historyHandler.ListHistory)
	historyGroup.Delete("/", historyHandler.ClearHistory)
	historyGroup.Get("/export", historyHandler.ExportHistory)
}
