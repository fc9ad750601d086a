// Package app wires the product console together and runs it.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"time"

	"tokoadmin/internal/admin"
	"tokoadmin/internal/cache"
	"tokoadmin/internal/client"
	"tokoadmin/internal/config"
	"tokoadmin/internal/handlers"
	"tokoadmin/internal/middleware"
	"tokoadmin/internal/models"
	"tokoadmin/internal/notify"
	"tokoadmin/internal/repositories"
	"tokoadmin/internal/services"
	"tokoadmin/internal/table"
	"tokoadmin/internal/validation"
	"tokoadmin/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// catalogEvents publishes and consumes catalog change events.
type catalogEvents interface {
	services.EventPublisher
	ConsumeCatalogEvents(handler func(msg amqp.Delivery) error) (<-chan struct{}, error)
	Close() error
}

// App is the running console: the HTTP server, the product cache and,
// when configured, the embedded catalog and the catalog event link.
type App struct {
	cfg    config.Config
	ln     net.Listener
	server *fiber.App
	store  *cache.Store[[]models.Product]
	page   *admin.Page
	mq     catalogEvents
	db     *gorm.DB

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the console and binds its listener. Nothing is served until
// Run is called.
func New(cfg config.Config) (*App, error) {
	ln, err := net.Listen("tcp", cfg.AppPort)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.AppPort, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		ln:     ln,
		ctx:    ctx,
		cancel: cancel,
		server: fiber.New(fiber.Config{DisableStartupMessage: true}),
	}
	if err := a.build(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	v := validation.New()
	a.server.Use(logger.New())

	if a.cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: a.cfg.RabbitMQURL})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.mq = mq
	}

	baseURL := a.cfg.CatalogAPIURL
	if a.cfg.Embedded() {
		if err := a.mountCatalog(v); err != nil {
			return err
		}
		baseURL = "http://" + a.ln.Addr().String()
	}

	api := client.New(client.Config{BaseURL: baseURL, Timeout: a.cfg.CatalogTimeout})
	a.store = cache.New(func(ctx context.Context, _ string) ([]models.Product, error) {
		return api.List(ctx)
	}, cache.Config{Timeout: a.cfg.CatalogTimeout})

	prices, err := table.NewPriceFormatter(a.cfg.PriceCurrency)
	if err != nil {
		return err
	}
	toasts := notify.NewQueue(0)
	a.page = admin.New(admin.Config{
		Store:     a.store,
		API:       api,
		Table:     table.New(table.Columns(prices)),
		Toasts:    toasts,
		Validator: v,
		Context:   a.ctx,
	})

	adminHandler, err := handlers.NewAdminHandler(a.page, toasts)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	a.server.Get("/health", a.handleHealth)
	adminHandler.RegisterRoutes(a.server)
	return nil
}

// mountCatalog serves the catalog API from this process under /api/v1.
func (a *App) mountCatalog(v *validation.Validator) error {
	var productRepo repositories.ProductRepository
	if a.cfg.StubDriver == config.DriverMemory {
		productRepo = repositories.NewMockProductRepository()
	} else {
		db, err := openCatalogDB(a.cfg)
		if err != nil {
			return err
		}
		a.db = db
		if err := db.AutoMigrate(&models.ProductRecord{}); err != nil {
			return fmt.Errorf("failed to migrate catalog database: %w", err)
		}
		productRepo = repositories.NewGORMProductRepository(db)
	}

	if a.cfg.StubSeed {
		seedProducts(productRepo)
	}

	var events services.EventPublisher
	if a.mq != nil {
		events = a.mq
	}
	productService := services.NewProductService(productRepo, events)
	productHandler := handlers.NewProductHandler(productService, v)

	apiV1 := a.server.Group("/api/v1", middleware.RequireJSON())
	productHandler.RegisterRoutes(apiV1)
	log.Printf("Serving embedded catalog API (%s)", a.cfg.StubDriver)
	return nil
}

func openCatalogDB(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StubDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.StubDSN)
	default:
		dialector = sqlite.Open(cfg.StubDSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	return db, nil
}

// seedProducts populates an empty catalog with some initial data.
func seedProducts(repo repositories.ProductRepository) {
	existing, err := repo.GetAll()
	if err != nil {
		log.Printf("Error reading catalog before seeding: %v", err)
		return
	}
	if len(existing) > 0 {
		return
	}

	products := []models.ProductRecord{
		{Name: "Laptop", Description: "High performance laptop", Price: 1200.00, Stock: 10, IsActive: true},
		{Name: "Keyboard", Description: "Mechanical keyboard", Price: 75.00, Stock: 25, IsActive: true},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Price: 25.00, Stock: 50, IsActive: true},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
			continue
		}
		log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
	}
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	catalog := a.cfg.CatalogAPIURL
	if a.cfg.Embedded() {
		catalog = "embedded"
	}
	events := "disabled"
	if a.mq != nil {
		events = "connected"
	}
	entry := a.store.Read(admin.ProductListKey)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"catalog":  catalog,
		"events":   events,
		"products": len(entry.Data),
	})
}

// Addr is the address the console listens on.
func (a *App) Addr() string {
	return a.ln.Addr().String()
}

// Page returns the product page controller.
func (a *App) Page() *admin.Page {
	return a.page
}

// Store returns the product cache.
func (a *App) Store() *cache.Store[[]models.Product] {
	return a.store
}

// Run serves HTTP and consumes catalog events until ctx is cancelled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	var events <-chan struct{}
	if a.mq != nil {
		done, err := a.mq.ConsumeCatalogEvents(a.handleCatalogEvent)
		if err != nil {
			return fmt.Errorf("failed to start RabbitMQ consumer: %w", err)
		}
		events = done
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting server on %s", a.Addr())
		if err := a.server.Listener(a.ln); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		if err := a.server.Shutdown(); err != nil {
			return fmt.Errorf("error during Fiber shutdown: %w", err)
		}
		return nil
	})

	if events != nil {
		g.Go(func() error {
			select {
			case <-events:
				log.Println("Catalog event stream closed, changes by others need a manual refresh")
			case <-gctx.Done():
			}
			return nil
		})
	}

	return g.Wait()
}

// handleCatalogEvent revalidates the product list after a catalog change.
func (a *App) handleCatalogEvent(msg amqp.Delivery) error {
	var event services.ProductEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("invalid catalog event: %w", err)
	}
	log.Printf("Catalog event %s for product %s", event.Operation, event.ID)
	a.page.Revalidate()
	return nil
}

// Close releases every resource of the console. Pending dialog requests
// are abandoned.
func (a *App) Close() error {
	a.cancel()
	if a.page != nil {
		a.page.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.ln != nil {
		_ = a.ln.Close()
	}
	var errs []error
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors while closing app: %v", errs)
	}
	return nil
}
