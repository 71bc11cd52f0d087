package router

import (
	"context"
	"net/http"
	"time"

	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/application/certificates"
	complaintsvc "stablebricks-backend/internal/application/complaints"
	contactsvc "stablebricks-backend/internal/application/contacts"
	emailsvc "stablebricks-backend/internal/application/emails"
	eventsvc "stablebricks-backend/internal/application/events"
	healthsvc "stablebricks-backend/internal/application/health"
	investsvc "stablebricks-backend/internal/application/investments"
	landsvc "stablebricks-backend/internal/application/land"
	listsvc "stablebricks-backend/internal/application/listings"
	"stablebricks-backend/internal/application/payments"
	projectsvc "stablebricks-backend/internal/application/projects"
	reportsvc "stablebricks-backend/internal/application/reports"
	uploadsvc "stablebricks-backend/internal/application/uploads"
	usersvc "stablebricks-backend/internal/application/user"
	walletsvc "stablebricks-backend/internal/application/wallet"
	"stablebricks-backend/internal/config"
	"stablebricks-backend/internal/infrastructure/database"
	"stablebricks-backend/internal/infrastructure/storage"
	authhandler "stablebricks-backend/internal/interfaces/handlers/auth"
	complainthandler "stablebricks-backend/internal/interfaces/handlers/complaints"
	contacthandler "stablebricks-backend/internal/interfaces/handlers/contacts"
	eventhandler "stablebricks-backend/internal/interfaces/handlers/events"
	healthhandler "stablebricks-backend/internal/interfaces/handlers/health"
	investhandler "stablebricks-backend/internal/interfaces/handlers/investments"
	landhandler "stablebricks-backend/internal/interfaces/handlers/land"
	listhandler "stablebricks-backend/internal/interfaces/handlers/listings"
	payhandler "stablebricks-backend/internal/interfaces/handlers/payments"
	projecthandler "stablebricks-backend/internal/interfaces/handlers/projects"
	reporthandler "stablebricks-backend/internal/interfaces/handlers/reports"
	uploadhandler "stablebricks-backend/internal/interfaces/handlers/uploads"
	userhandler "stablebricks-backend/internal/interfaces/handlers/user"
	wallethandler "stablebricks-backend/internal/interfaces/handlers/wallet"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const stripeHealthURL = "https://api.stripe.com/healthcheck"

// Deps are the external resources the routes are built on. DB may be nil, in which
// case only the health routes are mounted.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Store   storage.Store
	Mailer  emailsvc.Sender
	Gateway payments.Gateway
	Intents payments.IntentCreator

	// HealthTargets are external URLs the health page pings.
	HealthTargets map[string]string
}

// App is the HTTP app together with the services background jobs share with it.
type App struct {
	Fiber        *fiber.App
	DB           *gorm.DB
	Rdb          *redis.Client
	Investments  *investsvc.Service
	Events       *eventsvc.Service
	Certificates *certificates.Issuer
}

// Close drains the certificate pool and closes Redis and the database.
func (a *App) Close() {
	if a.Certificates != nil {
		if err := a.Certificates.Close(30 * time.Second); err != nil {
			log.Warn().Err(err).Msg("certificate pool did not drain")
		}
	}
	if a.Rdb != nil {
		_ = a.Rdb.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// OpenDeps connects to the resources named in cfg.
func OpenDeps(ctx context.Context, cfg *config.Config) (Deps, error) {
	deps := Deps{HealthTargets: map[string]string{"frontend": cfg.AppBaseURL, "stripe": stripeHealthURL}}
	rdb, err := middleware.NewRedis(cfg.RedisURL)
	if err != nil {
		return deps, err
	}
	deps.Rdb = rdb

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return deps, err
		}
		deps.DB = db
	}

	if cfg.CertBucket != "" {
		s3, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.CertBucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return deps, err
		}
		deps.Store = s3
	} else {
		deps.Store = &storage.DiskStore{Dir: cfg.CertDir}
	}

	if cfg.SendinblueAPIKey != "" {
		deps.Mailer = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, BaseURL: cfg.AppBaseURL}
	}
	if cfg.FlutterwaveSecretKey != "" {
		deps.Gateway = &payments.FlutterwaveClient{SecretKey: cfg.FlutterwaveSecretKey, BaseURL: cfg.FlutterwaveBaseURL}
	}
	if cfg.StripeSecretKey != "" {
		deps.Intents = &payments.StripeClient{SecretKey: cfg.StripeSecretKey}
	}
	return deps, nil
}

// CreateApp connects to the configured resources and builds the app.
func CreateApp(cfg *config.Config) (*App, error) {
	deps, err := OpenDeps(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return Build(cfg, deps)
}

// Build mounts every route on a new Fiber app.
func Build(cfg *config.Config, deps Deps) (*App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})
	out := &App{Fiber: app, DB: deps.DB, Rdb: deps.Rdb}
	db, rdb := deps.DB, deps.Rdb

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
		AllowLocalhost: !cfg.IsProduction(),
	}))

	var wallets *walletsvc.Service
	if db != nil {
		wallets = &walletsvc.Service{DB: db, Gateway: deps.Gateway, WelcomeBonus: cfg.WelcomeBonus}
		stripeWebhook := &payhandler.WebhookHandler{Wallets: wallets, WebhookSecret: cfg.StripeWebhookSecret}
		app.Post("/api/v1/stripe/webhook", stripeWebhook.HandleWebhook)
	}

	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	collector := &healthsvc.Collector{
		Rdb:     rdb,
		Targets: deps.HealthTargets,
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			collector.DB = sqlDB
		}
	}
	hh := &healthhandler.Handlers{Collector: collector, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	if db == nil {
		log.Warn().Msg("DATABASE_URL not set; only health routes are mounted")
		return out, nil
	}

	issuer, err := certificates.NewIssuer(db, deps.Store, deps.Mailer, cfg.AppBaseURL, cfg.CertWorkers)
	if err != nil {
		return nil, err
	}
	out.Certificates = issuer

	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	users := &usersvc.Service{DB: db, Rdb: rdb, Wallets: wallets, Mailer: deps.Mailer, ReferralBonus: cfg.ReferralBonus}
	auth := &authsvc.Service{DB: db, Rdb: rdb, Secret: cfg.SessionSecret, Mailer: deps.Mailer, AppBaseURL: cfg.AppBaseURL}
	investments := &investsvc.Service{DB: db, Certificates: issuer}
	events := &eventsvc.Service{DB: db}
	out.Investments = investments
	out.Events = events

	requireAuth := middleware.RequireAuth()
	can := middleware.AuthorizePermission

	ah := &authhandler.Handlers{Auth: auth, Users: users, Rdb: rdb, Config: sessionCfg}
	ag := app.Group("/api/v1/auth")
	ag.Post("/register", ah.Register)
	ag.Post("/login", ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)
	ag.Post("/forgot-password", ah.ForgotPassword)
	ag.Post("/reset-password", ah.ResetPassword)

	uh := &userhandler.Handlers{Service: users}
	ug := app.Group("/api/v1/users", requireAuth)
	ug.Get("/", can(constants.ManageUsers), uh.List)
	ug.Get("/me", uh.Me)
	ug.Put("/me", uh.UpdateMe)
	ug.Get("/:id", can(constants.ManageUsers), uh.Get)
	ug.Patch("/:id/role", can(constants.ManageUsers), uh.ChangeRole)
	ug.Delete("/:id", can(constants.ManageUsers), uh.Delete)

	ph := &projecthandler.Handlers{Service: &projectsvc.Service{DB: db}}
	app.Get("/api/v1/projects", ph.List)
	app.Get("/api/v1/projects/:id", ph.Get)
	app.Post("/api/v1/projects", requireAuth, can(constants.CreateProject), ph.Create)
	app.Put("/api/v1/projects/:id", requireAuth, can(constants.EditProject), ph.Update)
	app.Patch("/api/v1/projects/:id/status", requireAuth, can(constants.EditProject), ph.ChangeStatus)
	app.Delete("/api/v1/projects/:id", requireAuth, can(constants.ManageProjects), ph.Delete)

	ih := &investhandler.Handlers{Service: investments}
	app.Get("/user-investment/:token", ih.Verify)
	ig := app.Group("/api/v1/investments", requireAuth)
	ig.Post("/", can(constants.Invest), ih.Create)
	ig.Get("/", can(constants.ManageInvestments), ih.ListAll)
	ig.Get("/mine", ih.ListMine)
	ig.Get("/token/:token", can(constants.ManageInvestments), ih.GetByToken)
	ig.Get("/:id", ih.Get)
	ig.Get("/:id/certificate", ih.Certificate)
	ig.Patch("/:id/status", can(constants.ManageInvestments), ih.ChangeStatus)

	wh := &wallethandler.Handlers{Service: wallets, Intents: deps.Intents}
	wg := app.Group("/api/v1/wallet", requireAuth, can(constants.UseWallet))
	wg.Get("/", wh.Get)
	wg.Post("/add-funds", wh.AddFunds)
	wg.Post("/withdraw", wh.Withdraw)
	wg.Get("/history", wh.History)
	wg.Post("/stripe-intent", wh.StripeIntent)

	ch := &contacthandler.Handlers{Service: &contactsvc.Service{DB: db, Mailer: deps.Mailer}}
	app.Post("/api/v1/contacts", ch.Create)
	app.Get("/api/v1/contacts", requireAuth, can(constants.ManageContacts), ch.List)
	app.Get("/api/v1/contacts/:id", requireAuth, can(constants.ManageContacts), ch.Get)
	app.Post("/api/v1/contacts/:id/respond", requireAuth, can(constants.ManageContacts), ch.Respond)
	app.Patch("/api/v1/contacts/:id/status", requireAuth, can(constants.ManageContacts), ch.ChangeStatus)
	app.Delete("/api/v1/contacts/:id", requireAuth, can(constants.ManageContacts), ch.Delete)

	cph := &complainthandler.Handlers{Service: &complaintsvc.Service{DB: db, Mailer: deps.Mailer}}
	cg := app.Group("/api/v1/complaints", requireAuth)
	cg.Post("/", can(constants.FileComplaint), cph.Create)
	cg.Get("/mine", cph.ListMine)
	cg.Get("/", can(constants.ManageComplaints), cph.ListAll)
	cg.Post("/:id/respond", can(constants.ManageComplaints), cph.Respond)
	cg.Patch("/:id/status", can(constants.ManageComplaints), cph.ChangeStatus)
	cg.Delete("/:id", can(constants.ManageComplaints), cph.Delete)

	rh := &reporthandler.Handlers{Service: &reportsvc.Service{DB: db}}
	rg := app.Group("/api/v1/reports", requireAuth)
	rg.Post("/", can(constants.FileReport), rh.Create)
	rg.Get("/", can(constants.ManageReports), rh.List)
	rg.Patch("/:id/status", can(constants.ManageReports), rh.ChangeStatus)
	rg.Delete("/:id", can(constants.ManageReports), rh.Delete)

	eh := &eventhandler.Handlers{Service: events}
	app.Get("/api/v1/events", eh.List)
	app.Get("/api/v1/events/:id", eh.Get)
	app.Post("/api/v1/events", requireAuth, can(constants.ManageEvents), eh.Create)
	app.Put("/api/v1/events/:id", requireAuth, can(constants.ManageEvents), eh.Update)
	app.Patch("/api/v1/events/:id/status", requireAuth, can(constants.ManageEvents), eh.ChangeStatus)
	app.Delete("/api/v1/events/:id", requireAuth, can(constants.ManageEvents), eh.Delete)
	app.Get("/api/v1/events/:id/registrations", requireAuth, can(constants.ManageEvents), eh.Registrations)
	app.Post("/api/v1/events/:id/register", requireAuth, can(constants.RegisterForEvent), eh.Register)
	app.Delete("/api/v1/events/:id/register", requireAuth, can(constants.RegisterForEvent), eh.CancelRegistration)

	lh := &listhandler.Handlers{Service: &listsvc.Service{DB: db}}
	app.Get("/api/v1/listings", lh.List)
	app.Get("/api/v1/listings/:id", lh.Get)
	app.Post("/api/v1/listings", requireAuth, can(constants.ManageListings), lh.Create)
	app.Put("/api/v1/listings/:id", requireAuth, can(constants.ManageListings), lh.Update)
	app.Patch("/api/v1/listings/:id/status", requireAuth, can(constants.ManageListings), lh.ChangeStatus)
	app.Delete("/api/v1/listings/:id", requireAuth, can(constants.ManageListings), lh.Delete)

	ldh := &landhandler.Handlers{Service: &landsvc.Service{DB: db}}
	lg := app.Group("/api/v1/land-submissions", requireAuth)
	lg.Post("/", can(constants.SubmitLand), ldh.Submit)
	lg.Get("/mine", ldh.ListMine)
	lg.Get("/", can(constants.ReviewLand), ldh.ListAll)
	lg.Patch("/:id/review", can(constants.ReviewLand), ldh.Review)

	uph := &uploadhandler.Handlers{Service: &uploadsvc.Service{Store: deps.Store}}
	app.Get("/api/v1/uploads/:folder/:name", uph.Serve)
	app.Post("/api/v1/uploads/:folder/sign", requireAuth, uph.Sign)
	app.Post("/api/v1/uploads/:folder", requireAuth, uph.Upload)

	return out, nil
}

// Handler adapts the app for net/http hosts.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
