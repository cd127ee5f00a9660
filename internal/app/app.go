package app

import (
	"context"
	"net/http"

	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/config"
	"github.com/iamroi/otpbroker/internal/pkg/idempotency"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/mail"
	"github.com/iamroi/otpbroker/internal/pkg/messaging"
	"github.com/iamroi/otpbroker/internal/pkg/router"
	"github.com/iamroi/otpbroker/internal/pkg/storage"
	"github.com/iamroi/otpbroker/internal/pkg/uid"
	"github.com/iamroi/otpbroker/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	guard     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
