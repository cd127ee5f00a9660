package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/iamroi/otpbroker/internal/otp/inbound"
	"github.com/iamroi/otpbroker/internal/otp/outbound/channel"
	"github.com/iamroi/otpbroker/internal/otp/outbound/db"
	"github.com/iamroi/otpbroker/internal/otp/outbound/store"
	"github.com/iamroi/otpbroker/internal/otp/usecase"
	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/config"
	"github.com/iamroi/otpbroker/internal/pkg/idempotency"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/mail"
	"github.com/iamroi/otpbroker/internal/pkg/messaging"
	"github.com/iamroi/otpbroker/internal/pkg/otpcode"
	"github.com/iamroi/otpbroker/internal/pkg/router"
	"github.com/iamroi/otpbroker/internal/pkg/storage"
	"github.com/iamroi/otpbroker/internal/pkg/uid"
	"github.com/iamroi/otpbroker/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Guard      idempotency.Idempotency    `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Storage    storage.Storage            // optional, only for bucket-hosted templates
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	providers, err := buildProviders(dep)
	if err != nil {
		return err
	}

	defaultProvider := dep.Config.GetString("otp.default_provider")
	if _, ok := providers[defaultProvider]; !ok {
		return fmt.Errorf("otp: default provider %q is not configured", defaultProvider)
	}

	builder, err := buildMessageBuilder(dep)
	if err != nil {
		return err
	}

	dispatcher, err := channel.NewDispatcher(
		dep.Config.GetArray("otp.channels.default"),
		builder,
		dep.Instrument,
		channel.NewMail(dep.Mail, dep.Instrument),
		channel.NewSMS(dep.Messaging, dep.Config.GetString("otp.channels.sms.topic"), dep.Instrument),
	)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Providers:       providers,
		DefaultProvider: defaultProvider,
		Generator: otpcode.New(
			dep.Config.GetInt("otp.token.length"),
			dep.Config.GetString("otp.token.alphabet"),
		),
		Dispatcher: dispatcher,
		Guard:      dep.Guard,
		Cooldown:   dep.Config.GetSecond("otp.send.cooldown_seconds"),
		TokenTTL:   dep.Config.GetMinute("otp.token.ttl_minutes"),
		Validator:  dep.Validator,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

// buildProviders constructs one account repository and token store per
// configured provider. Providers map names to account tables; per-provider
// token store drivers may override the global one.
func buildProviders(dep Dependency) (map[string]usecase.Provider, error) {
	tables := dep.Config.GetMap("otp.providers")
	if len(tables) == 0 {
		return nil, errors.New("otp: no providers configured")
	}

	driver := dep.Config.GetString("otp.store.driver")
	overrides := dep.Config.GetMap("otp.providers_store")

	tokenTable := dep.Config.GetString("otp.store.table")
	if err := db.ValidateTableName(tokenTable); err != nil {
		return nil, fmt.Errorf("otp: token table %q: %w", tokenTable, err)
	}

	providers := make(map[string]usecase.Provider, len(tables))
	for name, table := range tables {
		if err := db.ValidateTableName(table); err != nil {
			return nil, fmt.Errorf("otp: provider %q account table %q: %w", name, table, err)
		}

		drv := driver
		if o := overrides[name]; o != "" {
			drv = o
		}

		tokens, err := store.NewFromDriver(drv, name, store.FactoryOptions{
			Cache:      dep.CacheConn,
			DBConn:     dep.DBConn,
			Table:      tokenTable,
			Clock:      dep.Clock,
			Instrument: dep.Instrument,
		})
		if err != nil {
			return nil, fmt.Errorf("otp: provider %q: %w", name, err)
		}

		providers[name] = usecase.Provider{
			Name:     name,
			Accounts: db.NewAccountStore(dep.DBConn, table, dep.UID, dep.Clock, dep.Instrument),
			Tokens:   tokens,
		}
	}

	return providers, nil
}

// buildMessageBuilder prefers a bucket-hosted template when one is configured
// and otherwise renders from the config file values.
func buildMessageBuilder(dep Dependency) (channel.Builder, error) {
	subject := dep.Config.GetString("otp.message.subject")
	object := dep.Config.GetString("otp.message.template_object")
	if object == "" {
		return channel.DefaultBuilder(subject, dep.Config.GetString("otp.message.template")), nil
	}

	if dep.Storage == nil {
		return nil, errors.New("otp: message template object configured without storage")
	}

	template, err := channel.LoadTemplate(
		context.Background(),
		dep.Storage,
		dep.Config.GetString("otp.message.template_bucket"),
		object,
	)
	if err != nil {
		return nil, fmt.Errorf("otp: load message template: %w", err)
	}

	return channel.DefaultBuilder(subject, template), nil
}
