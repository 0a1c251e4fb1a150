// Package app wires the signup flow to the Telegram runtime, the database and the
// notification channels.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/signupbot/core/bootstrap"
	corecmd "github.com/m3rciful/signupbot/core/cmd"
	"github.com/m3rciful/signupbot/core/health"
	"github.com/m3rciful/signupbot/core/logger"
	tg "github.com/m3rciful/signupbot/core/telegram"
	"github.com/m3rciful/signupbot/core/telegram/commands"
	"github.com/m3rciful/signupbot/core/telegram/router"
	"github.com/m3rciful/signupbot/core/telegram/state"
	"github.com/m3rciful/signupbot/internal/notify"
	"github.com/m3rciful/signupbot/internal/onboarding"
	"github.com/m3rciful/signupbot/internal/storage/postgres"
)

// App holds the initialized signup bot.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	users    *postgres.UserRepository
	ctrl     *onboarding.Controller
	signup   *signup
	registry *tg.Registry
	admin    *notify.TelegramAdmin
	kafka    *notify.KafkaPublisher
}

// Bootstrap satisfies the runner's bootstrap hook.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg)
}

// New initializes infrastructure and services for cfg, which must be normalized.
func New(ctx context.Context, cfg *Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		State:    cfg.State,
	})
	if err != nil {
		return nil, err
	}

	users := postgres.NewUserRepository(infra.DB, postgres.Options{
		HashSecret: cfg.Onboarding.HashSecret,
		Hash:       postgres.DefaultHashParams,
	})

	msgs := onboarding.DefaultMessages()
	if cfg.Onboarding.PaymentInstructions != "" {
		msgs.PaymentInstructions = cfg.Onboarding.PaymentInstructions
	}
	ctrl := onboarding.NewController(infra.State, users, onboarding.Options{
		Policy:   cfg.Onboarding.Policy(),
		Messages: &msgs,
	})

	a := &App{
		cfg:      cfg,
		infra:    infra,
		users:    users,
		ctrl:     ctrl,
		registry: tg.NewRegistry(),
	}

	var notifiers notify.Multi
	if cfg.Notify.Admin {
		a.admin = notify.NewTelegramAdmin(cfg.Telegram.AdminID)
		notifiers.Add("admin", a.admin)
	}
	if cfg.Notify.KafkaEnabled() {
		a.kafka = notify.NewKafkaPublisher(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		notifiers.Add("kafka", a.kafka)
	}
	a.signup = newSignup(ctrl, &notifiers, users)

	if err := a.registerHandlers(); err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info(ctx, logger.ComponentApp, "app.bootstrap",
		slog.String("status", "ok"),
		slog.String("state_backend", cfg.State.Backend),
		slog.Int("steps", len(ctrl.Steps())),
		slog.Int("notifiers", notifiers.Len()),
		slog.Bool("hash_secret", cfg.Onboarding.HashSecret),
	)
	return a, nil
}

func (a *App) registerHandlers() error {
	errs := []error{
		a.registry.RegisterCommand("/start", commands.Command{
			Handler:     a.signup.onStart,
			Description: "Start registration",
		}),
		a.registry.RegisterCommand("/cancel", commands.Command{
			Handler:     a.signup.onCancel,
			Description: "Cancel registration",
		}),
		a.registry.RegisterCommand("/status", commands.Command{
			Handler:     a.signup.onStatus,
			Description: "Show registration status",
		}),
		a.registry.RegisterCommand("/stats", commands.Command{
			Handler:     a.signup.onStats,
			Description: "Registered users count",
			AdminOnly:   true,
			Hidden:      true,
		}),
		a.registry.RegisterCallback(cancelUnique, a.signup.onCancel),
	}
	a.registry.SetTextFallback(a.signup.Dispatch)
	a.registry.SetCallbackNotFound(a.signup.onStaleButton)
	return errors.Join(errs...)
}

// TelegramRunOptions assembles middleware and routes for the Telegram runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := &a.cfg.Config

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes, router.MessageRoutes(a.signup, a.registry, router.MessageOptions{
		UnknownMedia: a.signup.Dispatch,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry))

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, a.signup.onRateLimited),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			if a.admin != nil && rt.Bot != nil {
				a.admin.Attach(rt.Bot)
			}
			return nil
		},
		OnStop: func(_ context.Context, _ tg.Runtime) error {
			if a.admin != nil {
				a.admin.Attach(nil)
			}
			return nil
		},
	}, nil
}

// Services returns the processes that run next to the bot: the health endpoint when it has
// a listen address, and a session sweeper for stores that do not expire keys themselves.
func (a *App) Services() []corecmd.Service {
	var services []corecmd.Service
	if addr := a.cfg.Health.Listen; addr != "" {
		handler := health.NewRouter(map[string]health.Checker{
			"postgres": a.users.Ping,
		})
		services = append(services, func(ctx context.Context) error {
			return health.Serve(ctx, addr, handler)
		})
	}
	if sw, ok := a.infra.State.(state.Sweeper); ok && a.cfg.State.TTL > 0 {
		every := state.SweepInterval(a.cfg.State.TTL)
		services = append(services, func(ctx context.Context) error {
			return state.RunSweeper(ctx, sw, every)
		})
	}
	return services
}

// Close releases the Kafka writer, the state store and the database pool.
func (a *App) Close() error {
	start := time.Now()
	var errs []error
	if a.kafka != nil {
		errs = append(errs, a.kafka.Close())
	}
	errs = append(errs, a.infra.Close())
	err := errors.Join(errs...)

	status := "ok"
	if err != nil {
		status = "fail"
	}
	logger.Info(context.Background(), logger.ComponentApp, "app.close",
		slog.String("status", status),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return err
}
