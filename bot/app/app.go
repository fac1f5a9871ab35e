// Package app wires configuration, storage, services and the Telegram
// transport into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
	bolt "go.etcd.io/bbolt"

	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/config"
	"github.com/m3rciful/arrbot/bot/render"
	"github.com/m3rciful/arrbot/bot/service"
	"github.com/m3rciful/arrbot/bot/users"
	"github.com/m3rciful/arrbot/core/bootstrap"
	"github.com/m3rciful/arrbot/core/logger"
	"github.com/m3rciful/arrbot/core/session"
	"github.com/m3rciful/arrbot/core/telegram"
	"github.com/m3rciful/arrbot/core/telegram/callbacks"
	"github.com/m3rciful/arrbot/core/telegram/commands"
	"github.com/m3rciful/arrbot/core/telegram/helpers"
	"github.com/m3rciful/arrbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Built-in commands that do not belong to a service.
const (
	AuthCommand = "auth"
	HelpCommand = "help"

	authUsage   = "Usage: /auth <password>"
	failureText = "Something went wrong, please try again."
	limitedText = "Too many requests, slow down."
)

// App is the assembled bot.
type App struct {
	cfg   *config.Config
	infra *bootstrap.Result

	boltDB   *bolt.DB
	sessions session.Store
	users    auth.Store

	gate       *auth.Gate
	dispatcher *service.Dispatcher
	renderer   render.Renderer
	registry   *telegram.Registry
}

// Deps overrides pieces of the assembly. Zero values build everything from cfg.
type Deps struct {
	Infra     *bootstrap.Result
	Sessions  session.Store
	Users     auth.Store
	Factories service.Registry
}

// Bootstrap initializes logging and, for postgres storage, the database,
// then assembles the app.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, error) {
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:      cfg.CoreConfig(),
		Database:    cfg.Database,
		UseDatabase: cfg.UsesPostgres(),
	})
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg, Deps{Infra: infra})
}

// UserStore is the user store opened without the bot, for the CLI.
type UserStore struct {
	auth.Store
	app *App
}

// Close releases the store and its database.
func (u *UserStore) Close() error { return u.app.Close() }

// OpenUsers opens only the configured user store.
func OpenUsers(cfg *config.Config) (*UserStore, error) {
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:      cfg.CoreConfig(),
		Database:    cfg.Database,
		UseDatabase: cfg.Storage.Users == config.BackendPostgres,
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, infra: infra}
	if err := a.openUsers(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return &UserStore{Store: a.users, app: a}, nil
}

// New opens the stores, builds every configured service and registers
// the Telegram handlers.
func New(ctx context.Context, cfg *config.Config, deps Deps) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	a := &App{cfg: cfg, infra: deps.Infra, sessions: deps.Sessions, users: deps.Users}
	if a.infra == nil {
		a.infra = &bootstrap.Result{}
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}
	a.gate = auth.NewGate(a.users, cfg.Auth.Passwords())

	factories := deps.Factories
	if factories == nil {
		factories = Factories(cfg, a.sessions)
	}
	services, err := service.Build(ctx, factories, cfg.Descriptors())
	if err != nil {
		return nil, fmt.Errorf("app: build services: %w", err)
	}
	panel, err := users.New(a.users)
	if err != nil {
		return nil, fmt.Errorf("app: users panel: %w", err)
	}
	services = append(services, panel.Service())

	a.dispatcher, err = service.NewDispatcher(a.gate, services)
	if err != nil {
		return nil, fmt.Errorf("app: dispatcher: %w", err)
	}
	if err := a.seed(ctx); err != nil {
		return nil, err
	}

	a.registry = telegram.NewRegistry()
	if err := a.register(); err != nil {
		return nil, err
	}
	logger.Info(ctx, "app", "app.built",
		slog.Int("services", len(services)),
		slog.String("sessions", cfg.Storage.Sessions),
		slog.String("users", cfg.Storage.Users),
	)
	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	if err := a.openUsers(); err != nil {
		return err
	}
	if a.sessions != nil {
		return nil
	}
	st := a.cfg.Storage
	switch st.Sessions {
	case config.BackendBolt:
		db, err := a.bolt()
		if err != nil {
			return err
		}
		s, err := session.NewBoltStore(db)
		if err != nil {
			return fmt.Errorf("app: sessions: %w", err)
		}
		a.sessions = s
	case config.BackendPostgres:
		db, err := a.postgres()
		if err != nil {
			return err
		}
		a.sessions = session.NewPostgresStore(db)
	case config.BackendMongo:
		s, err := session.NewMongoStore(ctx, session.MongoOptions{
			URI:        st.MongoURI,
			Database:   st.MongoDatabase,
			Collection: st.MongoCollection,
		})
		if err != nil {
			return fmt.Errorf("app: sessions: %w", err)
		}
		a.sessions = s
	default:
		a.sessions = session.NewMemoryStore()
	}
	return nil
}

func (a *App) openUsers() error {
	if a.users != nil {
		return nil
	}
	switch a.cfg.Storage.Users {
	case config.BackendBolt:
		db, err := a.bolt()
		if err != nil {
			return err
		}
		s, err := auth.NewBoltStore(db)
		if err != nil {
			return fmt.Errorf("app: users: %w", err)
		}
		a.users = s
	case config.BackendPostgres:
		db, err := a.postgres()
		if err != nil {
			return err
		}
		a.users = auth.NewPostgresStore(db)
	default:
		a.users = auth.NewMemoryStore()
	}
	return nil
}

// bolt opens the shared bolt file on first use.
func (a *App) bolt() (*bolt.DB, error) {
	if a.boltDB != nil {
		return a.boltDB, nil
	}
	db, err := session.OpenBoltDB(a.cfg.Storage.BoltPath)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.boltDB = db
	return db, nil
}

func (a *App) postgres() (*sqlx.DB, error) {
	if a.infra.DB == nil {
		return nil, errors.New("app: postgres storage selected but no database connection")
	}
	return a.infra.DB, nil
}

// seed grants the configured admin id the Admin level.
func (a *App) seed(ctx context.Context) error {
	id := a.cfg.Telegram.AdminID
	if id == 0 {
		return nil
	}
	return bootstrap.Seed(ctx, bootstrap.SeederFunc(func(ctx context.Context) error {
		lvl, err := a.users.Level(ctx, id)
		if err != nil {
			return fmt.Errorf("admin seed: %w", err)
		}
		if lvl == auth.Admin {
			return nil
		}
		if err := a.users.SetLevel(ctx, id, "admin", auth.Admin); err != nil {
			return fmt.Errorf("admin seed: %w", err)
		}
		logger.Info(ctx, "seed", "seed.admin",
			slog.String("status", "ok"),
			slog.Int64("user_id", id),
		)
		return nil
	}))
}

func (a *App) register() error {
	var errs *multierror.Error
	add := func(err error) {
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, svc := range a.dispatcher.Services() {
		ns := svc.Namespace()
		// addons answer buttons only; they get no menu entry
		if len(svc.Table.Commands()) > 0 {
			add(a.registry.RegisterCommand("/"+ns, commands.Command{
				Handler:     a.handleCommand,
				Description: commandDescription(svc),
				Aliases:     svc.Commands[1:],
			}))
		}
		add(a.registry.RegisterCallback(ns, a.handleCallback))
	}
	add(a.registry.RegisterCommand("/"+AuthCommand, commands.Command{
		Handler:     a.handleAuth,
		Description: "Authorize with a password",
	}))
	add(a.registry.RegisterCommand("/"+HelpCommand, commands.Command{
		Handler:     a.handleHelp,
		Description: "List every command",
	}))
	add(a.registry.RegisterCommand("/start", commands.Command{
		Handler:     a.handleHelp,
		Description: "Show help",
		Hidden:      true,
	}))
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("app: register: %w", err)
	}
	return nil
}

func commandDescription(svc *service.Service) string {
	for _, c := range svc.Table.Commands() {
		if c.Default && c.Description != "" {
			return c.Description
		}
	}
	return svc.Name
}

func inbound(c tele.Context) service.Inbound {
	var in service.Inbound
	if u := c.Sender(); u != nil {
		in.UserID = u.ID
		in.Username = displayName(u)
	}
	if ch := c.Chat(); ch != nil {
		in.ChatID = ch.ID
	}
	if m := c.Message(); m != nil {
		in.MessageID = m.ID
	}
	return in
}

func displayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (a *App) handleCommand(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	resp, ok, err := a.dispatcher.HandleCommand(ctx, inbound(c), c.Text())
	if err != nil {
		return a.fail(ctx, c, err)
	}
	if !ok {
		return nil
	}
	return a.renderer.Render(ctx, c, resp, false)
}

func (a *App) handleCallback(c tele.Context) error {
	data := callbacks.Data(c)
	ns, _, _ := callbacks.Decode(data)
	ctx := helpers.WithService(c, ns)
	resp, _, err := a.dispatcher.HandleCallback(ctx, inbound(c), data)
	if err != nil {
		_ = c.Respond()
		return a.fail(ctx, c, err)
	}
	return a.renderer.Render(ctx, c, resp, true)
}

// fail logs a handler error and tells the user something went wrong.
func (a *App) fail(ctx context.Context, c tele.Context, err error) error {
	logger.Error(ctx, "app", "handler.fail",
		slog.String("err", err.Error()),
	)
	return helpers.SendText(c, failureText)
}

func (a *App) handleAuth(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	// the password should not stay in the chat history
	helpers.DeleteAsync(c)
	text, err := a.Authenticate(ctx, inbound(c), c.Message().Payload)
	if err != nil {
		return a.fail(ctx, c, err)
	}
	return helpers.SendText(c, text)
}

// Authenticate runs /auth for in and returns the reply text.
func (a *App) Authenticate(ctx context.Context, in service.Inbound, secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return authUsage, nil
	}
	_, text, err := a.gate.Authenticate(ctx, in.UserID, in.Username, secret)
	return text, err
}

func (a *App) handleHelp(c tele.Context) error {
	return helpers.SendText(c, a.Help())
}

// Help renders the global help page.
func (a *App) Help() string {
	return service.HelpText(AuthCommand, a.dispatcher.Services())
}

// Registry exposes the Telegram handler registry.
func (a *App) Registry() *telegram.Registry { return a.registry }

// Dispatcher exposes the service dispatcher.
func (a *App) Dispatcher() *service.Dispatcher { return a.dispatcher }

// TelegramRunOptions assembles middlewares and routes for the runtime.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	routes := []telegram.Route{router.CallbackRoute(a.registry, router.CallbackOptions{})}
	routes = append(routes, router.CommandRoutes(a.registry)...)
	routes = append(routes, router.TextRoutes(a.registry)...)
	return telegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: telegram.DefaultMiddlewares(core, onLimited),
		Routes:      routes,
		OnStop: func(context.Context, telegram.Runtime) error {
			return a.Close()
		},
	}, nil
}

// onLimited stops the button spinner of a throttled callback.
func onLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: limitedText})
}

// Close releases every store. It is safe to call more than once.
func (a *App) Close() error {
	var errs *multierror.Error
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		a.sessions = nil
	}
	if a.boltDB != nil {
		if err := a.boltDB.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		a.boltDB = nil
	}
	if err := a.infra.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	a.infra = &bootstrap.Result{}
	return errs.ErrorOrNil()
}
