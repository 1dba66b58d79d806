package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/internal/rate"
	"github.com/letsgobuy/storefront/internal/session"
	"github.com/letsgobuy/storefront/internal/store"
	"github.com/letsgobuy/storefront/pkg/config"
	"github.com/letsgobuy/storefront/pkg/logger"
	"github.com/letsgobuy/storefront/pkg/utils"
)

const usage = `usage: storefront <command> [flags]

commands:
  buscar        search products and stalls (home page)
  bancas        list stalls
  produtos      list products
  fornecedores  list suppliers
  cadastrar     register a supplier, stall or product
  login         sign in
  registrar     create an account
  logout        sign out
  whoami        show the header for the current session
  perfil        change email or password
  serve         run the preview HTTP server
`

// deps is everything a command may need, built once per process.
type deps struct {
	cfg      *config.Config
	log      *zap.Logger
	client   *feira.Client
	st       store.Store // nil with the memory backend
	sessions *session.Store
	origin   geo.Point
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()
	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()

	d, cleanup, err := wire(ctx, cfg)
	if err != nil {
		cleanup()
		logg.Fatalw("startup failed", "error", err)
	}
	defer cleanup()

	if err := run(ctx, d, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		cleanup()
		os.Exit(1)
	}
}

// wire builds the process dependencies. The returned cleanup is never nil.
func wire(ctx context.Context, cfg *config.Config) (*deps, func(), error) {
	logg := logger.L()
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	// --- Rate limiter (nil when RATE_RPS is unset) ---
	rateMgr := rate.NewManager(rate.Config{RequestsPerSecond: cfg.RateRPS, Burst: cfg.RateBurst})

	// --- Backend client ---
	client := feira.NewClient(logger.Named("feira"), rateMgr, feira.Config{
		BaseURL:      cfg.APIBaseURL,
		Timeout:      cfg.HTTPTimeout,
		ReadRetryMax: cfg.ReadRetryMax,
	})

	// --- Session backend ---
	var (
		st      store.Store
		backend session.Backend
	)
	needRedis := cfg.SessionBackend == config.BackendRedis || cfg.SessionNotifier == config.NotifierRedis
	if needRedis {
		rs, err := store.NewRedis(store.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Password: cfg.RedisPass}, logg)
		if err != nil {
			return nil, cleanup, fmt.Errorf("redis: %w", err)
		}
		st = rs
		closers = append(closers, func() { _ = rs.Close() })
	}
	switch cfg.SessionBackend {
	case config.BackendMemory:
		backend = session.NewMemoryBackend()
	case config.BackendRedis:
		backend = session.NewRedisBackend(st, cfg.SessionScope)
	default:
		return nil, cleanup, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}

	// --- Cross-process notifier ---
	var notifier session.Notifier
	switch cfg.SessionNotifier {
	case config.NotifierNone:
	case config.NotifierRedis:
		notifier = session.NewRedisNotifier(st, cfg.SessionScope, logger.Named("session"))
	case config.NotifierNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			return nil, cleanup, fmt.Errorf("nats: %w", err)
		}
		closers = append(closers, nc.Close)
		notifier = session.NewNATSNotifier(nc, cfg.SessionScope, cfg.ServiceName, logger.Named("session"))
	default:
		return nil, cleanup, fmt.Errorf("unknown SESSION_NOTIFIER %q", cfg.SessionNotifier)
	}

	sessions, err := session.NewStore(ctx, backend, session.Options{
		Scope:    cfg.SessionScope,
		Notifier: notifier,
		Logger:   logger.Named("session"),
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("session: %w", err)
	}
	closers = append(closers, func() { _ = sessions.Close() })

	logg.Debug("storefront.wired",
		zap.String("api", utils.MaskURL(client.BaseURL())),
		zap.String("session_backend", cfg.SessionBackend),
		zap.String("session_notifier", cfg.SessionNotifier),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("redis_pass", utils.MaskSecret(cfg.RedisPass)),
		zap.String("nats_url", utils.MaskURL(cfg.NATSURL)))

	return &deps{
		cfg:      cfg,
		log:      logg,
		client:   client,
		st:       st,
		sessions: sessions,
		origin:   geo.Point{Lat: cfg.UserLat, Lon: cfg.UserLon},
	}, cleanup, nil
}
