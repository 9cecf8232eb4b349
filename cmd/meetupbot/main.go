// Command meetupbot runs the meetup Telegram bot and its organizer HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"meetupbot/config"
	"meetupbot/internal/adapters/auth"
	"meetupbot/internal/adapters/email"
	"meetupbot/internal/adapters/session"
	"meetupbot/internal/adapters/telegram"
	"meetupbot/internal/adapters/yookassa"
	"meetupbot/internal/bot"
	httpapi "meetupbot/internal/delivery/http"
	"meetupbot/internal/delivery/http/controllers"
	"meetupbot/internal/domain"
	"meetupbot/internal/repository/memory"
	"meetupbot/internal/repository/postgres"
	"meetupbot/internal/services"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	httpAddr    string
	pollTimeout int
	workers     int
	noBot       bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "meetupbot:", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flags := pflag.NewFlagSet("meetupbot", pflag.ContinueOnError)
	flags.StringVar(&opts.httpAddr, "http-addr", "", "HTTP listen address (default :$PORT)")
	flags.IntVar(&opts.pollTimeout, "poll-timeout", 30, "Telegram long-poll timeout in seconds")
	flags.IntVar(&opts.workers, "workers", 8, "number of updates handled concurrently")
	flags.BoolVar(&opts.noBot, "no-bot", false, "serve the HTTP API only")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg.Environment)
	if opts.httpAddr == "" {
		opts.httpAddr = ":" + cfg.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, db, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	sessions, closeSessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	var messenger domain.Messenger = logMessenger{logger: logger}
	var poller *telegram.Poller
	if !opts.noBot {
		api, err := telegram.NewAPI(cfg.TelegramToken, "", &http.Client{Timeout: time.Duration(opts.pollTimeout+10) * time.Second})
		if err != nil {
			return err
		}
		messenger = telegram.NewMessenger(api)
		poller = telegram.NewPoller(api, opts.pollTimeout, logger.With("component", "telegram"))
	}

	emailService, err := newEmailService(cfg, logger)
	if err != nil {
		return err
	}
	if !cfg.PaymentsEnabled() {
		logger.Warn("YooKassa credentials are not set, donations are disabled")
	}
	payments := yookassa.NewClient(&http.Client{Timeout: 15 * time.Second}, yookassa.Config{
		ShopID:    cfg.YooKassa.ShopID,
		SecretKey: cfg.YooKassa.SecretKey,
		ReturnURL: cfg.YooKassa.ReturnURL,
		APIURL:    cfg.YooKassa.APIURL,
	})
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)

	timeout := cfg.HandlerTimeout
	notifier := services.NewNotifier(messenger, logger)
	svc := bot.Services{
		Participants:  services.NewParticipantService(repos.participants, repos.talks, nil, timeout),
		Events:        services.NewEventService(repos.events, repos.talks, nil, timeout),
		Scheduler:     services.NewTalkScheduler(repos.talks, repos.questions, nil, timeout),
		Questions:     services.NewQuestionRouter(repos.questions, repos.talks, messenger, logger, nil, timeout),
		Matchmaker:    services.NewMatchmaker(repos.networking, nil, timeout),
		Donations:     services.NewDonationService(repos.donations, payments, services.DonationSettings{MinAmount: cfg.Donation.MinAmount, Currency: cfg.Donation.Currency}, nil, timeout),
		Subscriptions: services.NewSubscriptionService(repos.subscriptions, nil, timeout),
		Applications: services.NewSpeakerApplicationService(repos.applications, repos.events, repos.participants,
			notifier, emailService, cfg.Email.OrganizerEmail, logger, nil, timeout),
		Dashboard: services.NewDashboardService(issuer, cfg.DashboardTokenTTL, nil),
		Notifier:  notifier,
	}

	var pinger controllers.Pinger
	if db != nil {
		pinger = db
	}
	server := &http.Server{
		Addr: opts.httpAddr,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Logger:         logger,
			Verifier:       issuer,
			AllowedOrigins: cfg.AllowedOrigins,
			Health:         controllers.NewHealthController(pinger),
			Dashboard:      controllers.NewDashboardController(logger, svc.Events, svc.Scheduler, svc.Donations),
			Webhooks:       controllers.NewWebhookController(logger, svc.Donations),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", opts.httpAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if poller != nil {
		engine := bot.New(svc, sessions, messenger, logger.With("component", "bot"), bot.Options{
			Location:       cfg.Location,
			HandlerTimeout: cfg.HandlerTimeout,
			DashboardURL:   cfg.DashboardURL,
		})
		dispatcher := bot.NewDispatcher(engine, opts.workers, logger)
		g.Go(func() error {
			err := poller.Run(gctx, dispatcher.Dispatch)
			dispatcher.Wait()
			if err != nil {
				return fmt.Errorf("telegram polling: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

type repositories struct {
	participants  domain.ParticipantRepository
	events        domain.EventRepository
	talks         domain.TalkRepository
	questions     domain.QuestionRepository
	networking    domain.NetworkingRepository
	donations     domain.DonationRepository
	subscriptions domain.SubscriptionRepository
	applications  domain.SpeakerApplicationRepository
}

// openRepositories connects to Postgres when DATABASE_URL is set and falls back to
// process memory otherwise.
func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, *sql.DB, error) {
	if cfg.DBUrl == "" {
		logger.Warn("DATABASE_URL is not set, data is kept in memory and lost on restart")
		store := memory.NewStore()
		return &repositories{
			participants:  memory.NewParticipantRepository(store),
			events:        memory.NewEventRepository(store),
			talks:         memory.NewTalkRepository(store),
			questions:     memory.NewQuestionRepository(store),
			networking:    memory.NewNetworkingRepository(store),
			donations:     memory.NewDonationRepository(store),
			subscriptions: memory.NewSubscriptionRepository(store),
			applications:  memory.NewSpeakerApplicationRepository(store),
		}, nil, nil
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return &repositories{
		participants:  postgres.NewParticipantRepository(db),
		events:        postgres.NewEventRepository(db),
		talks:         postgres.NewTalkRepository(db),
		questions:     postgres.NewQuestionRepository(db),
		networking:    postgres.NewNetworkingRepository(db),
		donations:     postgres.NewDonationRepository(db),
		subscriptions: postgres.NewSubscriptionRepository(db),
		applications:  postgres.NewSpeakerApplicationRepository(db),
	}, db, nil
}

// openSessions uses Redis when REDIS_URL is set so conversations survive restarts.
func openSessions(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.SessionStore, func(), error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
	client := session.NewRedisClient(cfg.RedisURL)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("conversation sessions stored in redis")
	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }, nil
}

func newEmailService(cfg *config.Config, logger *slog.Logger) (domain.EmailService, error) {
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretKey,
			InsecureSkipVerify: cfg.Email.InsecureSkipTLS,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create mailer: %w", err)
	}
	return services.NewEmailService(mailer, email.NewTemplateRenderer(), logger), nil
}

// logMessenger stands in for Telegram when the bot is disabled.
type logMessenger struct {
	logger *slog.Logger
}

func (m logMessenger) Send(ctx context.Context, msg domain.OutgoingMessage) error {
	m.logger.InfoContext(ctx, "message not sent, bot disabled", "chat_id", msg.ChatID)
	return nil
}

func (m logMessenger) AnswerCallback(context.Context, string, string) error { return nil }
