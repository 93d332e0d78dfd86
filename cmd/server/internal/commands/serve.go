package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/blob"
	"github.com/meridianaudio/meridian/internal/captcha"
	"github.com/meridianaudio/meridian/internal/hierarchy"
	"github.com/meridianaudio/meridian/internal/httpx"
	"github.com/meridianaudio/meridian/internal/lifecycle"
	"github.com/meridianaudio/meridian/internal/logger"
	"github.com/meridianaudio/meridian/internal/mailer"
	"github.com/meridianaudio/meridian/internal/models"
	"github.com/meridianaudio/meridian/internal/server"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/meridianaudio/meridian/internal/store/memory"
	"github.com/meridianaudio/meridian/internal/store/postgres"
	"github.com/meridianaudio/meridian/internal/telemetry"
	"github.com/rs/zerolog/log"
)

type ServeCmd struct {
	Listen      string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"MERIDIAN_LISTEN"`
	TokenSecret string `help:"secret for HMAC signing of bearer tokens" env:"MERIDIAN_TOKEN_SECRET"`
	Tracing     bool   `help:"enable tracing" default:"false" env:"MERIDIAN_TRACING"`

	StoreType string             `help:"store type (memory or postgres)" default:"memory" env:"MERIDIAN_STORE_TYPE" enum:"memory,postgres"`
	Postgres  PostgresStoreFlags `embed:"" prefix:"postgres-"`

	BlobType string  `help:"blob store type (memory or s3)" default:"memory" env:"MERIDIAN_BLOB_TYPE" enum:"memory,s3"`
	S3       S3Flags `embed:"" prefix:"s3-"`

	MailerType string `help:"mailer (log or ses)" default:"log" env:"MERIDIAN_MAILER_TYPE" enum:"log,ses"`
	SESRegion  string `help:"AWS region for SES" default:"" env:"MERIDIAN_SES_REGION"`
	MailFrom   string `help:"from address for outgoing mail" default:"noreply@meridianaudio.net" env:"MERIDIAN_MAIL_FROM"`

	CaptchaEndpoint string `help:"captcha siteverify endpoint; empty disables verification" default:"" env:"MERIDIAN_CAPTCHA_ENDPOINT"`
	CaptchaSecret   string `help:"captcha shared secret" default:"" env:"MERIDIAN_CAPTCHA_SECRET"`

	SeedAdminEmail    string `help:"bootstrap owner account email, created when no users exist" default:"" env:"MERIDIAN_SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `help:"bootstrap owner account password" default:"" env:"MERIDIAN_SEED_ADMIN_PASSWORD"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"600"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"MERIDIAN_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

type S3Flags struct {
	Region    string `help:"AWS region for the audio bucket" default:"" env:"MERIDIAN_S3_REGION"`
	Bucket    string `help:"bucket holding release assets" default:"" env:"MERIDIAN_S3_BUCKET"`
	Endpoint  string `help:"S3 endpoint override (for MinIO)" default:"" env:"MERIDIAN_S3_ENDPOINT"`
	PathStyle bool   `help:"use path-style addressing" default:"false" env:"MERIDIAN_S3_PATH_STYLE"`
	PublicURL string `help:"public base URL for stored objects" default:"" env:"MERIDIAN_S3_PUBLIC_URL"`
}

func (s *S3Flags) validate() error {
	if s.Bucket == "" {
		return errors.New("S3 bucket is required (--s3-bucket or MERIDIAN_S3_BUCKET)")
	}
	return nil
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if len(c.TokenSecret) < 32 {
		return errors.New("token secret must be at least 32 bytes (--token-secret or MERIDIAN_TOKEN_SECRET)")
	}

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "meridian-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	stores, closeStores, err := c.createStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()

	blobs, err := c.createBlobStore(ctx)
	if err != nil {
		return err
	}

	mail, err := c.createMailer(ctx)
	if err != nil {
		return err
	}

	var verifier captcha.Verifier = captcha.AlwaysPass{}
	if c.CaptchaEndpoint != "" {
		verifier = captcha.NewHTTPVerifier(c.CaptchaEndpoint, c.CaptchaSecret)
		log.Info().Str("endpoint", c.CaptchaEndpoint).Msg("Captcha verification enabled")
	}

	tokens, err := auth.NewTokenService([]byte(c.TokenSecret))
	if err != nil {
		return err
	}

	if err := c.seedAdmin(ctx, stores); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Stores:  stores,
		Tokens:  tokens,
		Guard:   auth.NewGuard(hierarchy.NewResolver(stores.Labels)),
		Engine:  lifecycle.NewEngine(stores, blobs, mail),
		Captcha: verifier,
		Mailer:  mail,
	})

	handler := httpx.Requests(log)(srv.Handler())

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Msg("Listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

func (c *ServeCmd) createStores(ctx context.Context) (*store.Stores, func(), error) {
	switch c.StoreType {
	case "postgres":
		if err := c.Postgres.validate(); err != nil {
			return nil, nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}
		db, err := postgres.New(ctx, &postgres.Config{
			ConnString:      c.Postgres.ConnString,
			MaxConns:        c.Postgres.MaxConns,
			MinConns:        c.Postgres.MinConns,
			MaxConnLifetime: c.Postgres.MaxConnLifetime,
			MaxConnIdleTime: c.Postgres.MaxConnIdleTime,
			AutoMigrate:     c.Postgres.AutoMigrate,
		})
		if err != nil {
			return nil, nil, err
		}
		return db.Stores(), db.Close, nil

	default:
		return memory.NewStores(), func() {}, nil
	}
}

func (c *ServeCmd) createBlobStore(ctx context.Context) (blob.Store, error) {
	if c.BlobType != "s3" {
		return blob.NewMemoryStore(), nil
	}
	if err := c.S3.validate(); err != nil {
		return nil, fmt.Errorf("failed to validate s3 flags: %w", err)
	}
	return blob.NewS3Store(ctx, blob.S3Config{
		Region:    c.S3.Region,
		Bucket:    c.S3.Bucket,
		Endpoint:  c.S3.Endpoint,
		PathStyle: c.S3.PathStyle,
		PublicURL: c.S3.PublicURL,
	})
}

func (c *ServeCmd) createMailer(ctx context.Context) (mailer.Mailer, error) {
	if c.MailerType != "ses" {
		return mailer.LogMailer{}, nil
	}
	return mailer.NewSESMailer(ctx, c.SESRegion, c.MailFrom)
}

// seedAdmin creates the bootstrap owner account on an empty user table so a
// fresh deployment can be logged into at all.
func (c *ServeCmd) seedAdmin(ctx context.Context, stores *store.Stores) error {
	if c.SeedAdminEmail == "" || c.SeedAdminPassword == "" {
		return nil
	}

	count, err := stores.Users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(c.SeedAdminPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	owner := &models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		Email:        c.SeedAdminEmail,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         models.RoleOwner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := stores.Users.Create(ctx, owner); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	log.Info().Str("email", c.SeedAdminEmail).Msg("Seeded owner account")
	return nil
}
