// Command affilify-gate runs the AFFILIFY API behind the admission layer.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/config"
	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/users"
)

// CLI is the command line of affilify-gate.
type CLI struct {
	Config string `help:"Path to a YAML config file." type:"path" env:"AFFILIFY_CONFIG"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the HTTP server."`
	Token TokenCmd `cmd:"" help:"Mint a session token for a user."`
}

// ServeCmd runs the server until SIGINT or SIGTERM.
type ServeCmd struct {
	Addr            string        `help:"Listen address, overrides the config file."`
	ShutdownTimeout time.Duration `default:"10s" help:"Grace period for in-flight requests."`
}

// Run starts the server.
func (s *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Addr = s.Addr
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// TokenCmd prints a signed session token for a development user.
type TokenCmd struct {
	UserID string        `arg:"" name:"user-id" help:"Subject of the token."`
	Email  string        `help:"Email claim."`
	Plan   string        `default:"free" enum:"free,basic,pro,enterprise" help:"Plan claim."`
	TTL    time.Duration `name:"ttl" help:"Token lifetime, defaults to the configured token_ttl."`
}

// Run mints the token.
func (t *TokenCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	tier, err := plan.Parse(t.Plan)
	if err != nil {
		return err
	}
	ttl := t.TTL
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}

	issuer, err := auth.NewIssuer([]byte(cfg.JWTSecret), ttl, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}
	token, err := issuer.Issue(users.User{ID: t.UserID, Email: t.Email, Plan: tier})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("affilify-gate"),
		kong.Description("AFFILIFY API server with rate limiting and session authentication."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
