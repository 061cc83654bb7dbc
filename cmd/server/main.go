package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-drive-uploader/acquire"
	"github.com/jrsteele09/go-drive-uploader/authflow"
	"github.com/jrsteele09/go-drive-uploader/authflow/staterepo"
	"github.com/jrsteele09/go-drive-uploader/credentials"
	"github.com/jrsteele09/go-drive-uploader/credentials/sqliterepo"
	"github.com/jrsteele09/go-drive-uploader/internal/config"
	"github.com/jrsteele09/go-drive-uploader/internal/logging"
	"github.com/jrsteele09/go-drive-uploader/server"
	"github.com/jrsteele09/go-drive-uploader/sessions"
	"github.com/jrsteele09/go-drive-uploader/upload"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagConfigPath string
	flagEnvFile    string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "drive-uploader",
		Short:         "Upload files into a user's Google Drive",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}

	cmd.Flags().StringVar(&flagConfigPath, "config", "", "TOML config file path")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", "", "dotenv file path (default ./.env when present)")
	return cmd
}

func run(ctx context.Context) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(config.LoadOptions{File: flagConfigPath, EnvFile: flagEnvFile})
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel())
	displayAppname(c.GetAppName())

	secret, err := sessionSecret(c, rand.Reader)
	if err != nil {
		return err
	}
	creds, closeCreds, err := openCredentialStore(ctx, c, secret)
	if err != nil {
		return err
	}
	defer closeCreds()
	states := staterepo.NewInMemoryRepo()

	handler, err := buildServer(ctx, c, secret, creds, states)
	if err != nil {
		return err
	}
	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listenAndServe(httpServer) })
	g.Go(func() error {
		runJanitor(gctx, c.GetJanitorInterval(),
			sweep{name: "credentials", maxAge: c.GetMaxSessionAge(), deleteExpired: creds.DeleteExpired},
			sweep{name: "auth states", maxAge: c.GetAuthStateTTL(), deleteExpired: states.DeleteExpired},
		)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	return g.Wait()
}

// buildServer wires the services behind the HTTP surface.
func buildServer(ctx context.Context, c config.Config, secret []byte, creds credentials.Repo, states staterepo.Repo) (*server.Server, error) {
	oauthCfg, err := authflow.LoadRegistration(ctx, c)
	if err != nil {
		return nil, err
	}

	sessionManager, err := sessions.NewManager(secret, c.GetMaxSessionAge(), c.GetCookieSecure())
	if err != nil {
		return nil, err
	}

	return server.New(c, server.Services{
		AuthFlow: authflow.NewService(oauthCfg, states, creds, c.GetAuthStateTTL()),
		Uploads: upload.NewService(creds, upload.Options{
			APIURL:    c.GetDriveAPIURL(),
			UploadURL: c.GetDriveUploadURL(),
			ChunkSize: c.GetUploadChunkSize(),
			Timeout:   c.GetUploadTimeout(),
		}),
		Acquirer: acquire.New(acquire.Options{
			TempDir:      c.GetTempDir(),
			MaxBytes:     c.GetMaxUploadBytes(),
			FetchTimeout: c.GetFetchTimeout(),
		}),
		Sessions: sessionManager,
	})
}

// sessionSecret returns the configured secret. Load only allows it to be
// empty in DEV, where a per-process secret is generated instead.
func sessionSecret(c config.Config, random io.Reader) ([]byte, error) {
	if secret := c.GetSessionSecret(); secret != "" {
		return []byte(secret), nil
	}
	secret := make([]byte, 32)
	if _, err := io.ReadFull(random, secret); err != nil {
		return nil, fmt.Errorf("[main] generating session secret: %w", err)
	}
	log.Warn().Msg("SESSION_SECRET is not set; sessions will not survive a restart")
	return secret, nil
}

func openCredentialStore(ctx context.Context, c config.Config, secret []byte) (credentials.Repo, func(), error) {
	if c.GetSessionStore() != config.SessionStoreSQLite {
		return credentials.NewInMemoryRepo(), func() {}, nil
	}

	sealer, err := credentials.NewSealer(secret)
	if err != nil {
		return nil, nil, err
	}
	repo, err := sqliterepo.Open(ctx, c.GetSessionDBPath(), sealer)
	if err != nil {
		return nil, nil, fmt.Errorf("[main] opening session store: %w", err)
	}
	log.Info().Str("path", c.GetSessionDBPath()).Msg("using sqlite session store")
	return repo, func() {
		if err := repo.Close(); err != nil {
			log.Err(err).Msg("closing session store")
		}
	}, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
