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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/suprohub/axochat-server/pkg/auth"
	"github.com/suprohub/axochat-server/pkg/chat"
	"github.com/suprohub/axochat-server/pkg/config"
	"github.com/suprohub/axochat-server/pkg/moderation"
)

const shutdownTimeout = 5 * time.Second

var (
	cfgPath string
	debug   bool
)

func main() {
	root := &cobra.Command{
		Use:          "axochat",
		Short:        "Chat relay server for game clients",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yml", "path to the configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging on")

	root.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Run the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "generate <name> [uuid]",
		Short: "Mint a login token with the configured token service",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runStart() error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	store, err := moderation.Load(cfg.Moderation.File)
	if err != nil {
		return err
	}

	var authenticator *auth.Authenticator
	if cfg.Auth != nil {
		authenticator, err = auth.NewAuthenticator(*cfg.Auth)
		if err != nil {
			return err
		}
	}

	hub := chat.NewHub(cfg, store, authenticator, auth.NewMojangVerifier())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		chat.ServeWS(hub, w, r)
	})
	srv := &http.Server{Addr: cfg.Net.Address, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("address", cfg.Net.Address).Msg("starting-server")
		var err error
		if cfg.Net.CertFile != "" && cfg.Net.KeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.Net.CertFile, cfg.Net.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runGenerate(args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Auth == nil {
		return errors.New("please add an `auth` section to your configuration file")
	}

	authenticator, err := auth.NewAuthenticator(*cfg.Auth)
	if err != nil {
		return err
	}

	id := uuid.Nil
	if len(args) == 2 {
		id, err = uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("parsing uuid %q: %w", args[1], err)
		}
	}

	token, err := authenticator.NewToken(auth.UserInfo{Name: args[0], UUID: id})
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
