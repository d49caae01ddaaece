package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/ppiankov/securo/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API for the web front end",
	Long: `Serve exposes analysis and history over HTTP:
  POST /api/analyze/text            {"input": "..."}
  POST /api/analyze/file            multipart field "file"
  POST /api/analyze/image           multipart field "file"
  GET  /api/history
  GET  /api/history/{id}
  POST /api/history/{id}/reanalyze
  GET  /healthz

Only one analysis runs at a time; concurrent submissions get 409.

Example:
  securo serve --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.Close()

	if env.cfg.Enrich.Enabled && env.cfg.Enrich.AllowPrivate {
		return errors.New("enrich.allow_private cannot be used with serve: API clients could reach internal addresses")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(env.service, server.Options{
		AllowedOrigins: env.cfg.Server.AllowedOrigins,
		MaxUploadBytes: env.cfg.Server.MaxUploadBytes,
		Timeout:        analysisTimeout,
		Logger:         env.logger,
	})

	env.logger.Info("starting API", "provider", env.provider.Name(), "history", env.cfg.History.Backend)
	return srv.ListenAndServe(ctx, env.cfg.Server.Addr)
}
