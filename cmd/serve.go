package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mediafetch-api-server/pkg/api"
	"mediafetch-api-server/pkg/config"
	"mediafetch-api-server/pkg/extractor"
)

const shutdownGrace = 10 * time.Second

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on")
	lo.Must0(viper.BindPFlag(config.ServerPort, serveCmd.Flags().Lookup("port")))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.Server.ReleaseMode {
			gin.SetMode(gin.ReleaseMode)
		}

		binary := extractor.LocateBinary(cfg.Extractor.Path, "yt-dlp")
		if !extractor.BinaryAvailable(binary) {
			logrus.WithField("path", binary).Warn("yt-dlp not found, run `mediafetch setup` to install it")
		}

		server := api.New(extractor.New(binary), cfg)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           server.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logrus.WithFields(logrus.Fields{
				"port":    cfg.Server.Port,
				"yt-dlp":  binary,
				"origins": cfg.Server.AllowedOrigins,
			}).Info("mediafetch API server listening")
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

		logrus.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
