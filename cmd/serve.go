package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the profiler over HTTP",
	Long: `Starts an HTTP server. POST a dataset to /api/v1/profile as multipart field
"file" to profile it; the newest successful upload becomes the current result
at /api/v1/profile/current. Metrics are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ServerAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		opt, err := profileOptions(cmd, 0, 0)
		if err != nil {
			return err
		}
		srv := server.New(server.Config{
			Addr:           addr,
			MaxUploadBytes: cfg.MaxUploadBytes,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			Profile:        opt,
		}, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
