package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tradejournal/internal/api"
	"tradejournal/internal/ports"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal API and live dashboard websocket",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			if addr == "" {
				addr = s.cfg.HTTPAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s.logger.Info(ctx, "Starting journal server", ports.Fields{"addr": addr, "profile": profileName(s.svc.Profile())})
			return api.NewServer(addr, s.svc, s.logger).Run(ctx)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
