package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BTreeMap/TripConcierge/internal/api"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/lockfile"
	"github.com/BTreeMap/TripConcierge/internal/messaging"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and any configured messaging channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, loadConfig(v))
		},
	}

	f := cmd.Flags()
	f.String("api-addr", "", "API server address (overrides $API_ADDR)")
	f.Duration("session-ttl", 0, "how long idle sessions are kept (overrides $SESSION_TTL)")
	f.Bool("whatsapp", false, "log in to WhatsApp and accept conversations there (overrides $WHATSAPP_ENABLED)")
	f.String("qr-output", "", "path to write the WhatsApp login QR code (overrides $WHATSAPP_QR_OUTPUT)")
	f.Bool("numeric-code", false, "print the raw WhatsApp login code instead of a QR code (overrides $WHATSAPP_NUMERIC_CODE)")

	bindFlag(v, cmd, keyAPIAddr, "api-addr")
	bindFlag(v, cmd, keySessionTTL, "session-ttl")
	bindFlag(v, cmd, keyWhatsAppEnabled, "whatsapp")
	bindFlag(v, cmd, keyWhatsAppQR, "qr-output")
	bindFlag(v, cmd, keyWhatsAppNumeric, "numeric-code")
	return cmd
}

// runServe wires every component and serves until ctx is cancelled.
func runServe(ctx context.Context, cfg Config) error {
	slog.Info("Bootstrapping TripConcierge with configured modules")

	lock, err := lockfile.Acquire(cfg.StateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	repo, err := openCourses(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	llm, err := newLLM(cfg)
	if err != nil {
		return fmt.Errorf("failed to create language model client: %w", err)
	}
	resolver, err := newResolver(cfg, llm)
	if err != nil {
		return fmt.Errorf("failed to create airport resolver: %w", err)
	}
	c := defaultCourse(ctx, repo, cfg.CourseID)
	sessions := flow.NewRegistry(cfg.SessionTTL, sessionOptions(cfg, resolver, llm, c)...)

	apiOpts := []api.Option{
		api.WithAddr(cfg.APIAddr),
		api.WithSessions(sessions),
		api.WithCourses(repo, cfg.CourseID),
	}
	if llm != nil {
		apiOpts = append(apiOpts, api.WithIdentifier(llm), api.WithChatter(llm))
	}

	services, webhook, err := startMessaging(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, svc := range services {
			if err := svc.Stop(); err != nil {
				slog.Warn("Failed to stop messaging service", "error", err)
			}
		}
	}()
	if len(services) > 0 {
		sharer := messaging.NewSharer()
		for ch, svc := range services {
			sharer.Register(ch, svc)
			go messaging.NewResponseHandler(svc, sessions).Run(ctx)
		}
		apiOpts = append(apiOpts, api.WithSharer(sharer))
	}
	if webhook != nil {
		apiOpts = append(apiOpts, api.WithTwilioWebhook(webhook))
	}

	slog.Debug("Final configuration", "state_dir", cfg.StateDir, "api_addr", cfg.APIAddr, "course", c.ID, "channels", len(services))
	if err := api.NewServer(apiOpts...).Run(ctx); err != nil {
		return err
	}
	slog.Info("TripConcierge exited successfully")
	return nil
}

// startMessaging connects the configured channels. The Twilio webhook handler is
// returned so it can be mounted on the API router.
func startMessaging(ctx context.Context, cfg Config) (map[messaging.Channel]messaging.Service, http.HandlerFunc, error) {
	services := make(map[messaging.Channel]messaging.Service)
	var webhook http.HandlerFunc

	if cfg.TwilioAccountSID != "" {
		tw, err := messaging.NewTwilioService(
			messaging.WithAccountSID(cfg.TwilioAccountSID),
			messaging.WithAuthToken(cfg.TwilioAuthToken),
			messaging.WithFromNumber(cfg.TwilioFromNumber),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Twilio service: %w", err)
		}
		services[messaging.ChannelSMS] = tw
		webhook = tw.WebhookHandler
	}

	if cfg.WhatsAppEnabled {
		opts := []messaging.WhatsAppOption{messaging.WithWhatsAppDBDSN(cfg.WhatsAppDSN)}
		if cfg.WhatsAppQROutput != "" {
			opts = append(opts, messaging.WithQRCodeOutput(cfg.WhatsAppQROutput))
		}
		if cfg.WhatsAppNumericCode {
			opts = append(opts, messaging.WithNumericCode())
		}
		client, err := messaging.ConnectWhatsApp(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect WhatsApp: %w", err)
		}
		services[messaging.ChannelWhatsApp] = messaging.NewWhatsAppService(client)
	}

	for ch, svc := range services {
		if err := svc.Start(ctx); err != nil {
			for _, started := range services {
				started.Stop()
			}
			return nil, nil, fmt.Errorf("failed to start %s service: %w", ch, err)
		}
		slog.Info("Messaging channel started", "channel", ch)
	}
	return services, webhook, nil
}
