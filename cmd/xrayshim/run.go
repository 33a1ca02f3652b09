package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"xrayshim/internal/config"
	"xrayshim/internal/db"
	"xrayshim/internal/logger"
	"xrayshim/internal/tester"
	"xrayshim/internal/tunnel"
	"xrayshim/internal/xray"
	"xrayshim/internal/xray/parser"

	"github.com/spf13/cobra"
)

var (
	runPolicy  policyFlags
	runProfile uint
	runCheck   bool
)

var runCmd = &cobra.Command{
	Use:   "run [uri]",
	Short: "Start the engine with a share-link until interrupted",
	Long:  `Compiles the share-link (or a saved profile; the active one when neither is given) and runs it in-process. Use --check to fetch the tester target through the local inbound once started.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		b, err := runPolicy.builder(cmd, cfg)
		if err != nil {
			logger.Log.Fatalf("Invalid policy: %v", err)
		}

		uri := ""
		if len(args) == 1 {
			uri = parser.CleanLink(args[0])
		} else {
			uri, err = profileURI(cfg, runProfile)
			if err != nil {
				logger.Log.Fatalf("No share-link to run: %v", err)
			}
		}

		provider := tunnel.NewProvider(b, xray.NewEngine())
		if err := provider.SetupURL(uri); err != nil {
			logger.Log.Fatalf("Compile failed: %v", err)
		}
		if err := provider.StartTunnel(tunnel.Options{}); err != nil {
			logger.Log.Fatalf("Failed to start tunnel: %v", err)
		}
		defer provider.StopTunnel()

		settings := provider.NetworkSettings()
		logger.Log.Infof("🚀 Engine %s running. HTTP proxy at %s", provider.FullVersion(), settings.Proxy.Server)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runCheck {
			res, err := tester.New(cfg.Tester).CheckDocument(ctx, provider.Document())
			if err != nil {
				logger.Log.Errorf("❌ Check failed: %v", err)
			} else {
				logger.Log.Infof("✅ Check %s: status %d in %v (attempt %d)", cfg.Tester.TargetURL, res.StatusCode, res.Latency, res.Attempts)
			}
		}

		<-ctx.Done()
		logger.Log.Info("Stopping engine...")
	},
}

// profileURI loads a saved profile's share-link, or the active profile's when id is 0.
func profileURI(cfg *config.Config, id uint) (string, error) {
	database, err := db.Connect(cfg.Database.Path)
	if err != nil {
		return "", err
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		return "", err
	}

	if id == 0 {
		p, err := db.ActiveProfile(database)
		if err != nil {
			return "", err
		}
		return p.Raw, nil
	}
	p, err := db.GetProfile(database, id)
	if err != nil {
		return "", err
	}
	return p.Raw, nil
}

func init() {
	runPolicy.register(runCmd)
	runCmd.Flags().UintVar(&runProfile, "profile", 0, "Run a saved profile by id")
	runCmd.Flags().BoolVar(&runCheck, "check", false, "Fetch the tester target through the local inbound after start")
	rootCmd.AddCommand(runCmd)
}
