package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-dab/dabmux/pkg/config"
	"github.com/go-dab/dabmux/pkg/database"
	"github.com/go-dab/dabmux/pkg/edi"
	"github.com/go-dab/dabmux/pkg/ensemble"
	"github.com/go-dab/dabmux/pkg/eti"
	"github.com/go-dab/dabmux/pkg/logger"
	"github.com/go-dab/dabmux/pkg/metrics"
	"github.com/go-dab/dabmux/pkg/network"
	"github.com/go-dab/dabmux/pkg/remote"
	"github.com/go-dab/dabmux/pkg/web"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dabmux %s\n", version)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildTime)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("Starting dabmux",
		logger.String("version", version),
		logger.String("commit", gitCommit),
		logger.String("build_time", buildTime))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	ens, err := cfg.ToEnsemble()
	if err != nil {
		log.Error("Invalid ensemble configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validate {
		log.Info("Configuration is valid")
		os.Exit(0)
	}

	log.Info("Configuration loaded successfully", logger.String("config_file", *configFile))

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logReg := logger.NewRegistry(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	collector := metrics.NewCollector()
	store := ensemble.NewStore(ens)
	announcer := newAnnouncementRegistry(store)

	dt := datetimeSettings{
		Enabled: cfg.Ensemble.Datetime.Enabled,
		Now:     time.Now,
		UTCFlag: cfg.Ensemble.Datetime.UTCFlag,
	}

	inputs, err := buildSubchannelSources(ens, log.WithComponent("input"))
	if err != nil {
		log.Error("Failed to initialize subchannel inputs", logger.Error(err))
		os.Exit(1)
	}

	loop := newFrameLoop(store, announcer, dt, inputs, collector, log)

	if cfg.Output.File != "" {
		format, err := eti.ParseOutputFormat(cfg.Output.Format)
		if err != nil {
			log.Error("Invalid output format", logger.Error(err))
			os.Exit(1)
		}
		sink, err := eti.NewFileSink(cfg.Output.File, format)
		if err != nil {
			log.Error("Failed to open ETI output", logger.Error(err))
			os.Exit(1)
		}
		loop.sink = sink
		log.Info("ETI output opened",
			logger.String("file", cfg.Output.File),
			logger.String("format", cfg.Output.Format))
	}

	if cfg.EDI.Enabled {
		loop.ediEnabled = true
		loop.ediEncoder = edi.NewEncoder(cfg.EDI.TAIUTCOffset)
		loop.ediPFT = cfg.EDI.PFT
		loop.ediPFTFEC = cfg.EDI.PFTFEC
		loop.ediFragSize = cfg.EDI.FragmentSize

		for _, dest := range cfg.EDI.Destinations {
			switch dest.Transport {
			case "udp":
				sender, err := network.NewUDPSender(dest.Address, log.WithComponent("edi.udp"))
				if err != nil {
					log.Error("Failed to open EDI UDP destination",
						logger.String("address", dest.Address), logger.Error(err))
					os.Exit(1)
				}
				loop.ediSenders = append(loop.ediSenders, sender)

			case "tcp":
				switch dest.Mode {
				case "server":
					srv := network.NewServer(dest.Address, log.WithComponent("edi.tcp.server"))
					wg.Add(1)
					go func(s *network.Server) {
						defer wg.Done()
						if err := s.Start(ctx); err != nil && err != context.Canceled {
							log.Error("EDI TCP server error", logger.Error(err))
						}
					}(srv)
					loop.ediSenders = append(loop.ediSenders, broadcastSender{s: srv})

				default:
					cli := network.NewClient(dest.Address, log.WithComponent("edi.tcp.client"))
					wg.Add(1)
					go func(c *network.Client) {
						defer wg.Done()
						if err := c.Start(ctx); err != nil && err != context.Canceled {
							log.Error("EDI TCP client error", logger.Error(err))
						}
					}(cli)
					loop.ediSenders = append(loop.ediSenders, cli)
				}

			default:
				log.Warn("Unknown EDI destination transport", logger.String("transport", dest.Transport))
			}
		}
		log.Info("EDI output enabled", logger.Int("destinations", len(loop.ediSenders)))
	}

	var auditRepo *database.AuditRepository
	if cfg.Database.Enabled {
		db, err := database.NewDB(database.Config{Path: cfg.Database.Path}, log.WithComponent("database"))
		if err != nil {
			log.Error("Failed to initialize database", logger.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		auditRepo = database.NewAuditRepository(db.GetDB())
		log.Info("Database initialized", logger.String("path", cfg.Database.Path))
	}

	stats := &statsAdapter{collector: collector, store: store, started: time.Now()}

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := metrics.NewPrometheusServer(
				metrics.PrometheusConfig{
					Enabled: cfg.Metrics.Prometheus.Enabled,
					Port:    cfg.Metrics.Prometheus.Port,
					Path:    cfg.Metrics.Prometheus.Path,
				},
				collector,
				log.WithComponent("metrics"),
			)
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Prometheus metrics server error", logger.Error(err))
			}
		}()
		log.Info("Prometheus metrics server started",
			logger.Int("port", cfg.Metrics.Prometheus.Port),
			logger.String("path", cfg.Metrics.Prometheus.Path))
	}

	if cfg.Remote.Enabled {
		auth, err := remote.NewAuthenticator(cfg.Remote.Password, cfg.Remote.PasswordHash)
		if err != nil {
			log.Error("Invalid remote control credentials", logger.Error(err))
			os.Exit(1)
		}

		var auditSink remote.AuditSink
		if auditRepo != nil {
			auditSink = auditSinkAdapter{repo: auditRepo}
		}
		audit := remote.NewAuditLogger(log.WithComponent("remote.audit"), auditSink)

		dispatcher := remote.NewDispatcher(store, log.WithComponent("remote"), logReg).
			WithStatistics(remoteStatsProvider{a: stats}).
			WithInputStatus(inputStatusAdapter{monitors: inputs.monitors}).
			WithCarousels(carouselRegistryAdapter{store: store, carousels: inputs.carousels}).
			WithLabels(labelStoreAdapter{store: store, dls: inputs.dls}).
			WithAnnouncements(announcer)

		if cfg.Remote.ZMQEndpoint != "" {
			zmqSrv := remote.NewZMQServer(cfg.Remote.ZMQEndpoint, dispatcher, auth, audit, log)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := zmqSrv.Start(ctx); err != nil && err != context.Canceled {
					log.Error("ZMQ remote control error", logger.Error(err))
				}
			}()
			log.Info("ZMQ remote control listening", logger.String("endpoint", cfg.Remote.ZMQEndpoint))
		}

		if cfg.Remote.TelnetAddr != "" {
			telnetSrv := remote.NewTelnetServer(cfg.Remote.TelnetAddr, dispatcher, auth, audit, log)
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := telnetSrv.Start(ctx); err != nil && err != context.Canceled {
					log.Error("Telnet remote control error", logger.Error(err))
				}
			}()
			log.Info("Telnet remote control listening", logger.String("addr", cfg.Remote.TelnetAddr))
		}
	}

	if cfg.Web.Enabled {
		webServer := web.NewServer(cfg.Web, log.WithComponent("web")).
			WithStatistics(webStatsProvider{a: stats}).
			WithEnsemble(ensembleProvider{store: store})
		if auditRepo != nil {
			webServer = webServer.WithAuditRepo(auditRepo)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Web server error", logger.Error(err))
			}
		}()
		log.Info("Web server started",
			logger.String("host", cfg.Web.Host),
			logger.Int("port", cfg.Web.Port))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.Run(ctx)
	}()

	log.Info("dabmux initialized",
		logger.String("label", ens.Label.Text),
		logger.Int("services", len(ens.Services)),
		logger.Int("subchannels", len(ens.Subchannels)))

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.String("signal", sig.String()))

	cancel()
	inputs.Close()
	if loop.sink != nil {
		if err := loop.sink.Close(); err != nil {
			log.Error("Failed to close ETI output", logger.Error(err))
		}
	}

	wg.Wait()
	log.Info("dabmux stopped")
}
