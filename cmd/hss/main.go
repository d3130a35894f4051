// Command hss runs the Home Subscriber Server: it loads the process
// configuration, wires the subscriber store and counters backends,
// and accepts Diameter S6a/S6d peer connections from MMEs and SGSNs.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/protei/hss/internal/config"
	"github.com/protei/hss/internal/diameter"
	"github.com/protei/hss/internal/logger"
	"github.com/protei/hss/internal/metrics"
	"github.com/protei/hss/internal/peer"
	"github.com/protei/hss/internal/s6a"
	"github.com/protei/hss/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the process YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load configuration", err, "path", *configPath)
	}

	if err := logger.Init(logger.Config{
		Path:       cfg.Logging.FilePath,
		Level:      cfg.Logging.Level,
		Format:     consoleOrJSON(cfg.Logging.Console),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		logger.Fatal("init logger", err)
	}
	log := logger.Get().WithComponent("main")

	subscriberStore, err := buildStore(cfg.Store.DSN)
	if err != nil {
		log.Fatal("build subscriber store", err)
	}

	counters := buildCounters(cfg.Metrics.DSN)

	manager := peer.NewManager()
	router := peer.NewRouter()

	env := &s6a.Env{
		LocalHost:  cfg.Node.Hostname,
		LocalRealm: cfg.Node.Realm,
		Store:      subscriberStore,
		Counters:   counters,
		CLR:        manager,
	}
	registerHandlers(router, env)

	identity := peer.Identity{
		Hostname:       cfg.Node.Hostname,
		Realm:          cfg.Node.Realm,
		ApplicationIDs: cfg.Node.ApplicationIDs,
		VendorID:       cfg.Node.VendorID,
		HostIPs:        resolveListenIPs(cfg.Node.ListenAddress),
		ProductName:    "hss",
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	listener, err := peer.Listen(cfg.Node.ListenTransport, cfg.Addr())
	if err != nil {
		log.Fatal("listen", err, "addr", cfg.Addr())
	}
	defer listener.Close()
	log.Info("listening for diameter peers", "addr", cfg.Addr())

	go acceptLoop(ctx, listener, identity, router, counters, manager, log)
	dialConfiguredPeers(ctx, cfg.Peers, identity, router, counters, manager, log)

	<-ctx.Done()
	log.Info("shutting down")
}

// dialConfiguredPeers originates an outbound connection for every peer
// table entry that names a dial address, so this HSS can also act as
// the initiator (CER-first) toward peers that only accept outbound
// connections rather than dialing in themselves.
func dialConfiguredPeers(ctx context.Context, peers []config.PeerConfig, identity peer.Identity, router *peer.Router, counters metrics.Counters, manager *peer.Manager, log *logger.Logger) {
	for _, pc := range peers {
		if pc.DialAddr == "" {
			continue
		}
		go dialAndServe(ctx, pc, identity, router, counters, manager, log)
	}
}

func dialAndServe(ctx context.Context, pc config.PeerConfig, identity peer.Identity, router *peer.Router, counters metrics.Counters, manager *peer.Manager, log *logger.Logger) {
	conn, err := peer.Dial(pc.Transport, pc.DialAddr)
	if err != nil {
		log.Warn("dial peer failed", "hostname", pc.Hostname, "dial_address", pc.DialAddr, "error", err.Error())
		return
	}
	p := peer.New(conn, identity, router, counters, manager, true)
	if err := p.Serve(ctx); err != nil {
		log.Warn("outbound peer connection ended", "hostname", pc.Hostname, "error", err.Error())
	}
}

func acceptLoop(ctx context.Context, listener net.Listener, identity peer.Identity, router *peer.Router, counters metrics.Counters, manager *peer.Manager, log *logger.Logger) {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Error("accept", err)
				return
			}
		}
		p := peer.New(conn, identity, router, counters, manager, false)
		go func() {
			if err := p.Serve(ctx); err != nil {
				log.Warn("peer connection ended", "remote", conn.RemoteAddr().String(), "error", err.Error())
			}
		}()
	}
}

func registerHandlers(router *peer.Router, env *s6a.Env) {
	router.Handle(diameter.ApplicationS6a, diameter.CodeAuthenticationInfo, func(req *diameter.Message) *diameter.Message {
		return env.HandleAIR(context.Background(), req)
	})
	router.Handle(diameter.ApplicationS6a, diameter.CodeUpdateLocation, func(req *diameter.Message) *diameter.Message {
		return env.HandleULR(context.Background(), req)
	})
	router.Handle(diameter.ApplicationS6a, diameter.CodePurgeUE, func(req *diameter.Message) *diameter.Message {
		return env.HandlePUR(context.Background(), req)
	})
	router.Handle(diameter.ApplicationS6a, diameter.CodeNotify, func(req *diameter.Message) *diameter.Message {
		return env.HandleNOR(context.Background(), req)
	})
}

func buildStore(dsn string) (store.SubscriberStore, error) {
	if dsn == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewPostgresStoreFromDSN(dsn)
}

func buildCounters(dsn string) metrics.Counters {
	if dsn == "" {
		return metrics.NoopCounters{}
	}
	return metrics.NewPrometheusCounters(nil)
}

func consoleOrJSON(console bool) string {
	if console {
		return "console"
	}
	return "json"
}

func resolveListenIPs(listenAddress string) []net.IP {
	if listenAddress == "" || listenAddress == "0.0.0.0" || listenAddress == "::" {
		return nil
	}
	if ip := net.ParseIP(listenAddress); ip != nil {
		return []net.IP{ip}
	}
	return nil
}
