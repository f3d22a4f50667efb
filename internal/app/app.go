package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abrezinsky/tokenvote/internal/config"
	"github.com/abrezinsky/tokenvote/internal/handlers"
	"github.com/abrezinsky/tokenvote/internal/logger"
	"github.com/abrezinsky/tokenvote/internal/metrics"
	"github.com/abrezinsky/tokenvote/internal/repository"
	"github.com/abrezinsky/tokenvote/internal/services"
	"github.com/abrezinsky/tokenvote/internal/websocket"
)

// App holds all application dependencies
type App struct {
	cfg      *config.Config
	log      logger.Logger
	repo     *repository.Repository
	hub      *websocket.Hub
	handlers *handlers.Handlers
	results  *services.ResultsService
	clock    services.Clock
	baseURL  string
}

// New creates and initializes a new application instance
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	repo, err := repository.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	clock := services.SystemClock()
	campaigns := services.NewCampaignService(log, repo, clock, m)
	voting := services.NewVotingService(log, repo, clock, m)
	results := services.NewResultsService(log, repo, clock, m, cfg.AutoAdvance)
	ledger := services.NewLedgerService(log, repo, clock)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(realNetworkProvider{}, cfg.ListenAddress)
	}
	campaigns.SetBaseURL(baseURL)

	hub := websocket.New(log)
	campaigns.SetBroadcaster(hub)
	results.SetBroadcaster(hub)

	h := handlers.New(campaigns, voting, results, ledger, clock, repo, log)
	h.Events = http.HandlerFunc(hub.ServeWs)
	h.Metrics = metricsHandler

	if cfg.HTTPLogging {
		log.EnableHTTPLogging()
	}

	return &App{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		hub:      hub,
		handlers: h,
		results:  results,
		clock:    clock,
		baseURL:  baseURL,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close releases the database
func (a *App) Close() error {
	return a.repo.Close()
}

// Sweep closes every scenario whose deadline has passed
func (a *App) Sweep(ctx context.Context) ([]string, error) {
	return a.results.CloseExpired(ctx, a.clock.Now())
}

// RunSweeper runs Sweep on the configured interval until ctx is cancelled
func (a *App) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Debug("Deadline sweeper stopped")
			return
		case <-ticker.C:
			if _, err := a.Sweep(ctx); err != nil && ctx.Err() == nil {
				a.log.Error("Deadline sweep failed", "error", err)
			}
		}
	}
}

// Run listens on the configured address and serves until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.ListenAddress, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the event hub, the deadline sweeper and the HTTP server on ln.
// When ctx is cancelled the server drains in-flight requests for up to the
// shutdown timeout before the background goroutines are stopped.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	bgCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a.hub.Run(bgCtx)
	}()
	go func() {
		defer wg.Done()
		a.RunSweeper(bgCtx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	a.log.Info("Server starting", "addr", ln.Addr().String(), "base_url", a.baseURL)

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down", "timeout", a.cfg.ShutdownTimeout)
	shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer stop()
	err := srv.Shutdown(shutdownCtx)
	if serr := <-serveErr; serr != nil && !errors.Is(serr, http.ErrServerClosed) && err == nil {
		err = serr
	}
	return err
}

// defaultBaseURL builds a LAN-reachable URL for invite links from the
// listen address
func defaultBaseURL(provider networkProvider, listenAddress string) string {
	host, port, err := net.SplitHostPort(listenAddress)
	if err != nil {
		return "http://" + listenAddress
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = getPreferredIP(provider)
	}
	return "http://" + net.JoinHostPort(host, port)
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

// realNetworkProvider implements networkProvider using actual net package
type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring
// private ranges and falling back to localhost
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
