// cmd/web/main.go
//
// Course viewer – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load config (conf/.env → conf/global.yaml → RESET_* env overrides).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Resolve vault: secret references, when the config carries any.
//
//  4. Open the GeoLite2 database if configured; lookups degrade to
//     IP-only without it.
//
//  5. Register YAML form definitions and point the view engine at the
//     application root.
//
//  6. Construct the session store, the backend proxy client, the OTP
//     flow, and the page components, then mount them: public components
//     at "/", app components under "/app" behind the auth gate.
//
//  7. Serve with hardened timeouts; SIGINT/SIGTERM drain via graceful
//     shutdown.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/reset/internal/api"
	"github.com/yanizio/reset/internal/component"
	"github.com/yanizio/reset/internal/config"
	"github.com/yanizio/reset/internal/form"
	"github.com/yanizio/reset/internal/logger"
	"github.com/yanizio/reset/internal/middleware"
	"github.com/yanizio/reset/internal/otp"
	"github.com/yanizio/reset/internal/requestinfo"
	"github.com/yanizio/reset/internal/server"
	"github.com/yanizio/reset/internal/session"
	"github.com/yanizio/reset/internal/vault"
	"github.com/yanizio/reset/internal/view"

	"github.com/yanizio/reset/components/auth"
	"github.com/yanizio/reset/components/courses"
	"github.com/yanizio/reset/components/home"
	"github.com/yanizio/reset/components/lessons"
	"github.com/yanizio/reset/components/profile"
)

// backendTimeout bounds every proxied call to the course backend.
const backendTimeout = 15 * time.Second

// shutdownGrace is how long in-flight requests get to finish on SIGTERM.
const shutdownGrace = 10 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	//
	// ── 1.  Config + logger ─────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	//
	// ── 2.  Secrets + GeoIP ─────────────────────────────────────────────
	//
	if config.HasVaultRefs(cfg) {
		vcli, err := vault.New(lg.Infof)
		if err != nil {
			lg.Fatalw("vault client", "err", err)
		}
		if err := config.ResolveSecrets(context.Background(), cfg, vcli); err != nil {
			lg.Fatalw("resolve secrets", "err", err)
		}
	}

	if cfg.GeoIP.DBPath != "" {
		if err := requestinfo.InitGeo(cfg.GeoIP.DBPath); err != nil {
			lg.Warnw("geoip disabled", "path", cfg.GeoIP.DBPath, "err", err)
		}
	}

	//
	// ── 3.  Views + forms ───────────────────────────────────────────────
	//
	view.SetRoot(cfg.Paths.Root)
	if err := form.RegisterForms(cfg.Paths.Root); err != nil {
		lg.Fatalw("register forms", "err", err)
	}

	//
	// ── 4.  Core services ───────────────────────────────────────────────
	//
	sessions, err := session.NewStore(cfg.Session.Secret, cfg.Production() || cfg.Session.Secure)
	if err != nil {
		lg.Fatalw("session store", "err", err)
	}

	hc := &http.Client{Timeout: backendTimeout}
	client := api.New(cfg.Backend.BaseURL, sessions, hc)
	flow := otp.NewFlow(otp.NewService(cfg.Backend.BaseURL, hc))

	component.Register(home.New(cfg.Backend.DefaultCourseID))
	component.Register(auth.New(sessions, flow))
	component.Register(courses.New(client, cfg.Backend.DefaultCourseID))
	component.Register(lessons.New(client))
	component.Register(profile.New(client))

	//
	// ── 5.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)

	r.Handle("/metrics", promhttp.Handler())

	for _, c := range component.ByArea(component.AreaPublic) {
		c.Routes(r)
	}
	r.Route("/app", func(app chi.Router) {
		app.Use(middleware.RequireUser(sessions))
		for _, c := range component.ByArea(component.AreaApp) {
			c.Routes(app)
		}
	})

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}

	//
	// ── 6.  Serve until signalled ───────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Infow("shutting down", "grace", shutdownGrace.String())
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		lg.Fatalw("server", "err", err)
	}
	lg.Infow("bye")
}
