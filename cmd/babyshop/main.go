package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/desoftlabs/babyshop/config"
	"github.com/desoftlabs/babyshop/internal/adminapi"
	"github.com/desoftlabs/babyshop/internal/app"
	"github.com/desoftlabs/babyshop/internal/cache"
	"github.com/desoftlabs/babyshop/internal/notify"
	"github.com/desoftlabs/babyshop/internal/order"
	"github.com/desoftlabs/babyshop/internal/shopapi"
	"github.com/desoftlabs/babyshop/internal/storage"
	"github.com/desoftlabs/babyshop/internal/webserver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	conffile = flag.String("c", "babyshop.yml", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showver  = flag.Bool("v", false, "print version and exit")
)

var version = "dev"

func main() {
	flag.Parse()

	if *showver {
		fmt.Println("babyshop", version)
		return
	}

	cfg := config.LoadConfig(*conffile)
	cfg.InitDirs()

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	bus := EventBus.New()
	hub, err := notify.NewHub(bus)
	if err != nil {
		zap.S().Fatalf("notification hub init failed: %v", err)
	}
	defer hub.Close()

	store, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		zap.S().Fatalf("object storage init failed: %v", err)
	}

	var notifiers []notify.OrderNotifier
	if wa := notify.NewWhatsApp(cfg.Notify); wa.Enabled() {
		notifiers = append(notifiers, wa)
	}
	if m := notify.NewMailer(cfg.Notify); m.Enabled() {
		notifiers = append(notifiers, m)
	}

	svc := order.NewService(application.DB(), bus, notifiers...)

	var cc cache.Cache
	if cfg.Cache.Enabled {
		cc = cache.NewRedisCache(cfg.Cache.Addr, cfg.System.Appid)
	}

	webserver.Init(application)
	if ds, isDisk := store.(*storage.DiskStore); isDisk {
		webserver.ServeStatic("/uploads", ds.Dir())
	}
	adminapi.InitRouter(application, store, svc, cc)
	shopapi.InitRouter(application, svc, cc, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(webserver.Listen)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down")
		return webserver.Shutdown()
	})

	if err := g.Wait(); err != nil {
		zap.S().Errorf("server exited: %v", err)
	}
}
