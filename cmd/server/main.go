package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/database"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/forwarder"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/identity"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/provider"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/repository"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/rooms"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/server"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg, os.Args[2:]); err != nil {
			logrus.WithError(err).Fatal("migration failed")
		}
		return
	}

	if err := run(cfg); err != nil {
		logrus.WithError(err).Fatal("gateway exited")
	}
}

func runMigrate(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: gateway migrate [up|down|status] [steps]")
	}
	switch args[0] {
	case "up":
		return database.MigrateUp(cfg.DatabaseURL)
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(cfg.DatabaseURL, steps)
	case "status":
		return database.MigrateStatus(cfg.DatabaseURL)
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	sites, err := config.LoadSites(cfg.SitesFile, cfg.DefaultSite)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}
	table, err := rooms.Load(cfg.RoomsFile)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	uow := repository.NewUnitOfWorkFactory(db)
	users := repository.NewUserRepository(db)
	codec := identity.NewCodec(sites, service.NewAccountDirectory(users))

	wallet := service.NewWalletService(sites, codec, uow)
	launch := service.NewLaunchService(sites, codec, table, provider.NewClient(), uow, cfg.ProviderID)

	srv := server.New(cfg, sites, wallet, launch, forwarder.NewClient(), users)
	return srv.Run()
}
