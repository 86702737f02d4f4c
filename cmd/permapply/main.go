// Command permapply stores a permission table from a YAML file as the new latest
// snapshot and prints its id. Running servers pick it up through the configured notifier.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/logger"
	"docvault/internal/permission"
)

var (
	flagFile = flag.String("f", "permissions.yml", "path to the yml permission table")
	flagHelp = flag.Bool("h", false, "show help and exit")
)

func main() {
	flag.Parse()
	if *flagHelp {
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Location()).Named("permapply")
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(*flagFile)
	if err != nil {
		log.Fatal("can't open permission file", zap.Error(err))
	}
	table, err := permission.ParseTableYAML(data)
	if err != nil {
		log.Fatal("can't parse permission file", zap.Error(err))
	}

	var db *sql.DB
	if cfg.Permission.Store == "" || cfg.Permission.Store == "postgres" {
		if db, err = database.NewPostgres(ctx, cfg.Database); err != nil {
			log.Fatal("can't connect to database", zap.Error(err))
		}
		defer db.Close()
	}

	store, closeStore, err := permission.OpenStore(ctx, cfg, db)
	if err != nil {
		log.Fatal("can't open permission store", zap.Error(err))
	}
	defer closeStore(ctx)

	notifier, err := permission.NewRedisNotifier(ctx, cfg.Permission.RedisURL, cfg.Permission.Channel, log)
	if err != nil {
		log.Fatal("can't connect to redis", zap.Error(err))
	}
	var opts []permission.ServiceOption
	if notifier != nil {
		defer notifier.Close()
		opts = append(opts, permission.WithNotifier(notifier))
	}

	svc := permission.NewService(store, permission.NewCache(store, log, nil), log, opts...)
	snap, err := svc.Insert(ctx, table)
	if err != nil {
		log.Fatal("can't save permission table", zap.Error(err))
	}
	fmt.Println(snap.ID)
}
