package main

import (
	"context"

	"github.com/linkup-social/linkup/config"
	"github.com/linkup-social/linkup/models"
	"github.com/linkup-social/linkup/routes"
	"github.com/linkup-social/linkup/storage"
	"github.com/linkup-social/linkup/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	// Redis is optional; without it caching is skipped and revoked tokens are tracked in memory
	if rc := utils.InitRedis(cfg); rc != nil {
		defer rc.Close()
	}

	db := config.InitDatabase(models.All()...)

	var store storage.ObjectStore
	if cfg.StorageConfigured() {
		s3Store, err := storage.NewS3Store(context.Background(), cfg)
		if err != nil {
			utils.Sugar.Fatalf("object storage: %v", err)
		}
		store = s3Store
	} else {
		utils.Sugar.Warn("object storage not configured, keeping uploads in memory")
		store = storage.NewMemoryStore()
	}

	r := routes.SetupRouter(db, store)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
