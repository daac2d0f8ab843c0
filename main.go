package main

import (
	"context"

	"github.com/filenest/filenest/config"
	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/routes"
	"github.com/filenest/filenest/services"
	"github.com/filenest/filenest/storage"
	"github.com/filenest/filenest/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.Account{}, &models.SessionToken{}, &models.FileRecord{})

	blobs, err := storage.NewDiskStore(cfg.StorageDir)
	if err != nil {
		utils.Sugar.Fatalf("failed to initialize blob store: %v", err)
	}

	// First boot creates the unlimited root account and prints its
	// credentials once.
	identity := services.NewIdentityService(db, blobs, cfg.DefaultMaxStorage, cfg.DisableSignup)
	if err := identity.BootstrapRoot(context.Background()); err != nil {
		utils.Sugar.Fatalf("failed to bootstrap root account: %v", err)
	}

	r := routes.SetupRouter(db, blobs)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
