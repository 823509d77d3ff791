// Grants or revokes administrator rights for a user id issued by the auth
// provider. Admins review uploads and receive upload notifications.
//
// Usage: go run scripts/grant_admin.go -user <id> [-revoke]

package main

import (
	"context"
	"flag"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/repository"
	"fst_cloud_backend/pkg/database"
	"fst_cloud_backend/pkg/logger"
	"log"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	userID := flag.String("user", "", "user id (JWT subject)")
	revoke := flag.Bool("revoke", false, "remove admin rights instead of granting them")
	configPath := flag.String("config", "configs/config.yaml", "config file")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("Failed to read config: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	logger.InitLogger(&cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	admins := repository.NewAdminRepository(db)
	ctx := context.Background()
	if *revoke {
		err = admins.Revoke(ctx, *userID)
	} else {
		err = admins.Grant(ctx, *userID)
	}
	if err != nil {
		logger.Log.Fatal("Failed to update admin rights", zap.String("userId", *userID), zap.Error(err))
	}

	logger.Log.Info("Admin rights updated", zap.String("userId", *userID), zap.Bool("admin", !*revoke))
}
