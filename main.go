package main

import (
	"github.com/nasir-hacker-7/power.modz.hub/catalog"
	"github.com/nasir-hacker-7/power.modz.hub/config"
	"github.com/nasir-hacker-7/power.modz.hub/models"
	"github.com/nasir-hacker-7/power.modz.hub/routes"
	"github.com/nasir-hacker-7/power.modz.hub/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.ContentItem{}, &models.ProfileSettings{})

	store := catalog.NewGormStore(db)
	broker := catalog.NewBroker()

	r := routes.SetupRouter(db, store, broker)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
