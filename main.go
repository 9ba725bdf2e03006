package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/CivicLens/BillboardGuard/app/controllers"
	"github.com/CivicLens/BillboardGuard/app/repository"
	"github.com/CivicLens/BillboardGuard/internal/pkg/blobstore"
	"github.com/CivicLens/BillboardGuard/internal/pkg/cache"
	"github.com/CivicLens/BillboardGuard/internal/pkg/classifier"
	"github.com/CivicLens/BillboardGuard/internal/pkg/database"
	"github.com/CivicLens/BillboardGuard/internal/pkg/env"
	"github.com/CivicLens/BillboardGuard/internal/pkg/jobqueue"
	"github.com/CivicLens/BillboardGuard/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// Stop workers before the process exits so in-flight analyses finish.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fiberlog.Info("[App] Shutting down")
		jobqueue.GetManager().Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	classifierCfg, err := classifier.LoadConfig()
	if err != nil {
		log.Fatalf("classifier config: %v", err)
	}
	classifierClient := classifier.NewClient(classifierCfg)

	blobCfg, err := blobstore.LoadConfig()
	if err != nil {
		log.Fatalf("blob store config: %v", err)
	}
	blobClient, err := blobstore.NewClient(blobCfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	controllers.SetupReportPipeline(blobClient, blobCfg)

	processor := jobqueue.NewReportProcessor(repository.GetGlobalRepositories(), classifierClient)
	jobqueue.InitManager(processor).Start()

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024,
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
