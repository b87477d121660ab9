package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasknest/tasknest/broker"
	"tasknest/tasknest/config"
	"tasknest/tasknest/database"
	"tasknest/tasknest/middleware"
	"tasknest/tasknest/routes"
	"tasknest/tasknest/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Broker is optional: task events are best-effort and the API keeps
	// working without them.
	var publisher broker.Publisher
	var consumer *broker.Consumer
	if cfg.BrokerEnabled {
		producer, err := broker.NewProducer(cfg.NatsURL)
		if err != nil {
			log.Printf("Warning: failed to connect to NATS: %v", err)
			log.Println("The application will continue without task event publishing")
		} else {
			publisher = producer
			defer producer.Close()

			consumer, err = broker.NewConsumer(cfg.NatsURL)
			if err != nil {
				log.Printf("Warning: failed to start NATS consumer: %v", err)
				consumer = nil
			} else {
				defer consumer.Close()
			}
		}
	}

	webSocketService := services.NewWebSocketService()
	webSocketService.Start()
	defer webSocketService.Stop()

	if consumer != nil {
		if err := consumer.Subscribe(broker.TaskEventsSubject, webSocketService.BroadcastMessage); err != nil {
			log.Printf("Warning: failed to subscribe to task events: %v", err)
		}
	}

	// A broken identity provider aborts startup; auth never degrades to
	// pass-through.
	authenticator, err := services.NewAuthenticator(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize authentication: %v", err)
	}
	if authenticator.Enabled() {
		log.Println("Authentication is enabled")
	} else {
		log.Println("Authentication is disabled, running in single-tenant mode")
	}

	taskService := services.NewTaskService(publisher, time.Duration(cfg.DBTimeoutSecs)*time.Second)

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	routes.RegisterHealthRoutes(router)
	routes.RegisterTaskRoutes(router, db, taskService, authenticator)
	routes.RegisterWebSocketRoutes(router, webSocketService, authenticator)
	routes.RegisterStaticRoutes(router, cfg.StaticDir)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		if consumer != nil {
			consumer.Close()
		}
		os.Exit(0)
	}()

	log.Printf("API server is running on port %s", cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
