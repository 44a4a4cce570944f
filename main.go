package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dcode-github/property_dealer/backend/cache"
	"github.com/dcode-github/property_dealer/backend/config"
	"github.com/dcode-github/property_dealer/backend/images"
	"github.com/dcode-github/property_dealer/backend/middleware"
	"github.com/dcode-github/property_dealer/backend/routes"
	"github.com/dcode-github/property_dealer/backend/services"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func imageSink() images.Sink {
	client, err := config.InitMinio(config.C.Minio)
	if err != nil {
		log.Printf("Falling back to inline images: %v", err)
		return images.DataURLSink{}
	}
	if client == nil {
		return images.DataURLSink{}
	}
	return images.NewMinioSink(client, config.C.Minio.Bucket, config.C.Minio.PublicURL)
}

func setupRouter(deps routes.Deps) http.Handler {
	router := mux.NewRouter()
	routes.Routes(router, deps)

	router.Use(middleware.Recoverer(config.C.IsDevelopment()))
	router.Use(middleware.RequestLogger)
	router.Use(middleware.SecurityHeaders)

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   config.C.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return corsOptions.Handler(router)
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitJWT(config.C.JWT.Secret, config.C.JWT.Expiry)

	client, err := config.ConnectDB(config.C.Mongo.URI)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer config.CloseDBConnection(client)

	config.InitCollections(client, config.C.Mongo.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := config.EnsureIndexes(ctx); err != nil {
		log.Printf("Error creating indexes: %v", err)
	}
	cancel()

	redisClient, err := config.InitRedis(config.C.Redis.Addr, config.C.Redis.Password)
	if err != nil {
		log.Printf("Property cache disabled: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var verifier services.TokenVerifier
	if config.C.Firebase.ProjectID != "" {
		fv, err := services.NewFirebaseVerifier(context.Background(), config.C.Firebase.ProjectID, config.C.Firebase.JWKSURL)
		if err != nil {
			log.Printf("Phone-token login disabled: %v", err)
		} else {
			defer fv.Close()
			verifier = fv
		}
	} else {
		log.Println("FIREBASE_PROJECT_ID not set, phone-token login disabled")
	}

	users := store.NewUserStore(config.UserCollection)
	handler := setupRouter(routes.Deps{
		Auth:       services.NewAuthService(users, utils.LogSender{}, verifier),
		Users:      users,
		Properties: store.NewPropertyStore(config.PropertyCollection),
		Favorites:  store.NewFavoriteStore(config.FavoriteCollection),
		Chats:      store.NewChatStore(config.ChatCollection, config.MessageCollection),
		Cache:      cache.New(redisClient, config.C.Redis.TTL),
		Images: images.NewProcessor(images.Options{
			MaxSize: config.C.Image.MaxSizeBytes(),
			Quality: config.C.Image.Quality,
			Format:  config.C.Image.Format,
		}, imageSink()),
		RateLimit: config.C.RateLimit,
	})

	server := &http.Server{
		Addr:           ":" + config.C.Port,
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server running on port %s (%s)", config.C.Port, config.C.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
