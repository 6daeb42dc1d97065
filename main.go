package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"matchmaking_server/routes"
	"matchmaking_server/services"
	"matchmaking_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	ctx := context.Background()

	// Load matchmaking configuration
	cfg := services.LoadConfig()
	log.Printf("Config: bucketWidth=%d groupSize=%d sessionTTL=%s workers=%d",
		cfg.BucketWidth, cfg.GroupSize, cfg.SessionTTL, cfg.QueueWorkers)

	// Initialize Redis (ticket store + event bus) and DynamoDB (session store)
	log.Println("Initializing Redis client...")
	redisClient := services.InitializeRedisClient()
	ticketStore := &services.RedisTicketStore{Client: redisClient}
	bus := &services.RedisStreamBus{Client: redisClient}
	log.Println("Redis client initialized.")

	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	sessionStore := &services.DynamoSessionStore{Dynamo: dynamoService, Table: cfg.SessionsTable}
	log.Println("DynamoDB client initialized.")

	// Initialize Services
	formationService := &services.FormationService{Store: ticketStore, Bus: bus, Config: cfg}
	queueService := &services.QueueService{Store: ticketStore, Bus: bus, Formation: formationService, Config: cfg}
	sessionService := &services.SessionService{Sessions: sessionStore, Bus: bus, Config: cfg}

	// Drain buckets that filled while no worker was running
	if buckets, err := ticketStore.Buckets(ctx); err != nil {
		log.Printf("⚠️ Startup bucket sweep failed: %v", err)
	} else {
		for _, bucket := range buckets {
			if err := formationService.DrainBucket(ctx, bucket); err != nil {
				log.Printf("⚠️ Startup drain of bucket %d failed: %v", bucket, err)
			}
		}
	}

	// Start the enqueue consumers and the session materializer
	for i := 0; i < cfg.QueueWorkers; i++ {
		go func(worker int) {
			if err := queueService.RunEnqueueConsumer(ctx); err != nil {
				log.Printf("❌ Enqueue consumer %d stopped: %v", worker, err)
			}
		}(i)
	}
	go func() {
		if err := sessionService.RunMaterializer(ctx); err != nil {
			log.Printf("❌ Session materializer stopped: %v", err)
		}
	}()

	// Start the websocket gateway
	hub := socket.NewHub()
	go func() {
		if err := socket.RunSessionNotifier(ctx, bus, hub); err != nil {
			log.Printf("❌ Session notifier stopped: %v", err)
		}
	}()

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to the matchmaking server")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterQueueRoutes(r, queueService)
	routes.RegisterSessionRoutes(r, sessionService)
	r.HandleFunc("/ws", socket.Handler(hub)).Methods("GET")

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
