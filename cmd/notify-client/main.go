package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weddinghub/internal/common"
	"weddinghub/internal/config"
	"weddinghub/internal/identity"
	"weddinghub/internal/notify"
	"weddinghub/internal/stream"

	"github.com/joho/godotenv"
)

// notify-client is the runnable embodiment of the subscription core: it
// resolves an identity from NOTIFY_TOKEN, fetches history once, then follows
// the live stream and prints each accepted notification with its routed
// destination.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token := os.Getenv("NOTIFY_TOKEN")
	resolver := identity.NewResolver([]byte(cfg.Auth.JWTSecret))
	if resolver.Resolve(token) == nil {
		log.Fatal("NOTIFY_TOKEN is missing or does not decode to an identity")
	}

	client := stream.NewClient(cfg.Stream.BaseURL, &http.Client{}, func() string {
		return token
	})

	manager := notify.NewManager(resolver, client, nil)
	manager.OnNotification(func(n common.Notification) {
		log.Printf("notification %d [%s] %q -> %s", n.ID, n.Type, n.Title, notify.Route(n))
	})
	manager.OnError(func(err error) {
		log.Printf("subscription error: %v", err)
	})

	// one-shot historical fetch, merged under the live list
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	historical, err := client.History(ctx, cfg.Stream.HistoryLimit)
	cancel()
	if err != nil {
		log.Printf("history fetch failed, continuing live-only: %v", err)
	}

	manager.Start()
	manager.SetCredential(token)

	for _, n := range manager.Store().Merged(historical) {
		log.Printf("history %d [%s] %q read=%v", n.ID, n.Type, n.Title, n.IsRead)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stopping subscription...")
	manager.Stop()
	log.Println("Client stopped")
}
