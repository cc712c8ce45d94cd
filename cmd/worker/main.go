package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"qrollcall/internal/config"
	"qrollcall/internal/mailer"
	"qrollcall/internal/queue"
	"qrollcall/internal/store"
)

// Worker drains the mail queue and pushes messages through the mail relay.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "qrollcall:mail")
	}

	relay := mailer.New(cfg.MailRelayURL, cfg.MailSkip)
	if !cfg.MailSkip {
		if err := relay.Health(ctx); err != nil {
			log.Printf("WARNING: mail relay not available: %v", err)
			log.Println("Worker will retry delivery when jobs arrive")
		} else {
			log.Println("Mail relay connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for mail jobs...")
	for msg := range messages {
		if msg.Type != "mail" {
			continue
		}

		var m mailer.Mail
		if err := json.Unmarshal(msg.Body, &m); err != nil {
			log.Printf("bad mail job: %v", err)
			continue
		}
		if err := relay.Send(ctx, m); err != nil {
			log.Printf("mail send to %s failed: %v", m.To, err)
			continue
		}
		log.Printf("mail sent to %s", m.To)
	}

	log.Println("worker stopped")
}
