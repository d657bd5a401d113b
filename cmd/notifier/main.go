package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"animehub/internal/anime"
	"animehub/internal/discord"
	"animehub/internal/dispatch"
	"animehub/internal/matcher"
	"animehub/internal/release"
	"animehub/internal/stream"
	"animehub/internal/subscription"
	"animehub/pkg/database"
	"animehub/pkg/models"
	"animehub/pkg/utils"
)

func main() {
	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db, dbCfg.SchemaPath); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Subscription index, loaded once then kept fresh by the change log.
	index := subscription.NewIndex()
	repo := subscription.NewRepo(db)
	syncCfg := utils.LoadSyncConfig()
	syncer := subscription.NewSyncer(repo, index, syncCfg.Interval, syncCfg.MaxFailures)
	if err := syncer.Load(ctx); err != nil {
		log.Fatalf("initial subscription load failed: %v", err)
	}

	// Delivery side: dedup records, Discord client, worker pool.
	dispatchCfg := utils.LoadDispatchConfig()
	records := dispatch.NewRecordStore(dispatchCfg.DedupTTL)
	go records.Run(ctx, dispatchCfg.TrimInterval)

	chat := discord.New(utils.LoadDiscordConfig())
	animeRepo := anime.NewRepo(db)

	cleanup := func(sub models.Subscription, err error) {
		log.Printf("[notifier] subscription %s (channel %s) permanently undeliverable: %v", sub.ID, sub.ChannelID, err)
	}

	streamCfg := utils.LoadStreamConfig()
	d := dispatch.NewDispatcher(chat, animeRepo, records, dispatchCfg.Workers, streamCfg.QueueSize, cleanup)
	d.Start()

	// Intake side: catalog stream feeding a bounded queue.
	queue := make(chan release.Announcement, streamCfg.QueueSize)
	client := stream.New(streamCfg)
	m := matcher.New(index)

	errCh := make(chan error, 2)
	go func() { errCh <- client.Run(ctx, queue) }()
	go func() { errCh <- syncer.Run(ctx) }()

	// The intake loop is joined before Drain so an announcement taken off the
	// queue always finishes fanning its matches out to the workers.
	intakeDone := make(chan struct{})
	go func() {
		defer close(intakeDone)
		for {
			select {
			case <-ctx.Done():
				return
			case ann := <-queue:
				for _, match := range m.Match(ann) {
					d.Enqueue(match)
				}
			}
		}
	}()

	log.Printf("[notifier] running (feed %s, %d workers)", streamCfg.FeedURL, dispatchCfg.Workers)

	var exitErr error
	select {
	case <-ctx.Done():
		log.Println("[notifier] shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			exitErr = err
			log.Printf("[notifier] fatal: %v", err)
		}
	}
	stop()
	<-intakeDone

	log.Println("[notifier] draining deliveries")
	d.Drain(dispatchCfg.DrainGrace)
	log.Println("[notifier] stopped")

	if exitErr != nil {
		if errors.Is(exitErr, stream.ErrUnauthorized) {
			log.Fatalf("feed rejected credentials, fix ANIMEHUB_FEED_URL or the token: %v", exitErr)
		}
		log.Fatalf("exited with error: %v", exitErr)
	}
}
