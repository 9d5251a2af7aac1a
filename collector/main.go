package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmcdole/gofeed"
	"github.com/segmentio/kafka-go"

	"github.com/market-pulse/backend/internal/config"
	"github.com/market-pulse/backend/internal/logger"
	"github.com/market-pulse/backend/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func main() {
	_ = godotenv.Load()

	log := logger.New("collector")
	cfg, err := config.LoadCollector()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic,
		MaxAttempts: 3,
	})
	defer writer.Close()

	parser := gofeed.NewParser()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log.Info("collector started",
		slog.String("topic", cfg.KafkaTopic),
		slog.Int("feeds", len(cfg.Feeds)),
		slog.Duration("interval", cfg.PollInterval),
	)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	// Poll once on start, then on every tick.
	runOnce(ctx, log, parser, writer, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, parser, writer, cfg)
		}
	}
}

// runOnce polls every configured feed. One broken feed never stops the
// cycle; its failure is logged and the loop moves on.
func runOnce(ctx context.Context, log *slog.Logger, parser *gofeed.Parser, writer messageWriter, cfg *config.Collector) {
	total := 0
	healthy := 0

	for _, feedURL := range cfg.Feeds {
		if ctx.Err() != nil {
			return
		}

		fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		feed, err := parser.ParseURLWithContext(feedURL, fetchCtx)
		cancel()
		if err != nil {
			log.Warn("fetch feed failed", slog.String("feed", feedURL), slog.Any("err", err))
			continue
		}

		published := 0
		for _, item := range feed.Items {
			raw, ok := convertItem(item, feedURL)
			if !ok {
				continue
			}

			payload, err := json.Marshal(raw)
			if err != nil {
				log.Warn("marshal item", slog.String("feed", feedURL), slog.Any("err", err))
				continue
			}

			if err := writer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(raw.URL),
				Value: payload,
			}); err != nil {
				log.Error("publish item", slog.String("feed", feedURL), slog.Any("err", err))
				continue
			}
			published++
		}

		healthy++
		total += published
		log.Info("feed polled", slog.String("feed", feedURL), slog.Int("published", published))
	}

	log.Info("poll cycle completed",
		slog.Int("feeds_ok", healthy),
		slog.Int("feeds_total", len(cfg.Feeds)),
		slog.Int("items", total),
	)
}

// convertItem maps a feed entry to the intake payload. Entries without
// a title are dropped; every other field is best effort.
func convertItem(item *gofeed.Item, feedURL string) (models.RawNews, bool) {
	if item == nil {
		return models.RawNews{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return models.RawNews{}, false
	}

	body := strings.TrimSpace(item.Content)
	if body == "" {
		body = strings.TrimSpace(item.Description)
	}

	published := strings.TrimSpace(item.Published)
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC().Format(time.RFC3339)
	}

	category := ""
	if len(item.Categories) > 0 {
		category = strings.TrimSpace(item.Categories[0])
	}

	return models.RawNews{
		Title:       title,
		Body:        body,
		Summary:     strings.TrimSpace(item.Description),
		PublishedAt: published,
		Source:      feedURL,
		Category:    category,
		URL:         strings.TrimSpace(item.Link),
	}, true
}
