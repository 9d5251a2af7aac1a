package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/market-pulse/backend/internal/analysis"
	"github.com/market-pulse/backend/internal/config"
	"github.com/market-pulse/backend/internal/dedupe"
	"github.com/market-pulse/backend/internal/elasticsearch"
	"github.com/market-pulse/backend/internal/logger"
	"github.com/market-pulse/backend/internal/models"
	"github.com/market-pulse/backend/internal/sentiment"
	"github.com/market-pulse/backend/internal/textnorm"
)

type articleIndexer interface {
	IndexArticle(ctx context.Context, article models.Article) error
}

func main() {
	_ = godotenv.Load()

	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ensemble, err := analysis.BuildEnsemble(cfg.Analysis, log)
	if err != nil {
		log.Error("init sentiment ensemble", slog.Any("err", err))
		os.Exit(1)
	}

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
		slog.String("ai_provider", cfg.AIProvider),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, esClient, cache, ensemble, cfg, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			// Send to DLQ with error context, retry with backoff
			dlqMsg := kafka.Message{
				Value: msg.Value,
				Headers: append(msg.Headers,
					kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
					kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
					kafka.Header{Key: "error", Value: []byte(err.Error())},
					kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
				),
			}

			// Retry DLQ write with exponential backoff
			dlqSuccess := false
			for attempt := 0; attempt < 5; attempt++ {
				if dlqErr := dlqWriter.WriteMessages(ctx, dlqMsg); dlqErr == nil {
					dlqSuccess = true
					log.Info("message sent to DLQ",
						slog.Int("partition", msg.Partition),
						slog.Int64("offset", msg.Offset),
						slog.Int("attempt", attempt+1),
					)
					break
				} else {
					backoff := time.Duration(1<<uint(attempt)) * time.Second
					log.Warn("DLQ write failed, retrying",
						slog.Any("err", dlqErr),
						slog.Int("attempt", attempt+1),
						slog.Duration("backoff", backoff),
					)
					select {
					case <-time.After(backoff):
						// Continue to next attempt
					case <-ctx.Done():
						log.Info("context canceled during DLQ retry")
						return
					}
				}
			}

			// Only commit if DLQ write succeeded; otherwise skip commit and reprocess on restart
			if dlqSuccess {
				if err := reader.CommitMessages(ctx, msg); err != nil {
					log.Error("commit failed message to dlq", slog.Any("err", err))
				}
			} else {
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func processMessage(ctx context.Context, log *slog.Logger, indexer articleIndexer, cache *dedupe.Cache, ensemble *sentiment.Ensemble, cfg *config.Worker, msg kafka.Message) error {
	var payload models.RawNews
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return err
	}

	title := strings.TrimSpace(payload.Title)
	body := strings.TrimSpace(payload.Body)
	if title == "" && body == "" {
		return errors.New("empty payload")
	}

	// Generate title from body if missing
	if title == "" && body != "" {
		title = textnorm.GenerateTitleFromText(body, 10)
	}

	ts := parseTimestamp(payload.PublishedAt)
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	source := strings.TrimSpace(payload.Source)
	if source == "" {
		source = "unknown"
	}

	article := textnorm.Normalize(models.Article{
		Title:       title,
		Body:        body,
		Summary:     strings.TrimSpace(payload.Summary),
		PublishedAt: ts,
		Source:      source,
		Category:    strings.TrimSpace(payload.Category),
		URL:         strings.TrimSpace(payload.URL),
	})
	article.ID = textnorm.BuildDocumentID(article.CleanTitle, article.CleanBody, ts)
	article.Keywords = textnorm.ExtractKeywords(article.CleanTitle+" "+article.CleanBody, cfg.KeywordLimit, cfg.KeywordMinLength)

	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	if cache.IsSeen(article.ID) {
		log.Debug("duplicate article", slog.String("id", article.ID))
		return nil
	}

	article = ensemble.ScoreArticle(ctx, article)
	if article.Sentiment.Failed {
		log.Warn("all scorers failed, indexing neutral record", slog.String("id", article.ID))
	}

	if err := indexer.IndexArticle(ctx, article); err != nil {
		return err
	}

	cache.MarkSeen(article.ID)
	log.Info("indexed article",
		slog.String("id", article.ID),
		slog.String("title", article.Title),
		slog.String("label", string(article.Sentiment.Label)),
	)
	return nil
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
