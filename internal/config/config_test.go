package config_test

import (
	"testing"
	"time"

	"github.com/market-pulse/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")
	t.Setenv("ANALYSIS_AI_PROVIDER", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "articles", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 1)
	require.Equal(t, "kafka:9092", cfg.KafkaBrokers[0])
	require.Equal(t, "news_raw", cfg.KafkaTopic)
	require.Equal(t, "sentiment-worker", cfg.KafkaConsumer)
	require.Equal(t, 0.1, cfg.PositiveThreshold)
	require.Equal(t, -0.1, cfg.NegativeThreshold)
	require.Equal(t, 30, cfg.Horizon)
	require.Equal(t, 7, cfg.MinSeriesDays)
	require.True(t, cfg.EnableLexicon)
	require.True(t, cfg.EnableIntensity)
	require.Equal(t, "none", cfg.AIProvider)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://localhost:9999")
	t.Setenv("ELASTICSEARCH_INDEX", "custom")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092,broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("KAFKA_CONSUMER_GROUP", "custom-group")
	t.Setenv("WORKER_KEYWORD_LIMIT", "12")
	t.Setenv("WORKER_KEYWORD_MIN_LEN", "5")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_BATCH_SIZE", "3")
	t.Setenv("WORKER_COMMIT_INTERVAL", "5s")
	t.Setenv("ANALYSIS_POS_THRESHOLD", "0.25")
	t.Setenv("ANALYSIS_NEG_THRESHOLD", "-0.25")
	t.Setenv("ANALYSIS_HORIZON", "14")
	t.Setenv("ANALYSIS_MIN_SERIES_DAYS", "5")
	t.Setenv("ANALYSIS_AI_PROVIDER", "custom")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9999", cfg.ElasticsearchAddr)
	require.Equal(t, "custom", cfg.ElasticsearchIndex)
	require.Len(t, cfg.KafkaBrokers, 2)
	require.Equal(t, "broker-a:29092", cfg.KafkaBrokers[0])
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, "custom-group", cfg.KafkaConsumer)
	require.Equal(t, 12, cfg.KeywordLimit)
	require.Equal(t, 5, cfg.KeywordMinLength)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.BatchSize)
	require.Equal(t, 5*time.Second, cfg.CommitInterval)
	require.Equal(t, 0.25, cfg.PositiveThreshold)
	require.Equal(t, -0.25, cfg.NegativeThreshold)
	require.Equal(t, 14, cfg.Horizon)
	require.Equal(t, 5, cfg.MinSeriesDays)
	require.Equal(t, "custom", cfg.AIProvider)
}

func TestLoadWorkerInvalidAnalysis(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"positive threshold must be positive", "ANALYSIS_POS_THRESHOLD", "-0.1"},
		{"negative threshold must be negative", "ANALYSIS_NEG_THRESHOLD", "0.1"},
		{"horizon must be positive", "ANALYSIS_HORIZON", "0"},
		{"min series days lower bound", "ANALYSIS_MIN_SERIES_DAYS", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.LoadWorker()
			require.Error(t, err)
		})
	}
}

func TestLoadWorkerRequiresScorer(t *testing.T) {
	t.Setenv("ANALYSIS_ENABLE_LEXICON", "false")
	t.Setenv("ANALYSIS_ENABLE_INTENSITY", "false")
	t.Setenv("ANALYSIS_AI_PROVIDER", "none")

	_, err := config.LoadWorker()
	require.Error(t, err)
}

func TestLoadCollector(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker:9092")
	t.Setenv("KAFKA_TOPIC", "raw")
	t.Setenv("COLLECTOR_FEEDS", "https://a.example/rss, https://b.example/rss")
	t.Setenv("COLLECTOR_POLL_INTERVAL", "5m")
	t.Setenv("COLLECTOR_FETCH_TIMEOUT", "10s")

	cfg, err := config.LoadCollector()
	require.NoError(t, err)

	require.Equal(t, []string{"broker:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "raw", cfg.KafkaTopic)
	require.Equal(t, []string{"https://a.example/rss", "https://b.example/rss"}, cfg.Feeds)
	require.Equal(t, 5*time.Minute, cfg.PollInterval)
	require.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestLoadCollectorRequiresFeeds(t *testing.T) {
	t.Setenv("COLLECTOR_FEEDS", "")

	_, err := config.LoadCollector()
	require.Error(t, err)
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_PAGE_SIZE", "15")
	t.Setenv("API_MAX_PAGE_SIZE", "200")
	t.Setenv("API_MAX_WINDOW_DOCS", "750")
	t.Setenv("ELASTICSEARCH_ADDR", "http://api-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 15, cfg.DefaultPage)
	require.Equal(t, 200, cfg.MaxPage)
	require.Equal(t, 750, cfg.MaxWindowDocs)
	require.Equal(t, "http://api-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
}

func TestLoadRetention(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("ELASTICSEARCH_INDEX", "ret-index")
	t.Setenv("RETENTION_CRON", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)

	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "ret-index", cfg.ElasticsearchIndex)
}
