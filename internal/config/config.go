package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Analysis holds the pipeline policy knobs shared by the worker and
// the API.
type Analysis struct {
	PositiveThreshold float64
	NegativeThreshold float64
	Horizon           int
	MinSeriesDays     int
	LexiconPath       string
	EnableLexicon     bool
	EnableIntensity   bool
	AIProvider        string
}

// Collector configures the RSS -> Kafka poller.
type Collector struct {
	KafkaBrokers []string
	KafkaTopic   string
	Feeds        []string
	PollInterval time.Duration
	FetchTimeout time.Duration
}

// Worker holds configuration for the Kafka -> Elasticsearch scorer.
type Worker struct {
	Common
	Analysis
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaConsumer    string
	KeywordLimit     int
	KeywordMinLength int
	DedupeCapacity   int
	DedupeTTL        time.Duration
	BatchSize        int
	CommitInterval   time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Analysis
	BindAddr      string
	DefaultPage   int
	MaxPage       int
	MaxWindowDocs int
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
	}
}

func loadAnalysis() (Analysis, error) {
	a := Analysis{
		PositiveThreshold: getFloat("ANALYSIS_POS_THRESHOLD", 0.1),
		NegativeThreshold: getFloat("ANALYSIS_NEG_THRESHOLD", -0.1),
		Horizon:           getInt("ANALYSIS_HORIZON", 30),
		MinSeriesDays:     getInt("ANALYSIS_MIN_SERIES_DAYS", 7),
		LexiconPath:       getEnv("ANALYSIS_LEXICON_PATH", ""),
		EnableLexicon:     getBool("ANALYSIS_ENABLE_LEXICON", true),
		EnableIntensity:   getBool("ANALYSIS_ENABLE_INTENSITY", true),
		AIProvider:        getEnv("ANALYSIS_AI_PROVIDER", "none"),
	}

	if a.PositiveThreshold <= 0 {
		return a, fmt.Errorf("ANALYSIS_POS_THRESHOLD must be positive")
	}
	if a.NegativeThreshold >= 0 {
		return a, fmt.Errorf("ANALYSIS_NEG_THRESHOLD must be negative")
	}
	if a.Horizon <= 0 {
		return a, fmt.Errorf("ANALYSIS_HORIZON must be positive")
	}
	if a.MinSeriesDays < 2 {
		return a, fmt.Errorf("ANALYSIS_MIN_SERIES_DAYS must be at least 2")
	}
	if !a.EnableLexicon && !a.EnableIntensity && a.AIProvider == "none" {
		return a, fmt.Errorf("at least one sentiment scorer must be enabled")
	}

	return a, nil
}

// LoadCollector builds a Collector config from environment variables.
func LoadCollector() (*Collector, error) {
	c := &Collector{
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "news_raw"),
		Feeds:        splitAndTrim(getEnv("COLLECTOR_FEEDS", "")),
		PollInterval: getDuration("COLLECTOR_POLL_INTERVAL", "15m"),
		FetchTimeout: getDuration("COLLECTOR_FETCH_TIMEOUT", "30s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if len(c.Feeds) == 0 {
		return nil, fmt.Errorf("COLLECTOR_FEEDS must contain at least one feed URL")
	}
	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("COLLECTOR_POLL_INTERVAL must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	analysis, err := loadAnalysis()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:           loadCommon(),
		Analysis:         analysis,
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "news_raw"),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "sentiment-worker"),
		KeywordLimit:     getInt("WORKER_KEYWORD_LIMIT", 8),
		KeywordMinLength: getInt("WORKER_KEYWORD_MIN_LEN", 4),
		DedupeCapacity:   getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:        getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:        getInt("WORKER_BATCH_SIZE", 10),
		CommitInterval:   getDuration("WORKER_COMMIT_INTERVAL", "2s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_MIN_LEN cannot be negative")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	analysis, err := loadAnalysis()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:        loadCommon(),
		Analysis:      analysis,
		BindAddr:      getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:   getInt("API_PAGE_SIZE", 20),
		MaxPage:       getInt("API_MAX_PAGE_SIZE", 100),
		MaxWindowDocs: getInt("API_MAX_WINDOW_DOCS", 5000),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.MaxWindowDocs <= 0 {
		return nil, fmt.Errorf("API_MAX_WINDOW_DOCS must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_CRON", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "168h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}

	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
