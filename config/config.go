package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount   int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis (image hash + active config cache)
	RedisHost         string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB           int           `env:"REDIS_DB" env-default:"0"`
	RedisEnabled      bool          `env:"REDIS_ENABLED" env-default:"true"`
	ImageHashCacheTTL time.Duration `env:"IMAGE_HASH_CACHE_TTL" env-default:"168h"`
	ActiveConfigTTL   time.Duration `env:"ACTIVE_CONFIG_CACHE_TTL" env-default:"30s"`

	// Kafka Producer (duplicate + review events)
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"dedup-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// OpenTelemetry
	TracingEnabled bool          `env:"TRACING_ENABLED" env-default:"false"`
	OTLPEndpoint   string        `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol   string        `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure   bool          `env:"OTLP_INSECURE" env-default:"true"`
	OTLPTimeout    time.Duration `env:"OTLP_TIMEOUT" env-default:"10s"`

	// Detection
	MatchWorkerCount      int `env:"MATCH_WORKER_COUNT" env-default:"0"` // 0 = GOMAXPROCS
	MaxCandidates         int `env:"MAX_CANDIDATES" env-default:"100"`
	BatchWorkerCount      int `env:"BATCH_WORKER_COUNT" env-default:"4"`
	ImageFetchWorkerCount int `env:"IMAGE_FETCH_WORKER_COUNT" env-default:"8"`
	ImageFetchTimeoutSecs int `env:"IMAGE_FETCH_TIMEOUT_SECONDS" env-default:"15"`

	// Image hash backfill sweep
	HashBackfillInterval  time.Duration `env:"HASH_BACKFILL_INTERVAL" env-default:"5m"`
	HashBackfillLookback  time.Duration `env:"HASH_BACKFILL_LOOKBACK" env-default:"72h"`
	HashBackfillBatchSize int           `env:"HASH_BACKFILL_BATCH_SIZE" env-default:"200"`
}
