package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Minio   *MinIOCfg
	Http    *HTTPConfig
	Db      *PGDBCfg
	Redis   *RedisCfg
	Ml      *MLServiceCfg
	Kafka   *KafkaCfg
	Index   *IndexCfg
	Search  *SearchCfg
	Rebuild *RebuildCfg
	Cache   *CacheCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название конкретного бакета в Minio
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ImageTTL    time.Duration
}

type MLServiceCfg struct {
	Addr          string
	Timeout       time.Duration
	MaxConcurrent int
	MaxRetries    int
}

// IndexCfg описывает файл индекса и ожидаемую модель векторизации.
type IndexCfg struct {
	Path       string
	VectorSize int
	Model      string
}

type SearchCfg struct {
	Deadline        time.Duration
	DefaultTopK     int
	DefaultMinScore float64
}

type RebuildCfg struct {
	FailureThreshold float64
	MaxConcurrent    int
}

// CacheCfg выбирает бэкенд кэша изображений: minio, redis или memory.
type CacheCfg struct {
	Backend      string
	FetchTimeout time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ml, err := loadMLServiceCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	index, err := loadIndexCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	search, err := loadSearchCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	rebuild, err := loadRebuildCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cache, err := loadCacheCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:   minio,
		Http:    http,
		Db:      db,
		Redis:   redis,
		Ml:      ml,
		Kafka:   kafka,
		Index:   index,
		Search:  search,
		Rebuild: rebuild,
		Cache:   cache,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	networkMode := getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode)

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       networkMode,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultImageTTL     = 24 * time.Hour
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetriesStr := getEnvOrDefault("MAX_RETRIES", strconv.Itoa(defaultMaxRetries))
	maxRetries, err := strconv.Atoi(maxRetriesStr)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	imageTTL, err := parseDurationEnv("IMAGE_TTL", defaultImageTTL)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ImageTTL:    imageTTL,
	}, nil
}

func loadMLServiceCfg(log logger.Logger) (*MLServiceCfg, error) {
	const (
		defaultHost          = "ml-service"
		defaultPort          = "8000"
		defaultTimeout       = 30 * time.Second
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
	)

	host := getEnvOrDefault("ML_HOST", defaultHost)
	port := getEnvOrDefault("ML_PORT", defaultPort)

	timeout, err := parseDurationEnv("ML_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid ML_TIMEOUT")
		return nil, err
	}

	maxConcurrent, err := parseIntEnv("ML_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		log.Errorf(err, "invalid ML_MAX_CONCURRENT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("ML_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid ML_MAX_RETRIES")
		return nil, err
	}

	return &MLServiceCfg{
		Addr:          "http://" + host + ":" + port,
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    maxRetries,
	}, nil
}

func loadIndexCfg(log logger.Logger) (*IndexCfg, error) {
	const (
		defaultPath       = "data/embeddings.json"
		defaultVectorSize = 512
		defaultModel      = "ViT-B/32"
	)

	vectorSize, err := parseIntEnv("VECTOR_SIZE", defaultVectorSize)
	if err != nil {
		log.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	return &IndexCfg{
		Path:       getEnvOrDefault("INDEX_PATH", defaultPath),
		VectorSize: vectorSize,
		Model:      getEnvOrDefault("ML_MODEL", defaultModel),
	}, nil
}

func loadSearchCfg(log logger.Logger) (*SearchCfg, error) {
	const (
		defaultDeadline = 30 * time.Second
		defaultTopK     = 12
		defaultMinScore = 0.0
	)

	deadline, err := parseDurationEnv("SEARCH_DEADLINE", defaultDeadline)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_DEADLINE")
		return nil, err
	}

	topK, err := parseIntEnv("SEARCH_TOP_K", defaultTopK)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_TOP_K")
		return nil, err
	}

	minScore, err := parseFloatEnv("SEARCH_MIN_SCORE", defaultMinScore)
	if err != nil {
		log.Errorf(err, "invalid SEARCH_MIN_SCORE")
		return nil, err
	}

	return &SearchCfg{
		Deadline:        deadline,
		DefaultTopK:     topK,
		DefaultMinScore: minScore,
	}, nil
}

func loadRebuildCfg(log logger.Logger) (*RebuildCfg, error) {
	const (
		defaultFailureThreshold = 0.5
		defaultMaxConcurrent    = 8
	)

	threshold, err := parseFloatEnv("REBUILD_FAILURE_THRESHOLD", defaultFailureThreshold)
	if err != nil {
		log.Errorf(err, "invalid REBUILD_FAILURE_THRESHOLD")
		return nil, err
	}

	if threshold < 0 || threshold > 1 {
		err := fmt.Errorf("REBUILD_FAILURE_THRESHOLD must be within [0, 1], got %f", threshold)
		log.Errorf(err, "invalid REBUILD_FAILURE_THRESHOLD")
		return nil, err
	}

	maxConcurrent, err := parseIntEnv("REBUILD_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		log.Errorf(err, "invalid REBUILD_MAX_CONCURRENT")
		return nil, err
	}

	return &RebuildCfg{
		FailureThreshold: threshold,
		MaxConcurrent:    maxConcurrent,
	}, nil
}

func loadCacheCfg(log logger.Logger) (*CacheCfg, error) {
	const (
		defaultBackend      = "memory"
		defaultFetchTimeout = 20 * time.Second
	)

	backend := getEnvOrDefault("CACHE_BACKEND", defaultBackend)
	switch backend {
	case "minio", "redis", "memory":
	default:
		err := fmt.Errorf("unknown CACHE_BACKEND %q, expected minio, redis or memory", backend)
		log.Errorf(err, "invalid CACHE_BACKEND")
		return nil, err
	}

	fetchTimeout, err := parseDurationEnv("IMAGE_FETCH_TIMEOUT", defaultFetchTimeout)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_FETCH_TIMEOUT")
		return nil, err
	}

	return &CacheCfg{
		Backend:      backend,
		FetchTimeout: fetchTimeout,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	floatValue, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return floatValue, nil
}
