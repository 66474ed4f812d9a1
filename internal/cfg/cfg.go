package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Qdrant    *QdrantCfg
	Feeds     *FeedCfg
	Extractor *ExtractorCfg
	Chunker   *ChunkerCfg
	Embedder  *EmbedderCfg
	Redis     *RedisCfg
	Minio     *MinIOCfg
	Kafka     *KafkaCfg
	Retention *RetentionCfg
}

type QdrantCfg struct {
	Port           int
	Host           string
	ApiKey         string
	CollectionName string // имя коллекции в Qdrant
	UseTLS         bool
	VectorSize     uint64
}

type FeedCfg struct {
	URLs []string // список RSS-источников в порядке обхода
}

type ExtractorCfg struct {
	FetchTimeout time.Duration // обязательный таймаут на загрузку страницы статьи
	UserAgent    string
}

type ChunkerCfg struct {
	ChunkSize int
	Overlap   int
}

type EmbedderCfg struct {
	Addr          string
	Timeout       time.Duration
	MaxConcurrent int
	MaxRetries    int
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	DedupTTL    time.Duration // окно дедупликации по ссылке статьи
}

type MinIOCfg struct {
	Endpoint     string // пустое значение отключает архивирование изображений
	BucketName   string
	RootUser     string
	RootPassword string
	UseSSL       bool
}

// Enabled сообщает, настроено ли архивирование изображений в MinIO.
func (m *MinIOCfg) Enabled() bool {
	return m.Endpoint != ""
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string // пустой список отключает публикацию событий
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Enabled сообщает, настроена ли публикация событий об ингесте.
func (k *KafkaCfg) Enabled() bool {
	return len(k.Brokers) > 0
}

type RetentionCfg struct {
	MaxStorageBytes int64 // потолок хранилища
	BatchSize       int   // размер одной партии удаления
	AvgRecordBytes  int64 // оценка среднего размера записи для эстиматора занятости
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	feeds, err := loadFeedCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	extractor, err := loadExtractorCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	chunker, err := loadChunkerCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedder, err := loadEmbedderCfg(log)
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

	retention, err := loadRetentionCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Qdrant:    qdrant,
		Feeds:     feeds,
		Extractor: extractor,
		Chunker:   chunker,
		Embedder:  embedder,
		Redis:     redis,
		Minio:     minio,
		Kafka:     kafka,
		Retention: retention,
	}, nil
}

func loadQdrantCfg(log logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = "6334"
		defaultUseTLS         = false
		defaultVectorSize     = "512"
	)

	host := getEnv("QDRANT_HOST")
	if host == "" {
		err := fmt.Errorf("QDRANT_HOST is required")
		log.Errorf(err, "missing QDRANT_HOST")
		return nil, err
	}

	collection := getEnv("COLLECTION_NAME")
	if collection == "" {
		err := fmt.Errorf("COLLECTION_NAME is required")
		log.Errorf(err, "missing COLLECTION_NAME")
		return nil, err
	}

	strPort := getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	port, err := strconv.Atoi(strPort)
	if err != nil {
		log.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		log.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	strVectorSize := getEnvOrDefault("VECTOR_SIZE", defaultVectorSize)
	vectorSize, err := strconv.ParseUint(strVectorSize, 10, 64)
	if err != nil {
		log.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Host:           host,
		Port:           port,
		ApiKey:         getEnv("QDRANT__SERVICE__API_KEY"),
		CollectionName: collection,
		UseTLS:         useTLS,
		VectorSize:     vectorSize,
	}, nil
}

func loadFeedCfg() (*FeedCfg, error) {
	urlStr := getEnv("RSS_URLS")
	if urlStr == "" {
		return nil, fmt.Errorf("RSS_URLS environment variable is required")
	}

	urls := make([]string, 0)
	for _, u := range strings.Split(urlStr, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("RSS_URLS contains no usable URLs")
	}

	return &FeedCfg{URLs: urls}, nil
}

func loadExtractorCfg(log logger.Logger) (*ExtractorCfg, error) {
	const (
		defaultFetchTimeout = 10 * time.Second
		defaultUserAgent    = "newsvector/1.0"
	)

	fetchTimeout, err := parseDurationEnv("ARTICLE_FETCH_TIMEOUT", defaultFetchTimeout)
	if err != nil {
		log.Errorf(err, "invalid ARTICLE_FETCH_TIMEOUT")
		return nil, err
	}

	return &ExtractorCfg{
		FetchTimeout: fetchTimeout,
		UserAgent:    getEnvOrDefault("ARTICLE_USER_AGENT", defaultUserAgent),
	}, nil
}

func loadChunkerCfg(log logger.Logger) (*ChunkerCfg, error) {
	const (
		defaultChunkSize = 1500
		defaultOverlap   = 400
	)

	chunkSize, err := parseIntEnv("CHUNK_SIZE", defaultChunkSize)
	if err != nil {
		log.Errorf(err, "invalid CHUNK_SIZE")
		return nil, e.Wrap("CHUNK_SIZE", err)
	}

	overlap, err := parseIntEnv("CHUNK_OVERLAP", defaultOverlap)
	if err != nil {
		log.Errorf(err, "invalid CHUNK_OVERLAP")
		return nil, e.Wrap("CHUNK_OVERLAP", err)
	}

	// Нарушение overlap < chunkSize — ошибка конфигурации, падаем до любых сетевых вызовов
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		log.Errorf(e.ErrOverlapTooLarge, "invalid chunk geometry: size=%d overlap=%d", chunkSize, overlap)
		return nil, e.ErrOverlapTooLarge
	}

	return &ChunkerCfg{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}, nil
}

func loadEmbedderCfg(log logger.Logger) (*EmbedderCfg, error) {
	const (
		defaultHost          = "embedder"
		defaultPort          = "8000"
		defaultTimeout       = 30 * time.Second
		defaultMaxConcurrent = 8
		defaultMaxRetries    = 3
	)

	host := getEnvOrDefault("EMBEDDER_HOST", defaultHost)
	port := getEnvOrDefault("EMBEDDER_PORT", defaultPort)

	timeout, err := parseDurationEnv("EMBEDDER_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDER_TIMEOUT")
		return nil, err
	}

	return &EmbedderCfg{
		Addr:          "http://" + host + ":" + port,
		Timeout:       timeout,
		MaxConcurrent: defaultMaxConcurrent,
		MaxRetries:    defaultMaxRetries,
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
		defaultDedupTTL     = 72 * time.Hour
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

	dedupTTL, err := parseDurationEnv("DEDUP_TTL", defaultDedupTTL)
	if err != nil {
		log.Errorf(err, "invalid DEDUP_TTL")
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
		DedupTTL:    dedupTTL,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const defaultUseSSL = false

	endpoint := getEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		// Архивирование изображений не настроено
		return &MinIOCfg{}, nil
	}

	bucket := getEnv("BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("BUCKET_NAME is required when MINIO_ENDPOINT is set")
	}

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		Endpoint:     endpoint,
		BucketName:   bucket,
		RootUser:     getEnv("MINIO_ROOT_USER"),
		RootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		UseSSL:       useSSL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		// Публикация событий не настроена
		return &KafkaCfg{}, nil
	}
	brokers := strings.Split(brokerStr, ",")

	topic := getEnv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
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

func loadRetentionCfg(log logger.Logger) (*RetentionCfg, error) {
	const (
		defaultMaxStorageBytes = int64(1 << 30) // 1 GiB
		defaultBatchSize       = 500
		defaultAvgRecordBytes  = int64(4096) // 512 float32 + payload и накладные расходы индекса
	)

	maxStorageStr := getEnvOrDefault("MAX_STORAGE_BYTES", strconv.FormatInt(defaultMaxStorageBytes, 10))
	maxStorage, err := strconv.ParseInt(maxStorageStr, 10, 64)
	if err != nil {
		log.Errorf(err, "invalid MAX_STORAGE_BYTES")
		return nil, err
	}

	batchSize, err := parseIntEnv("DELETE_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		log.Errorf(err, "invalid DELETE_BATCH_SIZE")
		return nil, e.Wrap("DELETE_BATCH_SIZE", err)
	}

	avgRecordStr := getEnvOrDefault("AVG_RECORD_BYTES", strconv.FormatInt(defaultAvgRecordBytes, 10))
	avgRecord, err := strconv.ParseInt(avgRecordStr, 10, 64)
	if err != nil {
		log.Errorf(err, "invalid AVG_RECORD_BYTES")
		return nil, err
	}

	if maxStorage <= 0 || batchSize <= 0 || avgRecord <= 0 {
		err := fmt.Errorf("retention parameters must be positive")
		log.Errorf(err, "invalid retention config: max=%d batch=%d avg=%d", maxStorage, batchSize, avgRecord)
		return nil, err
	}

	return &RetentionCfg{
		MaxStorageBytes: maxStorage,
		BatchSize:       batchSize,
		AvgRecordBytes:  avgRecord,
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
