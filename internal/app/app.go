package app

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/chunker"
	"github.com/DRSN-tech/newsvector/internal/infrastructure/embedder"
	"github.com/DRSN-tech/newsvector/internal/infrastructure/extractor"
	"github.com/DRSN-tech/newsvector/internal/infrastructure/feed"
	kafkaInfra "github.com/DRSN-tech/newsvector/internal/infrastructure/kafka"
	minioRepo "github.com/DRSN-tech/newsvector/internal/repository/minio"
	qdrantRepo "github.com/DRSN-tech/newsvector/internal/repository/qdrant"
	redisRepo "github.com/DRSN-tech/newsvector/internal/repository/redis"
	"github.com/DRSN-tech/newsvector/internal/usecase"
	"github.com/DRSN-tech/newsvector/pkg/clients"
	"github.com/DRSN-tech/newsvector/pkg/closer"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/jimlawless/whereami"
)

const provisionTimeout = 10 * time.Second

// App связывает клиентов, репозитории и usecase-слой конвейера.
// Клиенты хранилища и embedding-сервиса создаются один раз на запуск
// и переиспользуются всеми операциями.
type App struct {
	cfg         *cfg.Config
	logger      logger.Logger
	closer      *closer.Closer
	IngestUC    usecase.IngestUC
	RetentionUC usecase.RetentionUC
}

// NewApp инициализирует все зависимости.
// Сбой создания коллекции, индексов, бакета или топика фатален:
// без валидной коллекции конвейеру некуда писать.
func NewApp(config *cfg.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)

	qdrantClient, err := clients.NewQdrantClient(config.Qdrant)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return qdrantClient.Client.Close()
	})

	qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), provisionTimeout)
	defer qdrantCancel()
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsurePayloadIndexes(qdrantCtx, qdrantClient); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redisClient := clients.NewRedisClient(config.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	dedupRepo := redisRepo.NewDedupRepo(redisClient, config.Redis, log)
	recordRepo := qdrantRepo.NewRecordRepo(qdrantClient.Client, config.Qdrant)

	var imageRepo usecase.ImageRepository
	if config.Minio.Enabled() {
		minioClient, err := clients.NewMinIOClient(config.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		minioCtx, minioCancel := context.WithTimeout(context.Background(), provisionTimeout)
		defer minioCancel()
		if err := clients.EnsureBucket(minioCtx, minioClient, config.Minio.BucketName); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		imageRepo = minioRepo.NewImageRepo(minioClient, config.Minio)
	} else {
		log.Infof("image archiving disabled: MINIO_ENDPOINT is not set")
	}

	var producer usecase.EventProducerInfra
	if config.Kafka.Enabled() {
		kafkaProducer, err := kafkaInfra.NewProducer(log, config.Kafka)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if err := kafkaProducer.EnsureTopic(provisionTimeout); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		cl.Add(func(ctx context.Context) error {
			return kafkaProducer.Close()
		})

		producer = kafkaProducer
	} else {
		log.Infof("ingest events disabled: KAFKA_BROKERS is not set")
	}

	textChunker, err := chunker.New(config.Chunker.ChunkSize, config.Chunker.Overlap)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	collector := feed.NewCollector(config.Feeds, &http.Client{Timeout: config.Extractor.FetchTimeout}, log)
	articleExtractor := extractor.NewExtractor(config.Extractor, log)
	embeddingAdapter := embedder.NewEmbedder(config.Embedder, log)

	ingestUC := usecase.NewIngestUC(
		collector,
		articleExtractor,
		textChunker,
		embeddingAdapter,
		recordRepo,
		dedupRepo,
		imageRepo,
		producer,
		log,
	)
	retentionUC := usecase.NewRetentionUC(recordRepo, imageRepo, config.Retention, log)

	return &App{
		cfg:         config,
		logger:      log,
		closer:      cl,
		IngestUC:    ingestUC,
		RetentionUC: retentionUC,
	}, nil
}

// RunIngest выполняет один проход ингеста.
func (a *App) RunIngest(ctx context.Context) error {
	_, err := a.IngestUC.Run(ctx)
	return err
}

// RunRetention выполняет один шаг вытеснения.
// force запускает безусловное удаление одной партии в обход эстиматора занятости.
func (a *App) RunRetention(ctx context.Context, force bool) error {
	if force {
		_, err := a.RetentionUC.DeleteOldest(ctx, a.cfg.Retention.BatchSize)
		return err
	}

	_, err := a.RetentionUC.EnforceBudget(ctx)
	return err
}

// Close закрывает все ресурсы в порядке LIFO.
func (a *App) Close(ctx context.Context) error {
	return a.closer.Close(ctx)
}
