// Package container wires the application's dependencies into the global
// dig container, following the teacher's internal/container package: one
// BuildContainer function, one provider function per infrastructure
// concern, panicking through a `must` helper since a wiring failure at
// startup is unrecoverable.
package container

import (
	"context"
	"fmt"

	elasticv8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/dig"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Tencent/kgsearch/internal/cache"
	"github.com/Tencent/kgsearch/internal/config"
	"github.com/Tencent/kgsearch/internal/handler"
	"github.com/Tencent/kgsearch/internal/models/chat"
	"github.com/Tencent/kgsearch/internal/models/embedding"
	"github.com/Tencent/kgsearch/internal/search"
	"github.com/Tencent/kgsearch/internal/search/pipeline"
	"github.com/Tencent/kgsearch/internal/store"
	"github.com/Tencent/kgsearch/internal/store/composite"
	elasticstore "github.com/Tencent/kgsearch/internal/store/elastic"
	postgresstore "github.com/Tencent/kgsearch/internal/store/postgres"
	qdrantstore "github.com/Tencent/kgsearch/internal/store/qdrant"
	"github.com/Tencent/kgsearch/internal/tracing"
)

// BuildContainer registers every component the search service needs, in
// dependency order: config, infrastructure clients, store adapters, model
// clients, the pipeline's plugins, the Searcher facade, and HTTP handlers.
func BuildContainer(c *dig.Container) *dig.Container {
	must(c.Provide(config.Load))
	must(c.Provide(initTracer))
	must(c.Provide(initGormDB))
	must(c.Provide(initElasticClient))
	must(c.Provide(initRedisClient))
	must(c.Provide(initChatClient))

	must(c.Provide(postgresstore.New))
	must(c.Provide(initVectorBackend))
	must(c.Provide(initElasticStore))
	must(c.Provide(initEntityStore))
	must(c.Provide(initEventStore))
	must(c.Provide(initSectionStore))

	must(c.Provide(initChat))
	must(c.Provide(initEmbedder))

	must(c.Provide(pipeline.NewEventManager))
	must(c.Invoke(registerPlugins))

	must(c.Provide(search.New))

	must(c.Provide(handler.NewSearchHandler))
	must(c.Provide(handler.NewSystemHandler))
	must(c.Provide(handler.NewDebugHandler))
	must(c.Provide(handler.NewRouter))

	return c
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func initTracer(cfg *config.Config) (*tracing.Tracer, error) {
	return tracing.Init()
}

// initGormDB opens the relational store; it runs no migrations. The core's
// domain tables (entities, events,
// entity_event_links, entity_types, article_sections) are owned by the
// ingestion pipeline that populates this service, not by the search core,
// so no AutoMigrate call is made here (unlike the teacher, which owns its
// schema end to end).
func initGormDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(gormpostgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// vectorBackend is the union of dense-vector KNN methods
// store/composite.Entities, .Events, and .Sections need (spec §3.2). Both
// store/qdrant.Store and store/postgres.VectorStore satisfy it structurally.
type vectorBackend interface {
	SearchEntitiesByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k, numCandidates int, entityType string) ([]store.EntityCandidate, error)
	SearchEventsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k int, useContentVector bool) ([]store.EventCandidate, error)
	SearchSectionsByVector(ctx context.Context, queryVec []float32, sourceConfigIDs []string,
		k int, articleID string) ([]store.SectionCandidate, error)
	BatchGetEventVectors(ctx context.Context, eventIDs []string) (map[string][]float32, error)
}

// initVectorBackend picks the dense-vector KNN implementation per
// config.Vector.Driver: a standalone Qdrant cluster, or pgvector
// co-located with the relational store (spec §3.2, SPEC_FULL.md §C).
func initVectorBackend(cfg *config.Config, db *gorm.DB) (vectorBackend, error) {
	switch cfg.Vector.Driver {
	case "pgvector":
		return postgresstore.NewVectorStore(db), nil
	case "qdrant", "":
		client, err := qdrant.NewClient(&qdrant.Config{Host: cfg.Vector.QdrantAddr})
		if err != nil {
			return nil, fmt.Errorf("connect qdrant: %w", err)
		}
		return qdrantstore.New(client, cfg.Vector.CollectionBaseName), nil
	default:
		return nil, fmt.Errorf("unsupported vector driver: %s", cfg.Vector.Driver)
	}
}

func initElasticClient(cfg *config.Config) (*elasticv8.Client, error) {
	return elasticv8.NewClient(elasticv8.Config{Addresses: cfg.Elastic.Addresses})
}

func initRedisClient(cfg *config.Config) (*redis.Client, error) {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}), nil
}

func initChatClient(cfg *config.Config) *openai.Client {
	oc := openai.DefaultConfig(cfg.Models.ChatAPIKey)
	if cfg.Models.ChatBaseURL != "" {
		oc.BaseURL = cfg.Models.ChatBaseURL
	}
	return openai.NewClientWithConfig(oc)
}

// initEmbeddingClient is a distinct openai.Client because an
// OpenAI-compatible chat provider and embedding provider are frequently
// different deployments (spec §6.3 treats embed() and complete() as
// independently injectable). It is built directly by initEmbedder rather
// than provided to the container, where it would collide with the chat
// client's *openai.Client.
func initEmbeddingClient(cfg *config.Config) *openai.Client {
	oc := openai.DefaultConfig(cfg.Models.EmbeddingAPIKey)
	if cfg.Models.EmbeddingBaseURL != "" {
		oc.BaseURL = cfg.Models.EmbeddingBaseURL
	}
	return openai.NewClientWithConfig(oc)
}

func initElasticStore(client *elasticv8.Client, cfg *config.Config) *elasticstore.Store {
	return elasticstore.New(client, cfg.Elastic.EntityIndex, cfg.Elastic.EventIndex)
}

func initEntityStore(
	pg *postgresstore.SQLStore, vec vectorBackend, es *elasticstore.Store,
) store.EntityStore {
	return &composite.Entities{Vector: vec, Name: es, Join: pg}
}

func initEventStore(
	pg *postgresstore.SQLStore, vec vectorBackend, es *elasticstore.Store,
) store.EventStore {
	return &composite.Events{Vector: vec, Hydrate: pg, Tokens: es}
}

func initSectionStore(pg *postgresstore.SQLStore, vec vectorBackend) store.SectionStore {
	return &composite.Sections{Vector: vec, Hydrate: pg}
}

func initChat(client *openai.Client, cfg *config.Config) chat.Chat {
	return chat.NewOpenAIChat(client, cfg.Models.ChatModel)
}

func initEmbedder(cfg *config.Config, rdb *redis.Client) embedding.Embedder {
	base := embedding.NewOpenAIEmbedder(initEmbeddingClient(cfg), cfg.Models.EmbeddingModel)
	return cache.NewCachedEmbedder(base, rdb, cfg.Redis.TTL)
}

// registerPlugins instantiates and registers every pipeline stage in
// execution order (spec §4.3-§4.7). Each NewPlugin* constructor both builds
// its plugin and registers it on the manager (mirroring the teacher's
// chatpipline.NewPlugin* constructors, invoked rather than provided since
// nothing downstream consumes the plugin values themselves).
func registerPlugins(
	manager *pipeline.EventManager,
	chatClient chat.Chat,
	embedder embedding.Embedder,
	entityStore store.EntityStore,
	eventStore store.EventStore,
	sectionStore store.SectionStore,
) {
	pipeline.NewPluginQueryPrepare(manager, chatClient, embedder, entityStore)
	pipeline.NewPluginRecall(manager, entityStore, eventStore)
	pipeline.NewPluginExpand(manager, entityStore, eventStore)
	pipeline.NewPluginRerank(manager, entityStore, eventStore, sectionStore)
}
