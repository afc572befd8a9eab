package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vitrine-empreendedores/config"
	"github.com/oksasatya/vitrine-empreendedores/internal/domain/repository"
	"github.com/oksasatya/vitrine-empreendedores/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Router modules wire themselves from these singletons; optional backends
// (redis, gcs, elasticsearch, rabbitmq) stay nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client
	rabbitPub   *helpers.RabbitPublisher

	directoryRepo repository.DirectoryRepository
	auditRepo     repository.AuditRepository
	sessions      *helpers.SessionManager
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetPGPool(p *pgxpool.Pool)  { pgPool = p }
func GetPGPool() *pgxpool.Pool   { return pgPool }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }
func SetGCS(s *storage.Client)   { gcsClient = s }
func GetGCS() *storage.Client    { return gcsClient }

func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

// SetRepositories installs the storage backend chosen by STORAGE_DRIVER.
func SetRepositories(d repository.DirectoryRepository, a repository.AuditRepository) {
	directoryRepo, auditRepo = d, a
}
func GetDirectoryRepo() repository.DirectoryRepository { return directoryRepo }
func GetAuditRepo() repository.AuditRepository         { return auditRepo }

func SetSessions(m *helpers.SessionManager) { sessions = m }
func GetSessions() *helpers.SessionManager {
	if sessions == nil {
		sessions = helpers.NewSessionManager(cfg.SessionSecret, cfg.CookieDomain, cfg.CookieSecure)
	}
	return sessions
}
