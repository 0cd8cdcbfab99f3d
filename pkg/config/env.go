package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageBackendMemory   = "memory"
	StorageBackendRedis    = "redis"
	StorageBackendPostgres = "postgres"
	StorageBackendSQLite   = "sqlite"

	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvStorageBackend  = "STOREFRONT_STORAGE_BACKEND"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvRedisAddr       = "STOREFRONT_REDIS_ADDR"
	EnvCatalogBaseURL  = "STOREFRONT_CATALOG_BASE_URL"
	EnvCatalogPageSize = "STOREFRONT_CATALOG_PAGE_SIZE"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
)
