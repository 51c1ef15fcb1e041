package config

const (
	ProviderMLBStats = "mlbstats"
	ProviderFixture  = "fixture"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)
