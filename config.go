package pgtrigger

type Config struct {
	DatabaseURL   string `env:"database_url"`
	Namespace     string `env:"namespace"`
	Role          string `env:"role"`
	LogSQLQueries bool   `env:"log_sql_queries" default:"false"`
}
