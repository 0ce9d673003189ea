// Package pg connects to PostgreSQL and applies schema migrations.
//
// Connect opens a pgx pool with bounded retries; OpenDB exposes the pool as a
// *sql.DB for database/sql consumers such as the postgres store and goose.
// Migrate and Rollback run goose migrations from an fs.FS, normally the
// embedded internal/db/migrations directory.
package pg
