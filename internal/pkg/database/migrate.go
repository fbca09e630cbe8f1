package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"gousers/migrations"
)

// Migrate aplica todas as migrações embutidas pendentes para o driver informado.
func Migrate(ctx context.Context, db *sql.DB, driver string) (int, error) {
	dialect, err := Dialect(driver)
	if err != nil {
		return 0, err
	}

	fsys, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return 0, fmt.Errorf("migrações para %s não encontradas: %w", driver, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("falha ao criar provider do goose: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("falha ao aplicar migrações: %w", err)
	}

	return len(results), nil
}

// Dialect traduz o nome do driver para o dialeto do goose.
func Dialect(driver string) (goose.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return goose.DialectPostgres, nil
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	}
	return "", fmt.Errorf("driver de banco não suportado: %q", driver)
}
