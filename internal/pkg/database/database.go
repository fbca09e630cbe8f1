package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// pgUniqueViolation é o SQLSTATE de violação de UNIQUE no PostgreSQL.
const pgUniqueViolation = "23505"

// NewDB inicializa e configura o pool de conexões para o driver informado.
// Retorna a conexão *sql.DB pronta para uso.
func NewDB(driver, dataSourceName string) (*sql.DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("driver de banco não suportado: %q", driver)
	}

	// 1. Abrir a Conexão
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	// 2. Configuração do Connection Pool
	if driver == DriverSQLite {
		// Uma única conexão, sem expiração: um banco ":memory:" vive enquanto a conexão viver.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(2 * time.Minute)
	}

	// 3. Testar a Conexão Imediatamente
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	log.Printf("✅ Pool de Conexões (%s) configurado e pronto.", driver)

	return db, nil
}

// IsUniqueViolation reconhece violação de restrição UNIQUE nos dois drivers suportados.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
