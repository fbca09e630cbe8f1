package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"

	"gousers/config"
	"gousers/internal/pkg/database"
	"gousers/migrations"
)

// Uso: migrate [-dir postgres|sqlite3] [up|down|status|version|redo|reset] [args...]
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Erro de Configuração: %v", err)
	}

	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", cfg.DBDriver, "diretório (dentro das migrações embutidas) com os arquivos SQL")
	flag.Parse()

	db, err := database.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("goose: falha ao conectar ao DB: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: falha ao fechar o DB: %v\n", err)
		}
	}()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(cfg.DBDriver); err != nil {
		log.Fatalf("goose: dialeto inválido: %v", err)
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}

	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s success\n", command)
}
