package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
	"github.com/studypulse/backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "studypulse", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Student{},
		&types.StudentToken{},
		&types.Concept{},
		&types.Document{},
		&types.DocumentConcept{},
		&types.ConceptStat{},
		&types.RevisionEvent{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	// The concept dedup key and the per-student stat key are unique indexes
	// created by the model tags; verify them loudly at startup since every
	// upsert in the pipeline depends on them.
	for _, idx := range []string{"idx_concept_name_subject", "idx_concept_stat", "idx_document_concept"} {
		if !s.db.Migrator().HasIndex(indexOwner(idx), idx) {
			return fmt.Errorf("expected unique index %s is missing after migration", idx)
		}
	}
	return nil
}

func indexOwner(idx string) interface{} {
	switch idx {
	case "idx_concept_name_subject":
		return &types.Concept{}
	case "idx_concept_stat":
		return &types.ConceptStat{}
	default:
		return &types.DocumentConcept{}
	}
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
