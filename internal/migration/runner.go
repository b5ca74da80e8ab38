// Migration runner
package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Ayash-Bera/mediguide/internal/database"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SchemaMigration records an applied SQL file
type SchemaMigration struct {
	Version string `gorm:"primaryKey"`
}

func (SchemaMigration) TableName() string { return "schema_migrations" }

type Runner struct {
	db          *gorm.DB
	autoMigrate func() error
	logger      *logrus.Logger
}

func NewRunner(dbManager *database.Manager, logger *logrus.Logger) *Runner {
	return &Runner{
		db:          dbManager.DB,
		autoMigrate: dbManager.Migrate,
		logger:      logger,
	}
}

// RunMigrations executes all pending migrations
func (r *Runner) RunMigrations(migrationsPath string) error {
	r.logger.Info("Starting database migrations...")

	if err := r.autoMigrate(); err != nil {
		return fmt.Errorf("GORM auto-migration failed: %w", err)
	}

	if err := r.runSQLMigrations(migrationsPath); err != nil {
		return fmt.Errorf("SQL migrations failed: %w", err)
	}

	r.logger.Info("Database migrations completed successfully")
	return nil
}

func (r *Runner) runSQLMigrations(migrationsPath string) error {
	if err := r.db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	files, err := listSQLFiles(migrationsPath)
	if err != nil {
		return err
	}

	var applied []SchemaMigration
	if err := r.db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, fileName := range files {
		if done[fileName] {
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsPath, fileName))
		if err != nil {
			return err
		}

		err = r.db.Transaction(func(tx *gorm.DB) error {
			for i, stmt := range statementsFor(string(content)) {
				r.logger.WithFields(logrus.Fields{
					"file":      fileName,
					"statement": i + 1,
				}).Debug("Executing SQL statement")

				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
			}
			return tx.Create(&SchemaMigration{Version: fileName}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", fileName, err)
		}

		r.logger.WithField("file", fileName).Info("Migration executed successfully")
	}

	return nil
}

// listSQLFiles returns the .sql files of dir in lexical order
func listSQLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}

	sort.Strings(sqlFiles)
	return sqlFiles, nil
}

// statementsFor keeps dollar-quoted files whole and splits the rest on ';'
func statementsFor(content string) []string {
	if strings.Contains(content, "$$") {
		cleaned := strings.TrimSpace(removeComments(content))
		if cleaned == "" {
			return nil
		}
		return []string{cleaned}
	}
	return splitSQLStatements(content)
}

// removeComments removes SQL comment lines while preserving structure
func removeComments(sql string) string {
	lines := strings.Split(sql, "\n")
	var result []string

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// splitSQLStatements splits SQL content into individual statements
func splitSQLStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			cleanedLines = append(cleanedLines, line)
		}
	}

	cleanedSQL := strings.Join(cleanedLines, " ")
	statements := strings.Split(cleanedSQL, ";")

	var result []string
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			result = append(result, stmt)
		}
	}

	return result
}
