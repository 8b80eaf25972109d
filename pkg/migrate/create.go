package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const versionLayout = "20060102150405"

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// MigrationFileName is <YYYYMMDDHHMMSS>_<snake_name>.sql for the given time.
func MigrationFileName(name string, at time.Time) (string, error) {
	safe := strings.ReplaceAll(slug.Make(name), "-", "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	return fmt.Sprintf("%s_%s.sql", at.UTC().Format(versionLayout), safe), nil
}

// CreateSQLMigration writes an empty goose migration into dir and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	filename, err := MigrationFileName(name, time.Now())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	fullpath := filepath.Join(dir, filename)
	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	label := strings.TrimSuffix(filename[15:], ".sql")
	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(migrationTemplate, label)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}
