package database

import (
	"database/sql"
	"fmt"
	"os"
)

// Migrate applies the schema at the given path (Config.SchemaPath). The
// statements are CREATE-IF-NOT-EXISTS, so running it on every start is safe.
func Migrate(db *sql.DB, schemaPath string) error {
	if schemaPath == "" {
		schemaPath = defaultSchemaPath
	}

	b, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", schemaPath, err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("apply schema %s: %w", schemaPath, err)
	}
	return nil
}
