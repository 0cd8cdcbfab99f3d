package migrate

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"
)

// EmbeddedDir is the path of the bundled migrations inside Embedded.
const EmbeddedDir = "migrations"

// Embedded carries the migrations compiled into every binary.
//
//go:embed migrations/*.sql
var Embedded embed.FS

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// UpEmbedded applies the bundled migrations, independent of the working directory.
func UpEmbedded(ctx context.Context, db *sql.DB, backend string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(Embedded)
	defer goose.SetBaseFS(nil)
	return Run(ctx, db, backend, EmbeddedDir, "up")
}
