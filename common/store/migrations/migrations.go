package migrations

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

func Up(options ApplyOptions) (res ApplyResult) {
	source, err := iofs.New(sqlFiles, "sql")
	if err != nil {
		res.Err = err
		return
	}

	var m *migrate.Migrate
	m, res.Err = migrate.NewWithSourceInstance("iofs", source, options.DatabaseURL)
	if res.Err != nil {
		return
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			return
		}
		res.Err = err
		return
	}

	res.Changes = true
	return
}

type ApplyOptions struct {
	DatabaseURL string
}

type ApplyResult struct {
	Err     error
	Changes bool
}
