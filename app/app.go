package app

import (
	"database/sql"

	"github.com/mbolis/quick-forms/config"
)

type App struct {
	*sql.DB
	config.Config
}
