package db

import (
	"fmt"

	// Register the database/sql drivers this application supports. The
	// default backend is sqlite3; mysql and postgres cover hosted
	// DATABASE_URL-style deployments.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DriverNames lists the supported DriverName values for Config.
var DriverNames = []string{"sqlite3", "mysql", "postgres"}

// ValidDriver returns an error when name is not a supported driver.
func ValidDriver(name string) error {
	for _, d := range DriverNames {
		if d == name {
			return nil
		}
	}
	return fmt.Errorf("db: unsupported driver %q (want one of %v)", name, DriverNames)
}

// SQLiteDSN builds a sqlite3 DSN for path with foreign key enforcement
// turned on. The votes and comments cascade rules depend on it.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on"
}
