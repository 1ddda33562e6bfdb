package scintsim

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type VolumeMappingEntry struct {
	Volume  string `db:"Volume"`
	Channel int    `db:"Channel"`
}

// LoadVolumeMapping reads the volume to channel association valid for a run
// and stores it in volumes.
func LoadVolumeMapping(db *sqlx.DB, runNumber int, volumes *VolumeMap) error {
	entries, err := getVolumeMappingFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting volume mapping from database: %w", err)
		logger.Error(errMessage.Error())
		return errMessage
	}
	for _, e := range entries {
		volumes.Set(e.Volume, int32(e.Channel))
	}
	return nil
}

func getVolumeMappingFromDB(db *sqlx.DB, runNumber int) ([]VolumeMappingEntry, error) {
	query := "SELECT Volume, Channel FROM VolumeMapping WHERE MinRun <= ? and MaxRun >= ? ORDER BY Channel"

	if configuration.Verbosity > 0 {
		logger.Info("Volume mapping read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s (run %d)", query, runNumber)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var entries []VolumeMappingEntry
	for rows.Next() {
		result := VolumeMappingEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		entries = append(entries, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return entries, nil
}
