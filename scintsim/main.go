package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	scintsim "github.com/next-exp/scintsim_go/pkg"
)

var dbConn *sqlx.DB
var configuration scintsim.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	logger = NewLogger(os.Stdout, os.Stderr)
}

func main() {
	os.Exit(run())
}

// loadVolumeMapping applies the channel overrides stored for runNumber.
func loadVolumeMapping(db *sqlx.DB, runNumber int, volumes *scintsim.VolumeMap) bool {
	if err := scintsim.LoadVolumeMapping(db, runNumber, volumes); err != nil {
		message := fmt.Errorf("Error reading volume mapping of run %d: %w", runNumber, err)
		logger.Error(message.Error())
		return false
	}
	return true
}

func run() int {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return 1
	}
	scintsim.SetConfiguration(configuration)
	scintsim.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	geometry := scintsim.DefaultGeometry()
	if configuration.GeometryFile != "" {
		geometry, err = scintsim.LoadGeometry(configuration.GeometryFile)
		if err != nil {
			logger.Error(err.Error())
			return 1
		}
	}
	volumes := geometry.VolumeMap()

	if !configuration.NoDB {
		dbConn, err = scintsim.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			message := fmt.Errorf("Error connection to database: %w", err)
			logger.Error(message.Error())
			return 1
		}
		defer dbConn.Close()
		if !loadVolumeMapping(dbConn, configuration.RunNumber, volumes) {
			return 1
		}
	}

	trace, err := scintsim.OpenTrace(configuration.FileIn)
	if err != nil {
		logger.Error(err.Error())
		return 1
	}
	defer trace.Close()

	var writer scintsim.TableWriter
	if configuration.WriteData {
		hdf5Writer, err := scintsim.NewHDF5Writer(configuration.FileOut)
		if err != nil {
			logger.Error(err.Error())
			return 1
		}
		writer = hdf5Writer
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	runManager := scintsim.NewRunManager(geometry, volumes, writer)
	info, runErr := runManager.BeamOn(ctx, trace)

	status := 0
	if runErr != nil {
		message := fmt.Errorf("run aborted after %d events: %w", info.Events, runErr)
		logger.Error(message.Error())
		status = 1
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error(err.Error())
			status = 1
		}
	}

	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Total events processed: %d in %d ms", info.Events, time.Since(start).Milliseconds())
		logger.Info(message, "main")
	}
	return status
}
