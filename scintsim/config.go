package main

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	scintsim "github.com/next-exp/scintsim_go/pkg"
	"github.com/spf13/viper"
)

// LoadConfiguration reads a JSON configuration file on top of the defaults.
// Every key can be overridden by a SCINTSIM_<KEY> environment variable. An
// empty filename keeps the defaults.
func LoadConfiguration(filename string) (scintsim.Configuration, error) {
	v := viper.New()

	// Set default values
	defaults := scintsim.DefaultConfiguration()
	setDefaults(v, defaults)

	v.SetEnvPrefix("SCINTSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return defaults, err
		}
	}

	var config scintsim.Configuration
	if err := v.Unmarshal(&config); err != nil {
		return defaults, err
	}
	if err := validateConfiguration(config); err != nil {
		return config, err
	}
	return config, nil
}

// setDefaults registers every field of config under its mapstructure key.
func setDefaults(v *viper.Viper, config scintsim.Configuration) {
	value := reflect.ValueOf(config)
	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		v.SetDefault(key, value.Field(i).Interface())
	}
}

func validateConfiguration(config scintsim.Configuration) error {
	var errs []error
	if config.FileIn == "" {
		errs = append(errs, errors.New("file_in is required"))
	}
	if config.NumWorkers < 1 {
		errs = append(errs, fmt.Errorf("num_workers must be at least 1, got %d", config.NumWorkers))
	}
	if config.HistogramBins < 1 {
		errs = append(errs, fmt.Errorf("histogram_bins must be at least 1, got %d", config.HistogramBins))
	}
	if config.WritePhotons && config.FilePhotons == "" {
		errs = append(errs, errors.New("write_photons needs file_photons"))
	}
	return errors.Join(errs...)
}

func printConfiguration(config scintsim.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Geometry file: %s", config.GeometryFile), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Print modulo: %d", config.PrintModulo), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Write histograms: %t", config.WriteHistograms), "config")
	logger.Info(fmt.Sprintf("Write tables: %t", config.WriteTables), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Histogram: %d bins up to %s", config.HistogramBins, scintsim.BestEnergy(config.HistogramMax)), "config")
	logger.Info(fmt.Sprintf("Scintillator particle: %s", config.ScintParticle), "config")
	logger.Info(fmt.Sprintf("Photon particle: %s (%s)", config.PhotonParticle, config.PhotonProcess), "config")
	logger.Info(fmt.Sprintf("Write photons: %t (%s)", config.WritePhotons, config.FilePhotons), "config")
	logger.Info(fmt.Sprintf("Write gossip: %t (%s)", config.WriteGossip, config.FileGossip), "config")
	logger.Info(fmt.Sprintf("SiPM sampling: %g ns, gate: %g ns, pre-gate: %g ns", config.Sampling, config.Gate, config.PreGate), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
}
