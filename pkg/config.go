package scintsim

type Configuration struct {
	MaxEvents        int     `json:"max_events" mapstructure:"max_events"`
	Skip             int     `json:"skip" mapstructure:"skip"`
	Verbosity        int     `json:"verbosity" mapstructure:"verbosity"`
	PrintModulo      int     `json:"print_modulo" mapstructure:"print_modulo"`
	NumWorkers       int     `json:"num_workers" mapstructure:"num_workers"`
	RunNumber        int     `json:"run_number" mapstructure:"run_number"`
	FileIn           string  `json:"file_in" mapstructure:"file_in"`
	FileOut          string  `json:"file_out" mapstructure:"file_out"`
	GeometryFile     string  `json:"geometry_file" mapstructure:"geometry_file"`
	WriteData        bool    `json:"write_data" mapstructure:"write_data"`
	WriteHistograms  bool    `json:"write_histograms" mapstructure:"write_histograms"`
	WriteTables      bool    `json:"write_tables" mapstructure:"write_tables"`
	CompressionLevel int     `json:"compression_level" mapstructure:"compression_level"`
	HistogramBins    int     `json:"histogram_bins" mapstructure:"histogram_bins"`
	HistogramMax     float64 `json:"histogram_max" mapstructure:"histogram_max"`
	ScintParticle    string  `json:"scint_particle" mapstructure:"scint_particle"`
	PhotonParticle   string  `json:"photon_particle" mapstructure:"photon_particle"`
	PhotonProcess    string  `json:"photon_process" mapstructure:"photon_process"`
	WritePhotons     bool    `json:"write_photons" mapstructure:"write_photons"`
	WriteGossip      bool    `json:"write_gossip" mapstructure:"write_gossip"`
	FilePhotons      string  `json:"file_photons" mapstructure:"file_photons"`
	FileGossip       string  `json:"file_gossip" mapstructure:"file_gossip"`
	Sampling         float64 `json:"sampling" mapstructure:"sampling"`
	Gate             float64 `json:"gate" mapstructure:"gate"`
	PreGate          float64 `json:"pregate" mapstructure:"pregate"`
	NoDB             bool    `json:"no_db" mapstructure:"no_db"`
	Host             string  `json:"host" mapstructure:"host"`
	User             string  `json:"user" mapstructure:"user"`
	Passwd           string  `json:"pass" mapstructure:"pass"`
	DBName           string  `json:"dbname" mapstructure:"dbname"`
}

// DefaultConfiguration holds the values used when a key is not configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxEvents:        1000000000,
		Skip:             0,
		Verbosity:        0,
		PrintModulo:      1,
		NumWorkers:       1,
		RunNumber:        0,
		FileOut:          "output_file.h5",
		WriteData:        true,
		WriteHistograms:  true,
		WriteTables:      true,
		CompressionLevel: 4,
		HistogramBins:    100,
		HistogramMax:     50 * MeV,
		ScintParticle:    "e-",
		PhotonParticle:   "opticalphoton",
		PhotonProcess:    "OpAbsorption",
		WritePhotons:     false,
		WriteGossip:      true,
		FilePhotons:      "output_photons.bin",
		FileGossip:       "output_gossip.bin",
		Sampling:         2.0,
		Gate:             500,
		PreGate:          500,
		NoDB:             true,
		Host:             "next.ific.uv.es",
		User:             "nextreader",
		Passwd:           "readonly",
		DBName:           "SCINTSIM",
	}
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
