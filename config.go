package coupler

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// Interpolation strategies for the read-side boundary condition.
const (
	InterpolationRBF    = "rbf"
	InterpolationLinear = "linear"
)

// Config holds the adapter configuration read from a JSON file. The optional
// fields stay empty when their keys are absent; only the required keys fail.
type Config struct {
	ParticipantName        string
	CouplingConfigFileName string // path handed to CouplingInterface.Configure, resolved relative to the adapter config
	CouplingMeshName       string
	ReadDataName           string
	WriteDataName          string // optional; empty means this participant writes nothing
	InterpolationType      string // optional; empty defaults to InterpolationRBF
}

// LoadConfig reads the JSON adapter configuration at path.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, ConfigurationError{Item: path, Reason: err.Error()}
	}

	for _, key := range []string{"participant_name", "config_file_name", "interface.coupling_mesh_name", "interface.read_data_name"} {
		if !v.IsSet(key) {
			return Config{}, ConfigurationError{Item: key, Reason: "required key missing"}
		}
	}

	cfg := Config{
		ParticipantName:   v.GetString("participant_name"),
		CouplingMeshName:  v.GetString("interface.coupling_mesh_name"),
		ReadDataName:      v.GetString("interface.read_data_name"),
		WriteDataName:     v.GetString("interface.write_data_name"),
		InterpolationType: v.GetString("interface.interpolation_type"),
	}
	// The coordinator config lives next to the adapter config.
	cfg.CouplingConfigFileName = filepath.Join(filepath.Dir(path), v.GetString("config_file_name"))

	if it := cfg.InterpolationType; it != "" && it != InterpolationRBF && it != InterpolationLinear {
		return Config{}, ConfigurationError{Item: "interface.interpolation_type", Reason: "must be rbf or linear"}
	}
	return cfg, nil
}
