// Package config reads the YAML file driving the three cmd/ programs,
// following the teacher's config.go (os.ReadFile + yaml.Unmarshal,
// panic on a missing/corrupted file since there is no sensible way to
// continue without it).
package config

import (
	"encoding/json"
	"errors"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/yaml.v3"

	"github.com/michaelwegner/CRP/comps"
)

// Config holds the inputs shared by cmd/overlaybuild, cmd/custombuild
// and cmd/query: where the three wire files (§6.1–6.3) live, which
// cost function to build/load the metric with, and a worker count.
// Workers is only logged by cmd/custombuild: customize.Run sizes its
// pool from runtime.NumCPU, and cmd/query runs its queries one at a
// time.
type Config struct {
	Graph   string `yaml:"graph"`
	Overlay string `yaml:"overlay"`
	Metric  string `yaml:"metric"`

	// Queries names a file of whitespace-separated "s t" vertex-id
	// pairs, one query per line, for cmd/query's benchmark driver.
	Queries string `yaml:"queries"`

	CostFunction CostFunctionType `yaml:"cost-function"`

	Workers int `yaml:"workers"`

	// PartitionOffsets is the MLP bit-offset vector (§3's o[0..L])
	// produced by the graph partitioner, which spec §1 places out of
	// scope as an external collaborator consumed as input: the
	// partitioner assigns every vertex's packed cell number (carried
	// on the base graph file itself, §6.1) but the bit layout needed
	// to decode those numbers travels alongside it here, since spec.md
	// never describes a standalone partition file.
	PartitionOffsets []uint8 `yaml:"partition-offsets"`
}

// ReadConfig reads file into a Config, panicking on a missing or
// malformed file (there is nothing a CLI driver can usefully do
// without its config, matching the teacher's own ReadConfig).
func ReadConfig(file string) Config {
	slog.Info("reading config file", "file", file)
	data, err := os.ReadFile(file)
	if err != nil {
		slog.Error("failed to read config file: " + err.Error())
		panic(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		slog.Error("failed to parse config file: " + err.Error())
		panic(err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return cfg
}

// CostFunctionType selects which comps.CostFunction a cmd/ driver
// builds or loads a metric with, byte-backed exactly like the
// teacher's MetricType/VehicleType.
type CostFunctionType byte

const (
	Hop      CostFunctionType = 0
	Distance CostFunctionType = 1
	Time     CostFunctionType = 2
)

func (self CostFunctionType) String() string {
	switch self {
	case Hop:
		return "hop"
	case Distance:
		return "distance"
	case Time:
		return "time"
	default:
		panic("unknown cost function type")
	}
}

func (self CostFunctionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}

func (self *CostFunctionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	typ, err := CostFunctionTypeFromString(s)
	*self = typ
	return err
}

func (self CostFunctionType) MarshalYAML() (any, error) {
	return self.String(), nil
}

func (self *CostFunctionType) UnmarshalYAML(value *yaml.Node) error {
	typ, err := CostFunctionTypeFromString(value.Value)
	if err != nil {
		return err
	}
	*self = typ
	return nil
}

// CostFunction builds the comps.CostFunction this type names, for a
// cmd/ driver to pass straight into comps.NewMetric/comps.LoadMetric.
func (self CostFunctionType) CostFunction() comps.CostFunction {
	switch self {
	case Hop:
		return comps.HopFunction{}
	case Distance:
		return comps.DistanceFunction{}
	case Time:
		return comps.TimeFunction{}
	default:
		panic("unknown cost function type")
	}
}

func CostFunctionTypeFromString(s string) (CostFunctionType, error) {
	switch s {
	case "hop":
		return Hop, nil
	case "distance":
		return Distance, nil
	case "time":
		return Time, nil
	default:
		return Hop, errors.New("unknown cost function type")
	}
}
