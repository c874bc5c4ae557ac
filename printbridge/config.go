package printbridge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the bridge printer registry
// Example bridge.yaml:
//
//	listen: 127.0.0.1:8182
//	printers:
//	  - name: Kitchen
//	    target: tcp://192.168.1.50:9100
//	  - name: Front Counter
//	    target: serial:///dev/ttyUSB0?baud=19200
type Config struct {
	Listen   string          `yaml:"listen"`
	Printers []PrinterConfig `yaml:"printers"`
}

// PrinterConfig declares one named printer
type PrinterConfig struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
}

// LoadConfig reads the YAML registry
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bridge config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse bridge config: %w", err)
	}
	return &cfg, nil
}

// Build resolves every printer target into a sink
func (c *Config) Build() ([]Printer, error) {
	seen := make(map[string]bool)
	printers := make([]Printer, 0, len(c.Printers))
	for i, pc := range c.Printers {
		name := strings.TrimSpace(pc.Name)
		if name == "" {
			return nil, fmt.Errorf("printer %d has no name", i+1)
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("printer %q is declared twice", name)
		}
		seen[strings.ToLower(name)] = true

		sink, err := ParseTarget(pc.Target)
		if err != nil {
			return nil, err
		}
		printers = append(printers, Printer{Name: name, Sink: sink})
	}
	return printers, nil
}
