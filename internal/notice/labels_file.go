package notice

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// LoadLabels reads label overrides from a YAML file. Missing keys stay
// empty and fall back to the defaults when merged.
//
//	header: "Acme + Extendify"
//	install: "Get Extendify"
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Labels{}, fmt.Errorf("reading labels: %w", err)
	}

	var labels Labels
	if err := yaml.Unmarshal(data, &labels); err != nil {
		return Labels{}, fmt.Errorf("parsing labels %s: %w", path, err)
	}
	return labels, nil
}
