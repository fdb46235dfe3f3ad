package codec

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"topoview/internal/domain"
)

// TOMLCodec reads and writes topologies in the same layout as scenario files
type TOMLCodec struct{}

// NewTOMLCodec creates a new TOML codec
func NewTOMLCodec() *TOMLCodec {
	return &TOMLCodec{}
}

// Format returns the codec format identifier
func (c *TOMLCodec) Format() string {
	return "toml"
}

// Parse imports a topology from TOML
func (c *TOMLCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var topo domain.Topology
	if _, err := toml.NewDecoder(r).Decode(&topo); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	topo.Normalize()
	return &topo, nil
}

// Export exports a topology to TOML
func (c *TOMLCodec) Export(topo *domain.Topology, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(topo); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return nil
}
