package codec

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"topoview/internal/domain"
)

// ErrUnsupportedFormat is returned for format names no codec handles
var ErrUnsupportedFormat = errors.New("unsupported format")

// Importer interface for importing topologies from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Topology, error)
	Format() string
}

// Exporter interface for exporting topologies to various formats
type Exporter interface {
	Export(topo *domain.Topology, w io.Writer) error
	Format() string
}

// Codec both imports and exports
type Codec interface {
	Importer
	Exporter
}

// ContentType returns the MIME type for a format
func ContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "yaml", "ansible-inventory":
		return "application/yaml"
	case "toml":
		return "application/toml"
	default:
		return "application/octet-stream"
	}
}

var codecs = map[string]func() Codec{
	"json":              func() Codec { return NewJSONCodec() },
	"yaml":              func() Codec { return NewYAMLCodec() },
	"yml":               func() Codec { return NewYAMLCodec() },
	"toml":              func() Codec { return NewTOMLCodec() },
	"ansible":           func() Codec { return NewAnsibleCodec() },
	"ansible-inventory": func() Codec { return NewAnsibleCodec() },
}

// ForFormat returns the codec registered for a format name or file extension
func ForFormat(format string) (Codec, error) {
	newCodec, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedFormat, format, Formats())
	}
	return newCodec(), nil
}

// Formats lists the accepted format names
func Formats() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
