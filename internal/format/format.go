// Package format binds each supported file format to a parser/serializer
// pair. A codec is selected once, when a loader is constructed; there is no
// per-call format dispatch.
package format

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/samber/mo"

	"github.com/omarluq/ptree-loader/internal/ptree"
)

// Format identifies one of the supported property-tree file formats.
type Format int

// Supported formats. INI and TOML are deliberately absent: both forbid
// duplicate keys, which the tree model requires.
const (
	XML Format = iota
	JSON
	INFO
	YAML
)

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case XML:
		return "xml"
	case JSON:
		return "json"
	case INFO:
		return "info"
	case YAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Codec parses raw bytes into a property tree and serializes a tree back
// into the same format.
type Codec interface {
	// Parse reads a whole document and returns its tree, preserving child
	// order and duplicate keys.
	Parse(data []byte) (*ptree.Tree, error)

	// Serialize writes the tree as a document in this codec's format.
	Serialize(w io.Writer, t *ptree.Tree) error

	// String returns the format name.
	String() string
}

var codecs = map[Format]Codec{
	XML:  xmlCodec{},
	JSON: jsonCodec{},
	INFO: infoCodec{},
	YAML: yamlCodec{},
}

// ForFormat returns the codec bound to f.
func ForFormat(f Format) Codec {
	return codecs[f]
}

var extensions = map[string]Format{
	".xml":  XML,
	".json": JSON,
	".info": INFO,
	".yaml": YAML,
	".yml":  YAML,
}

// FromExtension infers the format from path's file extension. Unrecognized
// extensions yield None.
func FromExtension(path string) mo.Option[Format] {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return mo.None[Format]()
	}
	return mo.Some(f)
}
