// Package compression holds the codecs used to shrink stored documents and
// autosave envelopes.
package compression

import "fmt"

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ByName maps a configured name to a Compressor. "" and "none" yield nil,
// meaning values are stored as-is.
func ByName(name string) (Compressor, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "zstd":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
