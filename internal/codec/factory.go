package codec

import (
	"context"
	"fmt"

	"arris/internal/arris"
	"arris/internal/config"
)

// Codec is a MetadataCodec that can also strip embedded previews. Close
// releases the tool process, if any.
type Codec interface {
	arris.MetadataCodec
	DeleteThumbnail(ctx context.Context, path string) error
	Close() error
}

// NewCodecFromConfig creates a Codec implementation based on the codec config type.
func NewCodecFromConfig(cfg config.CodecConfig, logger arris.Logger) (Codec, error) {
	switch cfg.Type {
	case "exiv2":
		return NewExiv2Codec(ExecRunner{}, cfg.Exiv2Path, logger), nil
	case "exiftool":
		c, err := NewExiftoolCodec(cfg.ExiftoolPath, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown codec type: %s", cfg.Type)
	}
}

// RequiredTools lists the binaries the configured codec runs.
func RequiredTools(cfg config.CodecConfig) []string {
	switch cfg.Type {
	case "exiftool":
		return []string{cfg.ExiftoolPath}
	default:
		return []string{cfg.Exiv2Path}
	}
}
