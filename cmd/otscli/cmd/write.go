package cmd

import (
	"bytes"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/spacemeshos/ots/timestamp"
)

// writeFile replaces path with df without ever leaving a partial file behind.
func writeFile(path string, df *timestamp.DetachedFile) error {
	data, err := df.MarshalBinary()
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	logger.Debug("cli: wrote timestamp file", zap.String("path", path), zap.Int("size", len(data)))
	return nil
}
