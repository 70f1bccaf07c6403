package utils

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anacrolix/torrent"
)

// IsMagnetLink reports whether a release link is a magnet URI rather than a
// direct HTTP download.
func IsMagnetLink(link string) bool {
	return strings.HasPrefix(strings.ToLower(link), "magnet:")
}

// ConvertMagnetToTorrent fetches torrent metadata from a magnet link with a
// specified timeout and returns the bencoded metainfo, suitable for writing
// out as a .torrent file.
func ConvertMagnetToTorrent(magnetURI string, timeout time.Duration, dataPath string, logger *Logger) ([]byte, error) {
	cfg := torrent.NewDefaultClientConfig()
	cfg.NoUpload = true // We are only interested in metadata
	cfg.DisablePEX = true
	cfg.DataDir = dataPath

	client, err := torrent.NewClient(cfg)
	if err != nil {
		logger.Error("Error creating torrent client:", err)
		return nil, fmt.Errorf("error creating torrent client: %w", err)
	}
	defer client.Close()

	t, err := client.AddMagnet(magnetURI)
	if err != nil {
		logger.Error("Error adding magnet:", err)
		return nil, fmt.Errorf("error adding magnet: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Fetching metadata for magnet link...")

	select {
	case <-t.GotInfo():
		mi := t.Metainfo()
		var buf bytes.Buffer
		if err := mi.Write(&buf); err != nil {
			logger.Error("Failed to write bencoded metainfo:", err)
			return nil, fmt.Errorf("failed to write bencoded metainfo: %w", err)
		}
		logger.Info("Successfully fetched metadata from magnet.")
		return buf.Bytes(), nil
	case <-ctx.Done():
		logger.Warn("Timeout reached while fetching metadata for magnet.")
		return nil, fmt.Errorf("timeout reached while fetching metadata for magnet")
	}
}
