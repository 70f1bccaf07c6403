package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"showhound/internal/utils"
)

var contentDispositionPattern = regexp.MustCompile(`filename="?([^";]+)"?`)

// Downloader transfers a candidate's link into the save directory. Direct
// HTTP links are fetched as-is; magnet links are resolved to a .torrent
// file via metadata exchange.
type Downloader struct {
	httpClient    *http.Client
	saveDir       string
	dataPath      string
	magnetTimeout time.Duration
	logger        *utils.Logger
}

func NewDownloader(saveDir, dataPath string, timeout, magnetTimeout time.Duration, logger *utils.Logger) *Downloader {
	return &Downloader{
		httpClient:    &http.Client{Timeout: timeout},
		saveDir:       saveDir,
		dataPath:      dataPath,
		magnetTimeout: magnetTimeout,
		logger:        logger,
	}
}

// Fetch downloads the given link and returns the path it was saved to.
func (d *Downloader) Fetch(link string) (string, error) {
	if err := os.MkdirAll(d.saveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}

	if utils.IsMagnetLink(link) {
		return d.fetchMagnet(link)
	}
	return d.fetchHTTP(link)
}

func (d *Downloader) fetchHTTP(link string) (string, error) {
	resp, err := d.httpClient.Get(link)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch of %s failed with status: %d", link, resp.StatusCode)
	}

	name := FilenameFromResponse(resp.Header.Get("Content-Disposition"), link)
	dest := filepath.Join(d.saveDir, utils.SanitizeFilename(name))

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	d.logger.Debug("Downloaded", link, "->", dest)
	return dest, nil
}

func (d *Downloader) fetchMagnet(link string) (string, error) {
	data, err := utils.ConvertMagnetToTorrent(link, d.magnetTimeout, d.dataPath, d.logger)
	if err != nil {
		return "", err
	}

	name := magnetDisplayName(link)
	dest := filepath.Join(d.saveDir, utils.SanitizeFilename(name)+".torrent")
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}

	d.logger.Debug("Converted magnet", link, "->", dest)
	return dest, nil
}

// FilenameFromResponse picks a filename from the Content-Disposition header,
// falling back to the URL path basename.
func FilenameFromResponse(contentDisposition, link string) string {
	if m := contentDispositionPattern.FindStringSubmatch(contentDisposition); m != nil {
		return path.Base(m[1])
	}

	if u, err := url.Parse(link); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		return path.Base(u.Path)
	}
	return "download"
}

func magnetDisplayName(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "magnet"
	}
	if dn := u.Query().Get("dn"); dn != "" {
		return dn
	}
	if xt := u.Query().Get("xt"); xt != "" {
		return path.Base(xt)
	}
	return "magnet"
}
