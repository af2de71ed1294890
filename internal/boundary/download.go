package boundary

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Downloader fetches boundary ZIPs over HTTP with an FTP fallback host,
// applying a shared rate limit across all downloads.
type Downloader struct {
	BaseURL string
	FTPHost string // host:port of the mirror; empty disables the fallback
	limiter *rate.Limiter
}

// NewDownloader creates a downloader limited to ratePerSec requests.
func NewDownloader(baseURL, ftpHost string, ratePerSec float64) *Downloader {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Downloader{
		BaseURL: baseURL,
		FTPHost: ftpHost,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Fetch downloads the ZIP for a geography/state/year combo into destDir and
// extracts it, returning the path to the .shp file. An existing non-empty
// ZIP skips the download.
func (d *Downloader) Fetch(ctx context.Context, g Geography, year int, stateFIPS, destDir string) (string, error) {
	log := zap.L().With(
		zap.String("component", "boundary.download"),
		zap.String("geography", g.Name),
		zap.String("state_fips", stateFIPS),
		zap.Int("year", year),
	)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "boundary: create dest dir")
	}

	path := DownloadPath(g, year, stateFIPS)
	zipName := path[strings.LastIndex(path, "/")+1:]
	zipPath := filepath.Join(destDir, zipName)

	if info, err := os.Stat(zipPath); err == nil && info.Size() > 0 {
		log.Debug("zip already exists, skipping download", zap.String("path", zipPath))
	} else {
		if err := d.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "boundary: rate limit wait")
		}
		log.Info("downloading boundary shapefile")
		if err := d.downloadHTTP(ctx, path, zipPath); err != nil {
			if d.FTPHost == "" {
				return "", eris.Wrap(err, "boundary: download shapefile")
			}
			log.Warn("http download failed, trying ftp mirror", zap.Error(err))
			if ferr := d.downloadFTP(ctx, path, zipPath); ferr != nil {
				return "", eris.Wrap(ferr, "boundary: ftp fallback")
			}
		}
	}

	extractDir := filepath.Join(destDir, strings.TrimSuffix(zipName, ".zip"))
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", eris.Wrap(err, "boundary: create extract dir")
	}
	if err := extractZIP(zipPath, extractDir); err != nil {
		return "", eris.Wrap(err, "boundary: extract ZIP")
	}

	shpPath, err := findFileByExt(extractDir, ".shp")
	if err != nil {
		return "", eris.Wrap(err, "boundary: find .shp file")
	}
	return shpPath, nil
}

// downloadHTTP downloads a TIGER-relative path to a local file.
func (d *Downloader) downloadHTTP(ctx context.Context, relPath, dest string) error {
	url := strings.TrimSuffix(d.BaseURL, "/") + "/" + relPath
	client := &http.Client{Timeout: 10 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "build request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("download returned status %d", resp.StatusCode)
	}

	return writeFile(dest, resp.Body)
}

// downloadFTP retrieves the same path from the Census FTP mirror.
func (d *Downloader) downloadFTP(ctx context.Context, relPath, dest string) error {
	conn, err := ftp.Dial(d.FTPHost, ftp.DialWithContext(ctx), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return eris.Wrap(err, "ftp dial")
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return eris.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr("geo/tiger/" + relPath)
	if err != nil {
		return eris.Wrap(err, "ftp retrieve")
	}
	defer func() { _ = resp.Close() }()

	return writeFile(dest, resp)
}

func writeFile(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, r); err != nil {
		return eris.Wrap(err, "write file")
	}
	return nil
}

// extractZIP extracts a ZIP archive to the destination directory.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		name := filepath.Base(f.Name)
		destPath := filepath.Join(destDir, name)

		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}

	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}
