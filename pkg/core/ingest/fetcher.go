package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"controlbot/pkg/models"
)

// Format is an input file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("UNSUPPORTED_FORMAT: %s (expected .csv, .xlsx or .html)", name)
}

// Read parses r according to format.
func Read(r io.Reader, name string, format Format) (models.RawTable, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r, name)
	case FormatXLSX:
		return ReadXLSX(r, name, "")
	case FormatHTML:
		return ReadHTML(r, name)
	}
	return models.RawTable{Name: name}, fmt.Errorf("UNSUPPORTED_FORMAT: %q", format)
}

// ReadFile reads a local file, or fetches it when p is an http(s) URL.
func ReadFile(ctx context.Context, p string) (models.RawTable, error) {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return NewFetcher(nil).Fetch(ctx, p)
	}
	format, err := DetectFormat(p)
	if err != nil {
		return models.RawTable{Name: filepath.Base(p)}, err
	}
	f, err := os.Open(p)
	if err != nil {
		return models.RawTable{Name: filepath.Base(p)}, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(p), format)
}

// ReadFiles reads several inputs concurrently. The result keeps the
// argument order; the first failure cancels the rest.
func ReadFiles(ctx context.Context, paths []string) ([]models.RawTable, error) {
	tables := make([]models.RawTable, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := ReadFile(ctx, p)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// maxFetchBytes bounds a downloaded table.
const maxFetchBytes = 32 << 20

// Fetcher downloads project lists published over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{httpClient: client}
}

// Fetch downloads url and parses it. The format comes from the
// Content-Type and falls back to the URL path extension.
func (f *Fetcher) Fetch(ctx context.Context, url string) (models.RawTable, error) {
	name := path.Base(strings.SplitN(url, "?", 2)[0])
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.RawTable{Name: name}, err
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.RawTable{Name: name}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("read %s: %w", url, err)
	}
	if len(body) > maxFetchBytes {
		return models.RawTable{Name: name}, fmt.Errorf("fetch %s: body exceeds %d bytes", url, maxFetchBytes)
	}

	format, err := formatFromContentType(resp.Header.Get("Content-Type"))
	if err != nil {
		if format, err = DetectFormat(name); err != nil {
			return models.RawTable{Name: name}, err
		}
	}
	return Read(bytes.NewReader(body), name, format)
}

func formatFromContentType(ct string) (Format, error) {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", err
	}
	switch mt {
	case "text/csv", "text/tab-separated-values":
		return FormatCSV, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatXLSX, nil
	case "text/html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown content type %q", mt)
}
