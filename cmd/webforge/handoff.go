package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fetcher streams a builder URL.
type fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// downloadHandoff prints the packaging URL, or saves the archive when out
// is set.
type downloadHandoff struct {
	client fetcher
	stdout io.Writer
	out    string
}

func (h *downloadHandoff) Open(ctx context.Context, url string) error {
	if h.out == "" {
		_, err := fmt.Fprintln(h.stdout, url)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(h.out), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := h.out + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	n, err := h.client.Fetch(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, h.out); err != nil {
		return err
	}
	_, err = fmt.Fprintf(h.stdout, "saved %s (%d bytes)\n", h.out, n)
	return err
}
