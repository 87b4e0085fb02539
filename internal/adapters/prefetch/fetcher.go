// Package prefetch downloads package content at conversion time. It fills
// in missing integrity hashes (Nix refuses fixed-output derivations without
// one) and warms the local content store consumed by install and build.
package prefetch

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// fetchConcurrency caps parallel downloads.
const fetchConcurrency = 16

// Fetcher implements ports.Prefetcher over HTTP with a persistent cache.
type Fetcher struct {
	logger   ports.Logger
	cache    *Cache
	storeDir string
	client   *http.Client
}

// NewFetcher creates a Fetcher. The cache may be nil, in which case every
// missing hash is downloaded. An empty storeDir disables store warming and
// only hashes are computed.
func NewFetcher(logger ports.Logger, cache *Cache, storeDir string) *Fetcher {
	return &Fetcher{
		logger:   logger,
		cache:    cache,
		storeDir: storeDir,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}
}

// Prefetch downloads every fetchable entry that lacks an integrity hash or
// is absent from the content store, mutating the manifest in place. Registry
// and tarball entries fetch their tarball URL; git entries fetch their
// revision archive when the host serves one. Downloaded content is verified against the lockfile hash when
// one exists. Downloads run concurrently; the first failure cancels the
// rest, and entries already satisfied are never touched.
func (f *Fetcher) Prefetch(ctx context.Context, m *domain.Manifest) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i := range m.Entries {
		entry := &m.Entries[i]
		switch entry.Descriptor.Kind {
		case domain.FetchLocalPath:
			continue
		case domain.FetchGit:
			// Without a revision archive there is no blob to hash over HTTP;
			// the emitted entry pins through an empty hash instead, and
			// nix-prefetch-git can pin it up front.
			if entry.Descriptor.ArchiveURL == "" {
				if entry.Descriptor.Integrity == "" {
					f.logger.Warn(fmt.Sprintf("no integrity for git package %s; pin it with nix-prefetch-git %s", entry.ID, entry.Descriptor.URL))
				}
				continue
			}
		}

		needsHash := entry.Descriptor.Integrity == ""
		needsStore := f.storeDir != "" && !f.inStore(entry.ID)
		if !needsHash && !needsStore {
			continue
		}

		g.Go(func() error {
			return f.fetchOne(ctx, entry, needsHash, needsStore)
		})
	}

	return g.Wait()
}

// Close releases the cache handle.
func (f *Fetcher) Close() error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Close()
}

func (f *Fetcher) inStore(id string) bool {
	_, err := os.Stat(domain.StorePath(f.storeDir, id))
	return err == nil
}

func (f *Fetcher) fetchOne(ctx context.Context, entry *domain.ManifestEntry, needsHash, needsStore bool) error {
	url := entry.Descriptor.FetchURL()

	// A cache hit satisfies a hash-only fetch without touching the network.
	if needsHash && !needsStore && f.cache != nil {
		cached, err := f.cache.Get(ctx, url)
		if err != nil {
			return err
		}
		if cached != "" {
			entry.Descriptor.Integrity = cached
			return nil
		}
	}

	f.logger.Info("prefetching " + url)

	body, hashSRI, err := f.download(ctx, url, entry.Descriptor.Integrity)
	if err != nil {
		return err
	}
	defer os.Remove(body)

	if needsHash {
		entry.Descriptor.Integrity = hashSRI
		if f.cache != nil {
			if err := f.cache.Put(ctx, url, entry.Name, hashSRI); err != nil {
				return err
			}
		}
	}

	if needsStore {
		dest := domain.StorePath(f.storeDir, entry.ID)
		if err := unpackTarball(body, dest); err != nil {
			err = zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
			return zerr.With(err, "id", entry.ID)
		}
	}

	return nil
}

// download fetches the url to a temporary file, verifying it against the
// declared SRI hash when one is given. It returns the temp file path and
// the sha256 SRI of the body.
func (f *Fetcher) download(ctx context.Context, url, declared string) (path, hashSRI string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		err = zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
		return "", "", zerr.With(err, "url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := zerr.With(domain.ErrPrefetchFailed, "url", url)
		return "", "", zerr.With(err, "status", resp.Status)
	}

	tmp, err := os.CreateTemp("", "burrow-prefetch-*")
	if err != nil {
		return "", "", zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
	}

	h256 := sha256.New()
	writers := []io.Writer{tmp, h256}

	var declaredHasher hash.Hash
	if declared != "" {
		declaredHasher = sriHasher(declared)
		if declaredHasher != nil {
			writers = append(writers, declaredHasher)
		}
	}

	if _, err := io.Copy(io.MultiWriter(writers...), resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		err = zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
		return "", "", zerr.With(err, "url", url)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", zerr.Wrap(err, domain.ErrPrefetchFailed.Error())
	}

	if declaredHasher != nil {
		got := sriPrefix(declared) + base64.StdEncoding.EncodeToString(declaredHasher.Sum(nil))
		if got != declared {
			os.Remove(tmp.Name())
			mismatch := zerr.With(domain.ErrIntegrityMismatch, "url", url)
			mismatch = zerr.With(mismatch, "declared", declared)
			return "", "", zerr.With(mismatch, "got", got)
		}
	}

	return tmp.Name(), SRI(h256.Sum(nil)), nil
}

// SRI formats a sha256 digest as a subresource-integrity string.
func SRI(digest []byte) string {
	return "sha256-" + base64.StdEncoding.EncodeToString(digest)
}

// sriHasher returns the hash matching an SRI string's algorithm prefix, or
// nil for algorithms we do not verify.
func sriHasher(sri string) hash.Hash {
	switch {
	case strings.HasPrefix(sri, "sha512-"):
		return sha512.New()
	case strings.HasPrefix(sri, "sha256-"):
		return sha256.New()
	default:
		return nil
	}
}

func sriPrefix(sri string) string {
	if i := strings.Index(sri, "-"); i >= 0 {
		return sri[:i+1]
	}
	return ""
}
