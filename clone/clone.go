// Package clone glues ref discovery, pack fetch, pack decode, and
// checkout together into the single clone(repo_url, target_dir)
// operation.
package clone

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example-labs/gitclone/checkout"
	"github.com/example-labs/gitclone/discover"
	"github.com/example-labs/gitclone/fetch"
	"github.com/example-labs/gitclone/packfile"
	"github.com/example-labs/gitclone/store"
)

// Options configures a Clone call beyond its two required arguments.
type Options struct {
	// Transport performs the ref discovery and upload-pack HTTP
	// exchanges. Required.
	Transport fetch.Transport
	// DumpPackPath, if non-empty, receives a copy of the raw packfile
	// bytes as the decoder reads them — useful for rerunning the decode
	// phase offline. If decoding stops early, the copy holds only the
	// bytes read up to that point.
	DumpPackPath string
	// Progress, if non-nil, receives one-line phase updates.
	Progress func(string)
}

func (o *Options) log(format string, a ...interface{}) {
	if o.Progress != nil {
		o.Progress(fmt.Sprintf(format, a...))
	}
}

// Clone discovers repoURL's default ref, fetches the corresponding
// packfile, decodes it into a fresh object store rooted at targetDir,
// and checks out the resulting commit's tree into targetDir.
// targetDir is created if it does not exist.
func Clone(ctx context.Context, repoURL, targetDir string, opts Options) error {
	if opts.Transport == nil {
		return fmt.Errorf("clone: no transport configured")
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("clone: creating target directory: %w", err)
	}

	opts.log("discovering refs for %s", repoURL)
	refBody, err := opts.Transport.DiscoverRefs(ctx, repoURL)
	if err != nil {
		return fmt.Errorf("clone: discovering refs: %w", err)
	}
	adv, err := discover.Discover(refBody)
	refBody.Close()
	if err != nil {
		return fmt.Errorf("clone: parsing ref advertisement: %w", err)
	}

	opts.log("fetching pack for tip %s", adv.Tip)
	respBody, err := opts.Transport.UploadPack(ctx, repoURL, fetch.BuildWantRequest(adv.Tip))
	if err != nil {
		return fmt.Errorf("clone: requesting pack: %w", err)
	}
	defer respBody.Close()
	packReader, err := fetch.ExtractPack(respBody)
	if err != nil {
		return fmt.Errorf("clone: extracting pack: %w", err)
	}
	if opts.DumpPackPath != "" {
		f, err := os.Create(opts.DumpPackPath)
		if err != nil {
			return fmt.Errorf("clone: dumping pack: %w", err)
		}
		packReader = io.TeeReader(packReader, f)
		defer f.Close()
	}

	s, err := store.Open(targetDir)
	if err != nil {
		return fmt.Errorf("clone: opening object store: %w", err)
	}

	opts.log("decoding pack")
	if err := decodePack(packReader, s); err != nil {
		return fmt.Errorf("clone: decoding pack: %w", err)
	}

	opts.log("checking out %s", adv.Tip)
	if err := checkout.Checkout(s, adv.Tip, targetDir); err != nil {
		return fmt.Errorf("clone: checkout: %w", err)
	}
	return nil
}

func decodePack(r io.Reader, s *store.Filesystem) error {
	pr, err := packfile.NewReader(r, s)
	if err != nil {
		return err
	}
	for {
		id, obj, err := pr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		data, err := obj.MarshalBinary()
		if err != nil {
			return err
		}
		if err := s.PutRaw(id, data); err != nil {
			return err
		}
	}
	return pr.Close()
}

// PackPath returns the conventional location to dump a fetched
// packfile under targetDir, for callers that want Options.DumpPackPath
// set to something predictable.
func PackPath(targetDir string) string {
	return filepath.Join(targetDir, ".pack")
}
