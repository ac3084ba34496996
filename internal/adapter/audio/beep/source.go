package beep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// media is a resolved media reference.
type media struct {
	ref    string // as given by the caller
	target string // file path or URL to open
	remote bool
	ext    string
}

// resolve validates a media reference without opening it.
func resolve(ref string) (media, error) {
	if strings.TrimSpace(ref) == "" {
		return media{}, domain.ErrInvalidMediaRef
	}

	m := media{ref: ref, target: ref}
	p := ref

	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return media{}, domain.NewAudioEngineError("load", ref, "invalid media URL",
				fmt.Errorf("%w: %w", domain.ErrInvalidMediaRef, err))
		}
		switch u.Scheme {
		case "http", "https":
			m.remote = true
			p = u.Path
		case "file":
			m.target = u.Path
			p = u.Path
		default:
			return media{}, domain.NewAudioEngineError("load", ref,
				"unsupported scheme "+u.Scheme, domain.ErrInvalidMediaRef)
		}
	}

	m.ext = strings.ToLower(path.Ext(p))
	if !slices.Contains(supportedFormats, m.ext) {
		return media{}, domain.NewAudioEngineError("load", ref,
			fmt.Sprintf("unsupported format %q", m.ext), domain.ErrUnsupportedFormat)
	}

	if !m.remote {
		if _, err := os.Stat(m.target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return media{}, domain.NewAudioEngineError("load", ref, "file not found", domain.ErrFileNotFound)
			}
			return media{}, domain.NewAudioEngineError("load", ref, "cannot stat file", err)
		}
	}

	return m, nil
}

// source is one decoded media stream.
type source struct {
	stream gobeep.StreamSeekCloser
	format gobeep.Format
	closer io.Closer
}

// Close releases the decoder and its input.
func (s *source) Close() error {
	err := s.stream.Close()
	if s.closer != nil {
		_ = s.closer.Close()
	}
	return err
}

// memoryFile keeps downloaded media seekable for the decoders.
type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

// open fetches and decodes m. Cancelling ctx aborts a download in flight.
func open(ctx context.Context, client *http.Client, m media) (*source, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if m.remote {
		rc, err = download(ctx, client, m.target, maxDownloadSize)
	} else {
		rc, err = os.Open(m.target)
	}
	if err != nil {
		return nil, err
	}

	src, err := decode(rc, m.ext)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return src, nil
}

// download reads the whole body of target into memory. Bodies larger than
// limit fail with domain.ErrMediaTooLarge rather than decoding a truncated file.
func download(ctx context.Context, client *http.Client, target string, limit int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("fetch media: body over %d bytes: %w", limit, domain.ErrMediaTooLarge)
	}
	return memoryFile{bytes.NewReader(data)}, nil
}

func decode(rc io.ReadCloser, ext string) (*source, error) {
	var (
		stream gobeep.StreamSeekCloser
		format gobeep.Format
		err    error
	)

	switch ext {
	case extMP3:
		stream, format, err = mp3.Decode(rc)
	case extWAV:
		stream, format, err = wav.Decode(rc)
	case extFLAC:
		stream, format, err = flac.Decode(rc)
	case extOGG, extOGA:
		stream, format, err = vorbis.Decode(rc)
	default:
		return nil, domain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ext, err)
	}

	return &source{stream: stream, format: format, closer: rc}, nil
}
