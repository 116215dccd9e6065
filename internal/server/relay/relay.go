// Package relay copies an upstream body to an HTTP response as bytes arrive.
package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
)

const chunkSize = 32 * 1024

// Copy writes body to w, flushing after every chunk when w supports it.
// body is closed when Copy returns or as soon as ctx is done, whichever
// happens first, so a gone client releases the upstream connection.
func Copy(ctx context.Context, w io.Writer, body io.ReadCloser) (int64, error) {
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer func() {
		if stop() {
			_ = body.Close()
		}
	}()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, chunkSize)

	var written int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return written, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, ctxErr
			}
			return written, rerr
		}
	}
}
