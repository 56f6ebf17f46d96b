package client

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog/log"
)

// debugTransport logs every request/response pair through zerolog.
//
// Enable with SOURCEFINDER_DEBUG=true (or DEBUG=true) or WithDebugLogging.
// Request bodies are not dumped for multipart uploads, since dumping would
// consume the streamed file before the real transport sees it.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}

	dumpBody := req.ContentLength >= 0 && req.GetBody != nil
	if reqDump, err := httputil.DumpRequestOut(req, dumpBody); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested reports whether SOURCEFINDER_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("SOURCEFINDER_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
