package telegram

import (
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// debugTransport dumps Bot API traffic at debug level with the token
// masked. Enabled by WithDebug or SIMPOMNI_DEBUG=true.
type debugTransport struct {
	base  http.RoundTripper
	token string
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u := dt.mask(req.URL.String())
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", u).Str("request_dump", dt.mask(string(reqDump))).Msg("telegram request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", u).Msg("telegram request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", u).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("telegram response")
	}
	return resp, nil
}

func (dt *debugTransport) mask(s string) string {
	if dt.token == "" {
		return s
	}
	return strings.ReplaceAll(s, dt.token, "<token>")
}

// DebugRequested reports whether HTTP dumps were asked for via environment.
func DebugRequested() bool {
	return os.Getenv("SIMPOMNI_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
