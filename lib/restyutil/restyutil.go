// Package restyutil dumps full request/response exchanges from a resty
// client to pluggable outputs. Scraping failures against a site that
// A/B tests its markup are near impossible to diagnose from status
// codes alone, so when debug logging is on every exchange gets written
// out for inspection.
package restyutil

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// DebugOutput receives one formatted exchange per completed request.
type DebugOutput interface {
	Write(id string, contents string)
}

// DumpExchanges attaches middleware that writes every exchange to
// `output`. A nil output makes this a no-op, so callers can wire it
// unconditionally and gate it on a flag.
func DumpExchanges(client *resty.Client, output DebugOutput) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		if !slog.Default().Enabled(res.Request.Context(), slog.LevelDebug) {
			return nil
		}
		id := strconv.FormatUint(atomic.AddUint64(&idcounter, 1), 10)
		output.Write(id, formatExchange(res))
		slog.DebugContext(res.Request.Context(), "dumped http exchange",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"exchange_id", id,
		)
		return nil
	})
}

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for key, values := range headers {
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\n", key, value)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

const exchangeTemplate = `---- REQUEST ----

%s %s

%s

---- RESPONSE ----

%d %s

%s

%s`

func formatExchange(res *resty.Response) string {
	requestHeaders := ""
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	responseUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		responseUrl = redirected.String()
	}

	return fmt.Sprintf(
		exchangeTemplate,
		res.Request.Method, res.Request.URL,
		requestHeaders,
		res.StatusCode(), responseUrl,
		formatHeaders(res.Header()),
		res.String(),
	)
}
