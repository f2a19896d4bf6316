package forexfactory

import (
	"github.com/go-resty/resty/v2"

	"ffcal/lib/restyutil"
)

var httpDebugOutput restyutil.DebugOutput

// SetHTTPDebugOutput routes every enricher HTTP exchange to `out`. Call
// before constructing an Enricher; nil (the default) disables dumping.
func SetHTTPDebugOutput(out restyutil.DebugOutput) {
	httpDebugOutput = out
}

func instrumentHTTPDebug(client *resty.Client) {
	restyutil.DumpExchanges(client, httpDebugOutput)
}
