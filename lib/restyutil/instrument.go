package restyutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// InstrumentClient writes every completed HTTP exchange made by the client
// to output, named "<prefix>-<n>.txt". A nil output makes this a no-op.
func InstrumentClient(client *resty.Client, prefix string, output Output) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(&idcounter, 1)
		output.Write(
			fmt.Sprintf("%s-%d.txt", prefix, id),
			FormatExchange(res),
		)
		return nil
	})
}

func formatHeaders(out *strings.Builder, headers map[string][]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(out, "%s: %s\n", k, v)
		}
	}
}

// FormatExchange renders a request/response pair in a plain text layout
// that is easy to diff between runs.
func FormatExchange(res *resty.Response) string {
	var out strings.Builder

	out.WriteString("---- REQUEST ----\n\n")
	fmt.Fprintf(&out, "%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		formatHeaders(&out, res.Request.RawRequest.Header)
	}

	out.WriteString("\n---- RESPONSE ----\n\n")
	responseUrl := res.Request.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		responseUrl = res.RawResponse.Request.URL.String()
	}
	fmt.Fprintf(&out, "%s %s\n\n", strconv.Itoa(res.StatusCode()), responseUrl)
	formatHeaders(&out, res.Header())
	out.WriteString("\n")
	out.Write(res.Body())

	return out.String()
}
