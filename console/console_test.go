package console

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
)

type fakeObjects struct {
	body []byte
	err  error
}

func (f fakeObjects) DumpObjectsMsg() ([]byte, error) { return f.body, f.err }

type fakeSymbols struct {
	body []byte
	err  error
}

func (f fakeSymbols) SymbolTableDump() ([]byte, error) { return f.body, f.err }

func newCtx(path string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.SetRequestURI(path)
	ctx.Init(&req, nil, nil)
	return &ctx
}

func TestRouteObjectsServesMsgpackBody(t *testing.T) {
	c := New(fakeObjects{body: []byte{0x91, 0x01}}, nil, nil)
	ctx := newCtx("/debug/objects")
	c.route(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200", ctx.Response.StatusCode())
	}
	if string(ctx.Response.Body()) != "\x91\x01" {
		t.Fatalf("unexpected body: %q", ctx.Response.Body())
	}
}

func TestRouteObjectsUnavailableWithoutDumper(t *testing.T) {
	c := New(nil, nil, nil)
	ctx := newCtx("/debug/objects")
	c.route(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", ctx.Response.StatusCode())
	}
}

func TestRouteModulesServesCompressedBody(t *testing.T) {
	c := New(nil, fakeSymbols{body: []byte("compressed")}, nil)
	ctx := newCtx("/debug/modules")
	c.route(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Header.Peek("Content-Encoding")); got != "lz4" {
		t.Fatalf("Content-Encoding = %q, want lz4", got)
	}
}

func TestRouteMetricsServesPrometheusExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total"})
	counter.Inc()
	reg.MustRegister(counter)

	c := New(nil, nil, reg)
	ctx := newCtx("/metrics")
	c.route(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200", ctx.Response.StatusCode())
	}
	if len(ctx.Response.Body()) == 0 {
		t.Fatalf("expected non-empty metrics exposition body")
	}
}

func TestRouteUnknownPathNotFound(t *testing.T) {
	c := New(nil, nil, nil)
	ctx := newCtx("/nope")
	c.route(ctx)

	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", ctx.Response.StatusCode())
	}
}
