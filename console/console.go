// Package console implements the debug/introspection HTTP surface that
// replaces the BSP console pump named out of scope by spec.md (a Go
// process has no BSP ring buffer to drive). Grounded on
// github.com/valyala/fasthttp, exposing the live object table, the
// module symbol registry, and the prometheus metrics registered by the
// metrics package on a single listener.
package console

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/nasa-osal/osal-go/cmn/nlog"
	"github.com/nasa-osal/osal-go/core"
	"github.com/nasa-osal/osal-go/module"
)

// ObjectDumper is the subset of *core.Manager the console needs to serve
// /debug/objects, kept narrow so tests can fake it without a real Manager.
type ObjectDumper interface {
	DumpObjectsMsg() ([]byte, error)
}

// SymbolDumper is the subset of *module.Table the console needs to serve
// /debug/modules.
type SymbolDumper interface {
	SymbolTableDump() ([]byte, error)
}

var _ ObjectDumper = (*core.Manager)(nil)
var _ SymbolDumper = (*module.Table)(nil)

// Console owns the fasthttp.Server and the handlers bound to it; it
// never starts listening on construction, matching the teacher's pattern
// of separating wiring from ListenAndServe.
type Console struct {
	objects ObjectDumper
	symbols SymbolDumper
	reg     *prometheus.Registry

	srv *fasthttp.Server
}

// New builds a Console. reg is the registry the metrics package
// registered its counters/gauges on; objects and symbols may be nil, in
// which case the corresponding endpoint reports 503.
func New(objects ObjectDumper, symbols SymbolDumper, reg *prometheus.Registry) *Console {
	c := &Console{objects: objects, symbols: symbols, reg: reg}
	c.srv = &fasthttp.Server{
		Handler: c.route,
		Name:    "osal-debug-console",
	}
	return c
}

// ListenAndServe blocks serving the console on addr (e.g. ":6060"),
// mirroring OS_ConsoleWrite's original role as the always-on diagnostic
// channel -- here reachable over HTTP instead of a serial port.
func (c *Console) ListenAndServe(addr string) error {
	nlog.Infoln("debug console listening on", addr)
	return c.srv.ListenAndServe(addr)
}

// Shutdown stops the listener gracefully.
func (c *Console) Shutdown() error {
	return c.srv.Shutdown()
}

func (c *Console) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/debug/objects":
		c.handleObjects(ctx)
	case "/debug/modules":
		c.handleModules(ctx)
	case "/metrics":
		c.handleMetrics(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (c *Console) handleObjects(ctx *fasthttp.RequestCtx) {
	if c.objects == nil {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		return
	}
	body, err := c.objects.DumpObjectsMsg()
	if err != nil {
		nlog.Errorln("console: DumpObjectsMsg:", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/msgpack")
	ctx.SetBody(body)
}

func (c *Console) handleModules(ctx *fasthttp.RequestCtx) {
	if c.symbols == nil {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		return
	}
	body, err := c.symbols.SymbolTableDump()
	if err != nil {
		nlog.Errorln("console: SymbolTableDump:", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/octet-stream")
	ctx.Response.Header.Set("Content-Encoding", "lz4")
	ctx.SetBody(body)
}

// handleMetrics adapts promhttp's standard net/http handler onto fasthttp
// via fasthttpadaptor, rather than reimplementing the prometheus text
// exposition format by hand.
func (c *Console) handleMetrics(ctx *fasthttp.RequestCtx) {
	if c.reg == nil {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		return
	}
	handler := promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
	fasthttpadaptor.NewFastHTTPHandler(handler)(ctx)
}
