// Package server wires the asset resolver, the minifiers and the bundle
// builder behind a chi router.
//
// Routes:
//
//	GET  /healthz                      liveness probe
//	GET  /metrics                      Prometheus metrics (when enabled)
//	GET  {prefix}/{kind}?f=...&f=...   build and serve a bundle
//	GET  {prefix}/b/{name}             serve a cached bundle
//	POST {prefix}/minify/{kind}        minify the request body
//
// Every request gets a request ID, the real client IP, panic recovery, a
// server span and, when enabled, request metrics. Bundle routes sit behind
// the gzip gate.
//
//	cfg, _ := config.LoadFromWorkingDir()
//	srv, err := server.New(cfg, server.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return srv.Run(ctx)
package server
