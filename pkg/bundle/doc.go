// Package bundle concatenates combinable assets into cached bundle files
// and serves them over HTTP.
//
// A Builder maps, checks and resolves each requested reference through an
// assets.Resolver. References that cannot be combined are reported back in
// Bundle.Skipped so the page can include them individually. The rest are
// concatenated, minified when enabled, and written to the cache directory
// under a key derived from the kind, the references and their modification
// times:
//
//	b := bundle.NewBuilder(resolver, dispatcher, bundle.Options{
//	    CacheDir: "/var/cache/combine",
//	    Minify:   true,
//	})
//	out, err := b.Build(ctx, bundle.Request{
//	    Kind: minify.KindJS,
//	    Refs: []string{"/js/jquery.js", "/js/app.js?v=3"},
//	})
//
// Editing any included file changes its timestamp and therefore the key, so
// stale bundles are never served. Old bundle files are left in place.
//
// Handler exposes the builder under a chi router. Its /f/ route serves
// skipped references one by one from the same roots. S3Publisher uploads
// finished bundles to object storage for CDN delivery.
package bundle
