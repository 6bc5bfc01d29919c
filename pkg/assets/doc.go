// Package assets decides which script and style references can be combined
// into a bundle and where they live on disk.
//
// A reference is the string a page uses to include an asset: a URL
// ("https://cdn.example.com/x.js"), an absolute server path
// ("/js/app.js"), or either of those with a query suffix
// ("/js/app.js?v=3").
//
// # Eligibility
//
//	r := assets.NewResolver("/srv/www", "/srv/data")
//	r.CombinableFile("/js/app.js?v=3", []string{"jquery.js", `#^/vendor/#`})
//
// A reference is rejected when it is remote, when it matches the exclusion
// list in its raw or query-stripped form, or when it is an absolute path that
// none of the candidate roots contains.
//
// # Exclusion lists
//
// Each entry matches a reference when it equals the reference, equals the
// reference's basename, or is a delimited regular expression that matches the
// reference (see CompilePattern). Entries that are not valid patterns never
// match as patterns.
//
// # Candidate roots
//
// References are resolved against the web directory first and then against
// "<data dir>/web". The first existing file wins.
//
// # Timestamps
//
// ModifiedTimestamp returns the file's modification time in epoch seconds, or
// 0 when the reference is not combinable or cannot be resolved. An optional
// PathMapper rewrites the reference first; Manifest.Mapper and PrefixMapper
// provide versioned-asset and prefix schemes.
package assets
