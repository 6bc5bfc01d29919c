// Package config provides configuration parsing for combine.
//
// The configuration lives in combine.json, combine.yaml or combine.yml in
// the working directory or one of its parents. Every key has a default, so
// a missing file is not fatal for commands that can run on defaults, and
// COMBINE_* environment variables override file values.
//
// # Configuration File Structure
//
//	{
//	  "paths": {
//	    "web": "public",
//	    "data": "var",
//	    "cache": "var/bundles",
//	    "manifest": "public/manifest.json"
//	  },
//	  "assets": {"prefix": "/static/"},
//	  "enabled": true,
//	  "js": {"class": "tdewolff/js", "options": {"precision": 3}},
//	  "css": {"class": "tdewolff/css", "method": "inline"},
//	  "exclude": {
//	    "js": ["tinymce.js", "/\\.min\\.js$/i"],
//	    "css": ["print.css"]
//	  },
//	  "http": {
//	    "gzip": true,
//	    "legacyUserAgentCheck": true,
//	    "pragma": "public",
//	    "clientCacheMaxAge": 30
//	  },
//	  "server": {
//	    "address": ":8080",
//	    "prefix": "/combine",
//	    "metrics": true,
//	    "shutdownTimeout": "10s"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Web root:", cfg.WebDir())
package config
