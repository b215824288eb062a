// Package catalog provides the runtimes artifacts are generated for.
//
// A catalog is an index document listing releases:
//
//	releases:
//	  - version: "17.3 LTS"
//	    release_date: "2025-10-01"
//	    end_of_support_date: "2028-10-01"
//	    spark_version: "4.0.0"
//	    url: runtimes/17.3lts.yaml
//	    ml_url: runtimes/17.3lts-ml.yaml
//
// plus one document per runtime with its system environment and included
// libraries. ML documents may add gpu_libraries, which appear under the
// "gpu" ecosystem. Documents can be YAML or JSON, on disk or over http(s).
//
// Client fetches runtime documents concurrently under a rate limiter and an
// overall timeout. Static serves a fixed list.
package catalog
