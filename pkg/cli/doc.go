// Package cli implements the dbxc command-line interface.
//
// # Commands
//
// list - print runtimes published in the catalog:
//
//	dbxc list [--catalog INDEX] [--format table|json|yaml] [--lts]
//
// build - write the Dockerfile tree and build summary:
//
//	dbxc build [--data-dir data] [--registry ghcr.io/twsl] [--latest-lts-count 2]
//	           [--runtime-version "17.3 LTS" [--ml]] [--image-type python]
//	           [--force-os-version 22.04] [--no-os-upgrade] [--threads 5]
//	           [--checksums] [--metrics-file FILE]
//
// Prints "X/Y runtimes completed". Images that fail to generate are logged
// and skipped; a catalog failure exits non-zero.
//
// generate-matrix - print the CI matrix as one JSON line:
//
//	dbxc generate-matrix [--data-dir data] [--only-lts] [--image-type python]
//	                     [--latest-lts-count N]
//
// publish - package the tree as an OCI artifact and push it:
//
//	dbxc publish --target oci://ghcr.io/twsl/dbx-runtime-dockerfiles:2025.10.01
//
// # Global Flags
//
//	--log-level    debug, info, warn, error (env DBXC_LOG_LEVEL or LOG_LEVEL)
//	--config, -c   YAML config file (env DBXC_CONFIG)
//
// # Configuration
//
// Values are resolved in this order, later winning: built-in defaults, the
// config file, DBXC_* environment variables, explicit flags.
//
//	data_dir: data
//	catalog: catalog/index.yaml
//	registry: ghcr.io/twsl
//	latest_lts_count: 2
//	allow_os_upgrade: true
//	max_workers: 5
package cli
