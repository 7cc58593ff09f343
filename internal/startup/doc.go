// Package startup loads configuration and owns the sectioned startup and
// shutdown logging of the catalog commands.
//
// # Configuration
//
// [LoadConfig] layers, lowest precedence first:
//   - defaults registered by [SetDefaults]
//   - an optional catalog.yaml in the working directory or $HOME/.catalog
//   - CATALOG_* environment variables (dashes become underscores, so
//     duplicate-scope is CATALOG_DUPLICATE_SCOPE)
//   - command-line flags bound by the caller
//
// output-dir and registry-path default to <root>/api/v1 and
// <root>/registry/hashes.db. All paths are made absolute.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
