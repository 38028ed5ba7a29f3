// Package filesystem exposes one directory tree to the HTTP layer.
//
// The package is organized into small components:
//   - paths: Resolver turns untrusted request paths into ResolvedPath values
//     that are guaranteed to stay within the root
//   - metadata: Classify maps file names to MIME types
//   - directory: Lister enumerates a directory's immediate children
//   - operations: Mutator creates directories and deletes entries
//   - basic: Reader loads file content with a response type
//   - search: Searcher finds entries by glob beneath a directory
//   - provider: Provider ties the components to a root and records metrics
//
// Operations never recurse when mutating, never hold locks and report every
// failure as a github.com/jmgilman/go/errors PlatformError carrying the
// operation name and the request path, never the absolute host path.
//
// Example Usage:
//
//	provider, err := filesystem.NewProvider("./files", filesystem.Options{})
//	result, err := provider.Browse(ctx, "docs/readme.txt")
package filesystem
