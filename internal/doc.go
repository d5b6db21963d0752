// Package internal contains the implementation packages of assetforge.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: Configuration loading (viper, .env files) and validation
//   - pipeline: Task composition, execution, mode flags and error interception
//   - tasks: One task per asset category and the start/build entry points
//   - include, minify, imaging, svgsprite: The transformations behind the tasks
//   - glob: Doublestar source globs with brace alternatives
//   - cache: Content hashes of written outputs to skip unchanged writes
//   - watcher: File system monitoring with debouncing and watch bindings
//   - server: Static dev server, live reload hub and browser client
//   - publish: Mirroring the build directory into object storage
//   - scaffolding: Starter project generation
//   - errors, logging, metrics, version: Ambient support
//
// # Data Flow
//
// A command builds a pipeline.Env from the configuration and runs one task
// graph through pipeline.Exec. In watch mode the server package installs
// its hub as the environment's notifier, the watcher routes changed paths
// to the tasks bound to them, and failures of interceptable tasks are
// shown in the browser instead of stopping the loop.
package internal
