// Package manifest handles loading, validation, and resolution of the
// vendor bundle manifest for the vendor-bundler CLI.
//
// A manifest declares leaf tasks (bundles and pass-through copies) and
// groups that sequence them. It can be written as JSON with comments
// (JSONC, via github.com/tidwall/jsonc) or as YAML (gopkg.in/yaml.v3).
// When a project has no manifest file, the built-in Default manifest is
// used; it reproduces the project's original vendor build exactly.
//
// Manifests are declarative and relative: Resolve joins every path
// against a project root and produces model.Task values ready for the
// bundle package.
package manifest
