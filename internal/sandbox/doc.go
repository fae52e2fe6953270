// Package sandbox describes the isolated environment a build action runs
// in.
//
// An Environment owns a root directory and an ordered list of Mappings.
// Each Mapping binds a Reference (a host path, or a path inside another
// Environment) to a location inside the root, either read-only or
// writable. The package never runs anything: Commands and RunCommand turn
// an Environment into an ordered list of CommandSpec values that an
// executor runs one after the other.
//
// The sandbox-entry tool (proot by default) has no read-only bind, so
// read-only mappings are lowered to one bindfs setup command each, placed
// before the single trailing proot command. Writable mappings become `-b`
// arguments of that trailing command. Two writable mappings that render to
// the same mount spec collide; callers give them distinct aliases.
//
// References into another Environment are resolved through a Resolver,
// normally the Registry that created that Environment. Without one,
// resolution fails with ErrUnsupported rather than guessing a path.
package sandbox
