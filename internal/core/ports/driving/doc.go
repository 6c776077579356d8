// Package driving defines interfaces that external actors (CLI, MCP) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Inputs and outputs are plain domain structs so callers never depend on
// adapter types. Implementations live in internal/core/services.
package driving
