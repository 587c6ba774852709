// Package services implements the driving port interfaces.
// Services contain the retrieval, context assembly and workspace
// aggregation logic and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO. The only external packages used are
// golang.org/x/sync for bounded fan-out and google/uuid for document IDs.
package services
