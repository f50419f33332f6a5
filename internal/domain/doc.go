// Package domain models the chunk-job wire format exchanged with the
// chunked evaluation driver.
//
// # Data flow
//
// An upstream driver (a dask-style chunked array scheduler, or any batch
// splitter) cuts the global climate grids into spatial sub-blocks and
// publishes one ChunkJob per block to the source topic. Each job carries the
// three field chunks (observed reference, historical simulation, application
// simulation), the variable name, the adjustment method, and optional
// parameter overrides. The service adjusts each chunk independently and
// publishes a ChunkResult to the sink topic; x_offset/y_offset pass through
// untouched so the driver can place the result block in the global grid.
//
// # Wire conventions
//
// Grids are row-major float64 over [time, x, y] with an explicit shape.
// Dates, when a method needs them, are RFC3339 strings, one per time step.
// Variable names follow CMIP short names (tas, pr, hurs, ...); method names
// are the Method* constants. Result messages are keyed by job ID and carry
// variable, method, and processed_at headers for consumers that route
// without deserializing the payload.
//
// Because chunk jobs are adjusted independently and results are keyed by
// job ID, reprocessing a job after a consumer-group rebalance produces an
// identical result message; downstream assembly is replay-safe.
package domain
