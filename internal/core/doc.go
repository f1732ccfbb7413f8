// Package core provides the business logic for certificate batch generation.
//
// This package is the heart of the engine, containing all domain logic
// independent of any transport layer. It can be used by web handlers, CLI
// tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Service: The main entry point for all operations (generate, validate,
//     cancel, archive download).
//   - Batches: Each generation run is an asynchronous batch with its own
//     lifecycle, progress stream and result.
//   - Limiter: A semaphore bounds how many batches render concurrently so
//     one tenant cannot starve the process.
//
// # Batch Lifecycle
//
// A batch moves through phases from submission to a terminal state:
//
//  1. Client calls [Service.StartBatch] with a template ID and spreadsheet
//  2. The roster is ingested, headers resolved, and records normalized
//  3. A worker pool renders one certificate per recipient; per-record
//     failures are recorded, not fatal
//  4. Survivors are packaged into a zip with a failure manifest
//  5. Progress is broadcast to subscribers via [Service.Subscribe]
//
// Terminal phases are complete, failed, and cancelled. Results stay
// available for a retention window after the batch finishes.
//
// # Validation
//
// [Service.Analyze] runs the same preparation pipeline as a real batch
// (template catalog, column resolution, normalization, deduplication) but
// renders nothing, so clients can preview column mappings and recipient
// counts before committing.
//
// # Error Handling
//
// Structural errors (bad file, missing columns, unknown template) reject
// the whole batch before rendering starts. Per-record render errors mark
// only that recipient as failed. Technical errors are mapped to
// user-facing messages with stable codes via the errs package.
package core
