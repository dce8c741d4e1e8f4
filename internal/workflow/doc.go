// Package workflow coordinates the upload → extraction → CSV export pipeline for a single session.
//
// # Controller
//
// [Controller] owns the [Session] and is mutated from exactly one loop. User actions
// ([Controller.Submit], [Controller.Process], [Controller.Download]) validate against
// [Controller.Controls] and return a [Task]. The host runs the Task off-loop and feeds
// the resulting [Msg] back through [Controller.Update], which may return a follow-up
// Task (the settle delay after a successful upload).
//
// Every Msg carries the attempt number it was issued under. A Msg from a superseded
// attempt (after a reset or a new submission) is dropped, so a late response or tick
// never mutates a later session.
//
// # Progress
//
// Upload progress comes from a [Reporter]: [EventReporter] converts byte-level callbacks
// into percentages, [SimulatedReporter] ramps on a ticker up to a ceiling below 100.
// Only a confirmed upload success moves progress to 100.
//
// # Failures
//
// Every stage boundary turns an error into one [Failure] (kind + message) and one [Notice].
// Failures wrap the sentinels from the shared package:
//   - [KindLocalValidation]: [shared.ErrNoFileSelected], [shared.ErrFileTooLarge], [shared.ErrUnsupportedFile]
//   - [KindTransport]: [shared.ErrAPIRequest], [shared.ErrUnexpectedStatus], [shared.ErrNotAuthenticated]
//   - [KindProtocol]: [shared.ErrInvalidResponse]
//   - [KindApplication]: [shared.ErrRejected], [shared.ErrNoMaterials]
//
// # Hosts
//
// The TUI wraps Tasks in tea.Cmd values. Headless commands use [Loop].
package workflow
