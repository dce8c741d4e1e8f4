// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI hosts a single [workflow.Controller] and shows, top to bottom:
//  1. the file path input (bubbles/textinput)
//  2. the upload progress bar (bubbles/progress) and the current stage, with a spinner while a call is outstanding
//  3. the extracted materials as a table with a count, replaced wholesale on every render
//  4. the most recent notices
//
// Controller Tasks are wrapped in tea.Cmd values; their results come back as workflow messages.
// Upload progress flows through a channel read by a re-armed command, so the transport never blocks on rendering.
//
// Key bindings mirror the controller's enabled actions: a disabled action's key is inert and hidden from the help line.
// The [HistoryView] lists past runs when a history source is configured.
package ui
