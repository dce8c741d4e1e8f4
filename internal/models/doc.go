// Package models defines the domain entities of the IFC material-list workflow.
//
// The package contains two categories of types:
//
// 1. Transfer objects exchanged with the extraction backend:
//   - [MaterialRecord] : one extracted structural element with optional geometric/material properties
//   - [MaterialList] : materials in server response order
//   - [Measure] : an optional numeric property that tolerates numbers, numeric strings and null
//   - [UploadFile] : the selected local file handle
//   - [Artifact] : the transient in-memory CSV payload returned by the export endpoint
//
// 2. Persistent entities:
//   - [Run] : one workflow run (upload → process → download) kept in the local history
//
// [Run] implements the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
