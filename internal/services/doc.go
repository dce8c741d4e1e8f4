// Package services implements the HTTP client for the IFC extraction backend.
//
// # Endpoints
//
//   - POST /upload/ifc : multipart upload under the ifc_file field, answers {success, message}
//   - POST /choice/material : runs extraction on the uploaded file, answers {success, materials, message}
//   - POST /download/csv : returns the CSV export as an attachment
//   - POST /login : form login; the session cookie is kept in the client's cookie jar
//
// The backend stores the uploaded file in the login session, so one [Client] must be used
// for the whole upload, process and download sequence.
//
// # Error Handling
//
// Every failure is an [APIError] wrapping a sentinel from the shared package:
//   - [shared.ErrAPIRequest] : the request could not be sent or the response body could not be read
//   - [shared.ErrUnexpectedStatus] : non-2xx response
//   - [shared.ErrInvalidResponse] : the body is not the expected JSON
//   - [shared.ErrRejected] : the server answered success=false
//   - [shared.ErrNotAuthenticated] : the request was redirected to the login page
//   - [shared.ErrAuthFailed] : login rejected
//
// [ProgressReader] reports bytes handed to the transport during an upload.
package services
