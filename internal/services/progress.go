package services

import "io"

// ProgressReader wraps a reader to track how many bytes the transport has consumed.
//
// Use this to report upload progress by providing an OnUpdate callback
// that receives the current bytes read and total expected bytes.
type ProgressReader struct {
	// Reader is the underlying request body.
	Reader io.Reader

	// Total is the expected total bytes (the request Content-Length).
	Total int64

	// Sent is the current number of bytes read.
	Sent int64

	// OnUpdate is called after each Read that returned data.
	OnUpdate func(sent, total int64)
}

// Read implements io.Reader, tracking progress and calling OnUpdate.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.Sent += int64(n)
		if pr.OnUpdate != nil {
			pr.OnUpdate(pr.Sent, pr.Total)
		}
	}
	return n, err
}
