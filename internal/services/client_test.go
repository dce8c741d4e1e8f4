package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
	tu "github.com/desertthunder/ifcmat/internal/testing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func assertAPIError(t *testing.T, err error, sentinel error) *APIError {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	return apiErr
}

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			c := NewClient(ClientOpts{})
			if c.BaseURL() != defaultBaseURL {
				t.Errorf("expected base URL %s, got %s", defaultBaseURL, c.BaseURL())
			}
			if c.fieldName != "ifc_file" || c.loginPath != "/login" {
				t.Errorf("unexpected defaults: %s %s", c.fieldName, c.loginPath)
			}
			if c.httpClient.Jar == nil {
				t.Error("expected a cookie jar")
			}
			if !c.SupportsProgress() {
				t.Error("expected byte-level progress support")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			c := NewClient(ClientOpts{BaseURL: "http://example.com/"})
			if c.BaseURL() != "http://example.com" {
				t.Errorf("unexpected base URL %s", c.BaseURL())
			}
		})
	})

	t.Run("Upload", func(t *testing.T) {
		t.Run("Sends Multipart Body And Reports Progress", func(t *testing.T) {
			content := strings.Repeat("IFC;", 4096)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != UploadPath {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				file, header, err := r.FormFile("ifc_file")
				if err != nil {
					t.Errorf("expected ifc_file field: %v", err)
					writeJSON(w, http.StatusBadRequest, map[string]any{"success": false})
					return
				}
				defer file.Close()

				data, _ := io.ReadAll(file)
				if string(data) != content {
					t.Errorf("uploaded content mismatch: %d bytes", len(data))
				}
				if header.Filename != "model.ifc" {
					t.Errorf("expected filename model.ifc, got %s", header.Filename)
				}
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "OK"})
			}))
			defer server.Close()

			file := tu.MustUploadFile(t, t.TempDir(), "model.ifc", content)

			var mu sync.Mutex
			var last, total int64
			calls := 0
			c := NewClient(ClientOpts{BaseURL: server.URL})
			resp, err := c.Upload(context.Background(), file, func(sent, tot int64) {
				mu.Lock()
				defer mu.Unlock()
				if sent < last {
					t.Errorf("progress went backwards: %d -> %d", last, sent)
				}
				last, total = sent, tot
				calls++
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.Success || resp.Message != "OK" {
				t.Errorf("unexpected response %+v", resp)
			}

			mu.Lock()
			defer mu.Unlock()
			if calls == 0 {
				t.Fatal("expected progress callbacks")
			}
			if last != total || total <= file.Size {
				t.Errorf("expected the whole body to be reported, got %d/%d", last, total)
			}
		})

		t.Run("Rejected With Message", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "IFCファイルのみ"})
			}))
			defer server.Close()

			file := tu.MustUploadFile(t, t.TempDir(), "model.ifc", "data")
			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Upload(context.Background(), file, nil)
			apiErr := assertAPIError(t, err, shared.ErrRejected)
			if apiErr.Message != "IFCファイルのみ" {
				t.Errorf("expected server message, got %q", apiErr.Message)
			}
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "message": "too large"})
			}))
			defer server.Close()

			file := tu.MustUploadFile(t, t.TempDir(), "model.ifc", "data")
			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Upload(context.Background(), file, nil)
			apiErr := assertAPIError(t, err, shared.ErrUnexpectedStatus)
			if apiErr.StatusCode != http.StatusRequestEntityTooLarge || apiErr.Message != "too large" {
				t.Errorf("unexpected error %+v", apiErr)
			}
		})

		t.Run("Non-JSON Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>oops</html>"))
			}))
			defer server.Close()

			file := tu.MustUploadFile(t, t.TempDir(), "model.ifc", "data")
			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Upload(context.Background(), file, nil)
			assertAPIError(t, err, shared.ErrInvalidResponse)
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			file := tu.MustUploadFile(t, t.TempDir(), "model.ifc", "data")
			_, err := NewClient(ClientOpts{BaseURL: "http://backend", HTTPClient: client}).Upload(context.Background(), file, nil)
			assertAPIError(t, err, shared.ErrAPIRequest)
		})

		t.Run("Missing File", func(t *testing.T) {
			file := &models.UploadFile{Path: "/does/not/exist.ifc", Name: "exist.ifc", Size: 10}
			_, err := NewClient(ClientOpts{BaseURL: "http://backend"}).Upload(context.Background(), file, nil)
			assertAPIError(t, err, shared.ErrAPIRequest)
		})
	})

	t.Run("Process", func(t *testing.T) {
		t.Run("Decodes Materials In Order", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != ProcessPath {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if r.ContentLength > 0 {
					t.Errorf("expected no body, got %d bytes", r.ContentLength)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"success":true,"materials":[
					{"name":"Beam1","element_type":"beam","length":3000.125,"flange_width":null,"width":"150"},
					{"name":"Column1","element_type":"column","profile_type":"H"}
				]}`))
			}))
			defer server.Close()

			resp, err := NewClient(ClientOpts{BaseURL: server.URL}).Process(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(resp.Materials) != 2 || resp.Materials[0].Name != "Beam1" || resp.Materials[1].Name != "Column1" {
				t.Fatalf("unexpected materials %+v", resp.Materials)
			}
			beam := resp.Materials[0]
			if !beam.Length.Valid || beam.Length.Value != 3000.125 {
				t.Errorf("unexpected length %+v", beam.Length)
			}
			if beam.FlangeWidth.Valid || !beam.DisplayWidth().Valid {
				t.Errorf("expected width fallback, got %+v", beam.DisplayWidth())
			}
		})

		t.Run("Rejected", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "extraction failed"})
			}))
			defer server.Close()

			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Process(context.Background())
			apiErr := assertAPIError(t, err, shared.ErrRejected)
			if apiErr.Message != "extraction failed" {
				t.Errorf("expected server message, got %q", apiErr.Message)
			}
		})

		t.Run("Server Error With Plain Text", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "ファイルがアップロードされていません。", http.StatusBadRequest)
			}))
			defer server.Close()

			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Process(context.Background())
			apiErr := assertAPIError(t, err, shared.ErrUnexpectedStatus)
			if apiErr.Message != "ファイルがアップロードされていません。" {
				t.Errorf("unexpected message %q", apiErr.Message)
			}
		})

		t.Run("Unreadable Body", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			_, err := NewClient(ClientOpts{BaseURL: "http://backend", HTTPClient: client}).Process(context.Background())
			assertAPIError(t, err, shared.ErrAPIRequest)
		})
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("Returns CSV Artifact", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != DownloadPath {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.Header().Set("Content-Type", "text/csv")
				w.Header().Set("Content-Disposition", `attachment; filename="material_list.csv"`)
				w.Write([]byte("name,length\nBeam1,3000.13\n"))
			}))
			defer server.Close()

			a, err := NewClient(ClientOpts{BaseURL: server.URL}).Download(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if a.Name != "material_list.csv" || a.ContentType != "text/csv" {
				t.Errorf("unexpected artifact %s %s", a.Name, a.ContentType)
			}
			if string(a.Bytes()) != "name,length\nBeam1,3000.13\n" {
				t.Errorf("unexpected payload %q", a.Bytes())
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "CSVファイルの生成に失敗しました", http.StatusInternalServerError)
			}))
			defer server.Close()

			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Download(context.Background())
			apiErr := assertAPIError(t, err, shared.ErrUnexpectedStatus)
			if apiErr.StatusCode != http.StatusInternalServerError {
				t.Errorf("expected status 500, got %d", apiErr.StatusCode)
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		newServer := func() *httptest.Server {
			mux := http.NewServeMux()
			mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					r.ParseForm()
					if r.FormValue("username") == "alice" && r.FormValue("password") == "secret" {
						http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
						http.Redirect(w, r, "/", http.StatusFound)
						return
					}
				}
				w.Write([]byte("<form>login</form>"))
			})
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>index</html>"))
			})
			mux.HandleFunc(ProcessPath, func(w http.ResponseWriter, r *http.Request) {
				if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
					http.Redirect(w, r, "/login", http.StatusFound)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "materials": []any{}})
			})
			return httptest.NewServer(mux)
		}

		t.Run("Keeps Session Cookie", func(t *testing.T) {
			server := newServer()
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			if err := c.Login(context.Background(), "alice", "secret"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := c.Process(context.Background()); err != nil {
				t.Errorf("expected authenticated call to succeed, got %v", err)
			}
		})

		t.Run("Bad Credentials", func(t *testing.T) {
			server := newServer()
			defer server.Close()

			err := NewClient(ClientOpts{BaseURL: server.URL}).Login(context.Background(), "alice", "wrong")
			assertAPIError(t, err, shared.ErrAuthFailed)
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := NewClient(ClientOpts{}).Login(context.Background(), "", "")
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Unauthenticated Call", func(t *testing.T) {
			server := newServer()
			defer server.Close()

			_, err := NewClient(ClientOpts{BaseURL: server.URL}).Process(context.Background())
			assertAPIError(t, err, shared.ErrNotAuthenticated)
		})

		t.Run("Imported Cookies", func(t *testing.T) {
			server := newServer()
			defer server.Close()

			c := NewClient(ClientOpts{BaseURL: server.URL})
			if err := c.UseCookies([]*http.Cookie{{Name: "session", Value: "abc"}}); err != nil {
				t.Fatalf("UseCookies failed: %v", err)
			}
			if _, err := c.Process(context.Background()); err != nil {
				t.Errorf("expected cookie session to work, got %v", err)
			}
		})
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{Op: "download", StatusCode: 404, Message: "missing", Err: shared.ErrUnexpectedStatus}
	want := "download: unexpected HTTP status (status 404): missing"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, shared.ErrUnexpectedStatus) {
		t.Error("expected errors.Is to match the sentinel")
	}
}

func TestAttachmentName(t *testing.T) {
	tests := map[string]string{
		"":                                  "material_list.csv",
		`attachment; filename="export.csv"`: "export.csv",
		"attachment":                        "material_list.csv",
		`attachment; filename="bad`:         "material_list.csv",
	}
	for in, want := range tests {
		if got := attachmentName(in); got != want {
			t.Errorf("attachmentName(%q) = %q, want %q", in, got, want)
		}
	}
}
