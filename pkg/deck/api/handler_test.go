package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-deck/pkg/deck"
	"github.com/benjaminschreck/go-deck/pkg/deck/fetch"
	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

func quietLogger() *deck.Logger {
	return deck.NewLogger(io.Discard, deck.LogOff)
}

func newTestRouter(g Generator) http.Handler {
	return NewRouter(NewHandler(g, quietLogger(), 1<<10), 0)
}

func post(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/presentations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreatePresentation_Success(t *testing.T) {
	var gotUnits []deck.ContentUnit
	var gotOpts deck.Options
	g := GeneratorFunc(func(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error) {
		gotUnits, gotOpts = units, opts
		return &deck.Result{
			Data:         []byte("PK-fake"),
			ContentType:  pml.PackageContentType,
			FileName:     "cities.pptx",
			Slides:       len(units),
			MissingMedia: []int{1, 3},
		}, nil
	})

	rec := post(t, newTestRouter(g),
		`{"units":[{"title":"Tokyo","bodyLines":["Population: 14M"]}],"fileName":"cities","style":"dark"}`,
		map[string]string{"X-Request-Id": "req-42"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pml.PackageContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="cities.pptx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "1,3", rec.Header().Get(MissingMediaHeader))
	assert.Equal(t, "7", rec.Header().Get("Content-Length"))
	assert.Equal(t, "PK-fake", rec.Body.String())

	assert.Equal(t, []deck.ContentUnit{{Title: "Tokyo", BodyLines: []string{"Population: 14M"}}}, gotUnits)
	assert.Equal(t, "dark", gotOpts.Style)
	assert.Equal(t, "cities", gotOpts.FileName)
}

func TestCreatePresentation_GeneratesRequestID(t *testing.T) {
	g := GeneratorFunc(func(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error) {
		return &deck.Result{ContentType: pml.PackageContentType, FileName: "p.pptx"}, nil
	})
	rec := post(t, newTestRouter(g), `[]`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36, "a UUID is assigned")
	assert.Empty(t, rec.Header().Get(MissingMediaHeader))
}

func TestCreatePresentation_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
		wantIssues []string
	}{
		{
			name:       "malformed JSON",
			body:       `[{"title":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
			wantIssues: []string{"body"},
		},
		{
			name:       "wrong shape",
			body:       `[{"title":["a"]}]`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
			wantIssues: []string{"title"},
		},
		{
			name:       "single unit instead of a list",
			body:       `{"title":"Tokyo","bodyLines":["a"]}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
			wantIssues: []string{"body"},
		},
		{
			name:       "envelope without units",
			body:       `{"style":"dark"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
			wantIssues: []string{"units"},
		},
		{
			name: "generator validation",
			body: `[]`,
			err: &deck.ValidationError{Issues: []deck.ValidationIssue{
				{Field: "style", Message: "unknown"},
				{Field: "units", Message: "too many"},
			}},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request",
			wantIssues: []string{"style", "units"},
		},
		{
			name:       "internal",
			body:       `[]`,
			err:        deck.WithContext(&opc.InvariantError{Rule: opc.RuleDanglingTarget, Detail: "x"}, "assemble", nil),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
		{
			name:       "timeout",
			body:       `[]`,
			err:        fmt.Errorf("generate: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantError:  "timeout",
		},
		{
			name:       "too large",
			body:       `[{"title":"` + strings.Repeat("x", 2<<10) + `"}]`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "request too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			g := GeneratorFunc(func(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error) {
				called = true
				if tt.err != nil {
					return nil, tt.err
				}
				return &deck.Result{ContentType: pml.PackageContentType, FileName: "p.pptx"}, nil
			})

			rec := post(t, newTestRouter(g), tt.body, map[string]string{"X-Request-Id": "req-1"})
			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json", "errors are never attachments")
			assert.Empty(t, rec.Header().Get("Content-Disposition"))

			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotEmpty(t, resp.Detail)
			assert.Equal(t, "req-1", resp.RequestID)
			var fields []string
			for _, issue := range resp.Issues {
				fields = append(fields, issue.Field)
			}
			assert.Equal(t, tt.wantIssues, fields)
			if tt.err == nil {
				assert.False(t, called, "malformed input never reaches the generator")
			}
		})
	}
}

// headerCounter counts WriteHeader calls that reach the recorder.
type headerCounter struct {
	*httptest.ResponseRecorder
	calls int
}

func (c *headerCounter) WriteHeader(code int) {
	c.calls++
	c.ResponseRecorder.WriteHeader(code)
}

func TestCreatePresentation_Deadline(t *testing.T) {
	g := GeneratorFunc(func(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("generate: %w", ctx.Err())
	})
	router := NewRouter(NewHandler(g, quietLogger(), 1<<10), 20*time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/presentations", strings.NewReader(`[]`))
	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, 1, rec.calls, "the status is written once")
	resp := decodeError(t, rec.ResponseRecorder)
	assert.Equal(t, "timeout", resp.Error)
	assert.NotEmpty(t, resp.RequestID)
}

func TestCreatePresentation_RecoversPanics(t *testing.T) {
	g := GeneratorFunc(func(ctx context.Context, units []deck.ContentUnit, opts deck.Options) (*deck.Result, error) {
		panic("unexpected")
	})
	rec := post(t, newTestRouter(g), `[]`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListStyles(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/styles", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"styles":["classic","dark","widescreen"]}`, rec.Body.String())
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="Q1 report.pptx"`, contentDisposition("Q1 report.pptx"))
	assert.Equal(t, `attachment; filename*=utf-8''Pr%C3%A4sentation.pptx`, contentDisposition("Präsentation.pptx"))
}

func TestRouter_WithEngine(t *testing.T) {
	config := deck.DefaultConfig()
	engine, err := deck.New(context.Background(), config,
		deck.WithLogger(quietLogger()),
		deck.WithFetcher(fetch.FetcherFunc(func(ctx context.Context, locator string) (*fetch.Image, error) {
			return nil, &fetch.Error{Locator: locator, Cause: fetch.ErrNotFound}
		})),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(NewHandler(engine, quietLogger(), 1<<20), 30*time.Second))
	defer srv.Close()

	body := `[{"title":"Tokyo","bodyLines":["Population: 14M","Capital of Japan"],"imageReference":"https://example.com/tokyo.jpg"}]`
	resp, err := http.Post(srv.URL+"/api/v1/presentations", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="presentation.pptx"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "1", resp.Header.Get(MissingMediaHeader))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	r, err := opc.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.NoError(t, r.Validate())
	assert.Contains(t, r.ListParts(), "ppt/slides/slide1.xml")
}
