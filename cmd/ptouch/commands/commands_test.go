package commands

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goipp "github.com/phin1x/go-ipp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orrn/ptouch/internal/core"
	"github.com/orrn/ptouch/internal/service"
)

func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	return runWithConfig(t, "", stdin, args...)
}

// runWithConfig runs the root command against a config file holding
// cfgBody. An empty body leaves the file absent.
func runWithConfig(t *testing.T, cfgBody string, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(io.Discard)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if stdin != nil {
		root.SetIn(stdin)
	}
	cfgPath := filepath.Join(t.TempDir(), "ptouch.yaml")
	if cfgBody != "" {
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o600))
	}
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "label.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
	return path
}

func TestLabelFlagsOnlyChanged(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want core.PrintConfig
	}{
		{
			name: "defaults",
			want: core.DefaultPrintConfig(),
		},
		{
			name: "overrides",
			args: []string{"--tape", "24", "--half-cut=false", "-r", "--threshold", "90"},
			want: func() core.PrintConfig {
				c := core.DefaultPrintConfig()
				c.TapeWidth = 24
				c.HalfCut = false
				c.Rotate = true
				c.Threshold = 90
				return c
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f labelFlags
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			f.AddFlags(fs)
			require.NoError(t, fs.Parse(tt.args))

			opts := f.Options(fs)
			assert.Len(t, opts, len(tt.args)-countValues(tt.args))

			cfg, err := core.NewPrintConfig(opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

// countValues counts separate flag value arguments.
func countValues(args []string) int {
	n := 0
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			n++
		}
	}
	return n
}

func TestCompileCommand(t *testing.T) {
	img := writePNG(t, 6, 20)
	out := filepath.Join(t.TempDir(), "label.bin")

	_, err := run(t, nil, "compile", img, "-o", out, "--tape", "18")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	stream := core.CommandStream(data)
	assert.Equal(t, 6, stream.Rows())
	assert.Equal(t, byte(18), stream[411])
}

func TestCompileCommandStdin(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 5))))

	stdout, err := run(t, &buf, "compile", "-")
	require.NoError(t, err)
	assert.Equal(t, 3, core.CommandStream(stdout).Rows())
}

func TestCompileCommandErrors(t *testing.T) {
	_, err := run(t, nil, "compile", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	_, err = run(t, nil, "compile", writePNG(t, 2, 2), "--tape", "9")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = run(t, nil, "compile", writePNG(t, 2, 2), "--printer", "garage")
	assert.ErrorIs(t, err, service.ErrUnknownPrinter)
}

func TestPrintUnknownPrinter(t *testing.T) {
	_, err := run(t, nil, "print", "garage", writePNG(t, 2, 2))
	assert.ErrorIs(t, err, service.ErrUnknownPrinter)
}

// idlePrinter answers as an idle IPP printer that finishes every job on
// the first poll. It records the document of each Print-Job.
func idlePrinter(t *testing.T, documents *[][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var doc bytes.Buffer
		req, err := goipp.NewRequestDecoder(r.Body).Decode(&doc)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := goipp.NewResponse(goipp.StatusOk, req.RequestId)
		switch req.Operation {
		case goipp.OperationGetPrinterAttributes:
			resp.PrinterAttributes = []goipp.Attributes{{
				goipp.AttributePrinterState: {{Value: 3}},
			}}
		case goipp.OperationPrintJob:
			*documents = append(*documents, doc.Bytes())
			resp.JobAttributes = []goipp.Attributes{{
				goipp.AttributeJobID:    {{Value: 5}},
				goipp.AttributeJobState: {{Value: 3}},
			}}
		case goipp.OperationGetJobAttributes:
			resp.JobAttributes = []goipp.Attributes{{
				goipp.AttributeJobID:    {{Value: 5}},
				goipp.AttributeJobState: {{Value: 9}},
			}}
		}
		body, err := resp.Encode()
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", goipp.ContentTypeIPP)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPrintCommand(t *testing.T) {
	const cfg = `
polling:
  settle_delay: 1ms
  interval: 1ms
  max_attempts: 3
`
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 5))))

	tests := []struct {
		name  string
		path  string
		stdin io.Reader
		rows  int
	}{
		{name: "file", path: writePNG(t, 6, 20), rows: 6},
		{name: "stdin", path: "-", stdin: &buf, rows: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var documents [][]byte
			srv := idlePrinter(t, &documents)

			out, err := runWithConfig(t, cfg, tt.stdin, "print", srv.URL+"/ipp/print", tt.path)
			require.NoError(t, err)
			assert.Equal(t, "job 5 completed after 1 polls\n", out)

			require.Len(t, documents, 1)
			assert.Equal(t, tt.rows, core.CommandStream(documents[0]).Rows())
		})
	}

	_, err := runWithConfig(t, cfg, nil, "print", "http://127.0.0.1:1/ipp/print", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestSendRejectsUnknownScheme(t *testing.T) {
	_, err := run(t, nil, "send", "lpd://host/queue", writePNG(t, 2, 2))
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{name: "argument", args: []string{"s3cret"}},
		{name: "stdin", stdin: "s3cret\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, strings.NewReader(tt.stdin), append([]string{"hash-password"}, tt.args...)...)
			require.NoError(t, err)
			hash := strings.TrimSpace(out)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
		})
	}

	_, err := run(t, strings.NewReader("\n"), "hash-password")
	assert.Error(t, err)
}
