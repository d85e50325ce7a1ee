package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/mtxspy/pkg/cache"
	"github.com/matzehuels/mtxspy/pkg/errors"
	"github.com/matzehuels/mtxspy/pkg/exchange"
	"github.com/matzehuels/mtxspy/pkg/render"
	"github.com/matzehuels/mtxspy/pkg/stats"
)

// diagonal4 is a 4x4 matrix with its diagonal set. At resolution 2 it bins
// into a 2x2 grid with two nonzeros in each diagonal cell.
const diagonal4 = `%%MatrixMarket matrix coordinate real general
% test fixture
4 4 4
1 1 1.0
2 2 2.0
3 3 3.0
4 4 4.0
`

// full2 has density 1, which leaves no room for a window.
const full2 = `%%MatrixMarket matrix coordinate pattern general
2 2 4
1 1
1 2
2 1
2 2
`

const empty3 = `%%MatrixMarket matrix coordinate real general
3 3 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"jpg", false},
		{"JPEG", false},
		{"json", false},
		{"bins", false},
		{"pdf", true},
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Input: "data/bcsstk01.mtx.gz"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Resolution != DefaultResolution {
		t.Errorf("Resolution should be %d, got %d", DefaultResolution, opts.Resolution)
	}
	if opts.Workers != 1 {
		t.Errorf("Workers should be 1, got %d", opts.Workers)
	}
	if opts.Delta != DefaultDelta {
		t.Errorf("Delta should be %v, got %v", DefaultDelta, opts.Delta)
	}
	if opts.Samples != DefaultSamples {
		t.Errorf("Samples should be %d, got %d", DefaultSamples, opts.Samples)
	}
	if opts.Size != DefaultSize {
		t.Errorf("Size should be %d, got %d", DefaultSize, opts.Size)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats should be [%s], got %v", DefaultFormat, opts.Formats)
	}
	if opts.Name != "bcsstk01" {
		t.Errorf("Name should be bcsstk01, got %q", opts.Name)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}
}

func TestOptionsValidateForBin(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing input", Options{}, errors.ErrCodeInvalidOption},
		{"negative resolution", Options{Input: "a.mtx", Resolution: -1}, errors.ErrCodeInvalidOption},
		{"huge resolution", Options{Input: "a.mtx", Resolution: errors.MaxResolution + 1}, errors.ErrCodeInvalidOption},
		{"negative workers", Options{Input: "a.mtx", Workers: -2}, errors.ErrCodeInvalidOption},
		{"data only", Options{Data: []byte(diagonal4)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForBin()
			if tt.code == "" {
				if err != nil {
					t.Errorf("ValidateForBin() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateForBin() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"negative delta", Options{Delta: -0.5}, errors.ErrCodeInvalidWindow},
		{"one sample", Options{Samples: 1}, errors.ErrCodeInvalidOption},
		{"bad format", Options{Formats: []string{"pdf"}}, errors.ErrCodeInvalidOption},
		{"negative size", Options{Size: -1}, errors.ErrCodeInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateForRender(); !errors.Is(err, tt.code) {
				t.Errorf("ValidateForRender() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidateForRenderCanonicalizesFormats(t *testing.T) {
	formats := []string{"JPG", ".tif", "txt"}
	opts := Options{Formats: formats}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}

	want := []string{"jpeg", "tiff", "bins"}
	for i := range want {
		if opts.Formats[i] != want[i] {
			t.Errorf("Formats[%d] = %q, want %q", i, opts.Formats[i], want[i])
		}
	}
	if formats[0] != "JPG" {
		t.Error("caller's format slice should not be modified")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Input: "a.mtx", Formats: []string{"jpg"}}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := opts.Formats[0]

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Formats[0] != first {
		t.Errorf("second call changed formats: %q -> %q", first, opts.Formats[0])
	}
}

func TestNameOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "matrix"},
		{"bcsstk01.mtx", "bcsstk01"},
		{"data/bcsstk01.mtx.gz", "bcsstk01"},
		{"/tmp/m.mtx.zst", "m"},
		{"grid.bins", "grid"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		if got := NameOf(tt.path); got != tt.want {
			t.Errorf("NameOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRunnerExecute(t *testing.T) {
	path := writeFile(t, "diag.mtx", diagonal4)
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{
		Input:      path,
		Resolution: 2,
		Formats:    []string{"png", "svg", "json", "bins"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	g := result.Grid
	if g.Rows != 2 || g.Cols != 2 {
		t.Fatalf("grid = %dx%d, want 2x2", g.Rows, g.Cols)
	}
	if g.At(0, 0) != 2 || g.At(1, 1) != 2 || g.At(0, 1) != 0 {
		t.Errorf("unexpected counts: %d %d %d", g.At(0, 0), g.At(1, 1), g.At(0, 1))
	}
	if result.Stats.Entries != 4 || result.Stats.NNZ != 4 {
		t.Errorf("Stats = %+v, want 4 entries and 4 nonzeros", result.Stats)
	}
	if result.GridHash == "" {
		t.Error("GridHash should be set")
	}
	if result.Summary.NonEmpty != 2 {
		t.Errorf("Summary.NonEmpty = %d, want 2", result.Summary.NonEmpty)
	}

	for _, f := range []string{"png", "svg", "json", "bins"} {
		if len(result.Artifacts[f]) == 0 {
			t.Errorf("missing %s artifact", f)
		}
	}
	if !bytes.HasPrefix(result.Artifacts["png"], []byte("\x89PNG")) {
		t.Error("png artifact lacks PNG signature")
	}
	if !bytes.Contains(result.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact lacks <svg element")
	}

	var doc struct {
		Name string `json:"name"`
		Rows int    `json:"rows"`
	}
	if err := json.Unmarshal(result.Artifacts["json"], &doc); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if doc.Name != "diag" || doc.Rows != 4 {
		t.Errorf("json artifact = %+v, want name diag and 4 rows", doc)
	}

	want := "4 4 2 2 2\n0 0 2\n1 1 2\n"
	if got := string(result.Artifacts["bins"]); got != want {
		t.Errorf("bins artifact = %q, want %q", got, want)
	}
}

func TestRenderPlotSummary(t *testing.T) {
	g, err := exchange.Read(bytes.NewReader([]byte("4 4 2 2 2\n0 0 2\n1 1 2\n")))
	if err != nil {
		t.Fatal(err)
	}
	plot, err := render.Prepare(g, render.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Name: "diag", Formats: []string{"json"}}

	nonEmpty := func(summary *stats.Summary) int {
		t.Helper()
		artifacts, err := renderPlot(plot, opts, summary)
		if err != nil {
			t.Fatal(err)
		}
		var doc struct {
			Stats stats.Summary `json:"stats"`
		}
		if err := json.Unmarshal(artifacts["json"], &doc); err != nil {
			t.Fatal(err)
		}
		return doc.Stats.NonEmpty
	}

	// A given summary is used as is.
	if got := nonEmpty(&stats.Summary{NonEmpty: 99}); got != 99 {
		t.Errorf("given summary: non_empty = %d, want 99", got)
	}
	if got := nonEmpty(nil); got != 2 {
		t.Errorf("computed summary: non_empty = %d, want 2", got)
	}
}

func TestRunnerCacheHit(t *testing.T) {
	path := writeFile(t, "diag.mtx", diagonal4)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	opts := Options{Input: path, Resolution: 2, Formats: []string{"png"}}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.GridHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want no hits", first.CacheInfo)
	}

	second, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.GridHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want both hits", second.CacheInfo)
	}
	if !second.Grid.Equal(first.Grid) {
		t.Error("cached grid differs from computed grid")
	}
	if !bytes.Equal(second.Artifacts["png"], first.Artifacts["png"]) {
		t.Error("cached artifact differs from rendered artifact")
	}

	// Changing a render option only misses the artifact cache.
	opts.Legend = true
	third, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.GridHit || third.CacheInfo.RenderHit {
		t.Errorf("legend run CacheInfo = %+v, want grid hit only", third.CacheInfo)
	}

	opts.Refresh = true
	fourth, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.GridHit || fourth.CacheInfo.RenderHit {
		t.Errorf("refresh run CacheInfo = %+v, want no hits", fourth.CacheInfo)
	}
}

func TestRunnerBinsInput(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	src, err := runner.Execute(context.Background(), Options{
		Data:       []byte(diagonal4),
		Resolution: 2,
		Formats:    []string{"bins"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := exchange.Write(&buf, src.Grid); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "diag.bins", buf.String())

	result, err := runner.Execute(context.Background(), Options{Input: path, Bins: true})
	if err != nil {
		t.Fatalf("Execute(bins) error = %v", err)
	}
	if !result.Grid.Equal(src.Grid) {
		t.Error("grid read from exchange text differs from binned grid")
	}
	if result.GridHash != src.GridHash {
		t.Errorf("GridHash = %s, want %s", result.GridHash, src.GridHash)
	}
}

func TestRunnerErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"empty matrix", Options{Data: []byte(empty3)}, errors.ErrCodeEmptyMatrix},
		{"full matrix", Options{Data: []byte(full2)}, errors.ErrCodeInvalidWindow},
		{"malformed", Options{Data: []byte("not a matrix\n")}, errors.ErrCodeMalformedInput},
		{"missing file", Options{Input: filepath.Join(t.TempDir(), "nope.mtx")}, errors.ErrCodeFileNotFound},
		{"bad bins", Options{Data: []byte("1 2 3\n"), Bins: true}, errors.ErrCodeMalformedInput},
	}

	runner := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Execute(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(nil, nil, nil)
	if _, err := runner.Execute(ctx, Options{Data: []byte(diagonal4)}); err != context.Canceled {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestExecuteBatchContinuesAfterFailure(t *testing.T) {
	good := writeFile(t, "good.mtx", diagonal4)
	bad := writeFile(t, "bad.mtx", "%%MatrixMarket matrix coordinate real general\n2 2 1\n3 1 1.0\n")

	runner := NewRunner(nil, nil, nil)
	var started []string
	runner.Progress = func(i, total int, opts Options) {
		if total != 2 {
			t.Errorf("Progress total = %d, want 2", total)
		}
		started = append(started, opts.Input)
	}
	var done []int
	runner.Done = func(i, total int, item *BatchResult) {
		if len(started) != i+1 {
			t.Errorf("Done(%d) called with %d items started", i, len(started))
		}
		if (i == 0) != (item.Err != nil) {
			t.Errorf("Done(%d) item error = %v", i, item.Err)
		}
		done = append(done, i)
	}
	results := runner.ExecuteBatch(context.Background(), []Options{
		{Input: bad},
		{Input: good, Resolution: 2},
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(started) != 2 || started[0] != bad || started[1] != good {
		t.Errorf("Progress saw %v, want [%s %s]", started, bad, good)
	}
	if len(done) != 2 || done[0] != 0 || done[1] != 1 {
		t.Errorf("Done saw %v, want [0 1]", done)
	}
	if !errors.Is(results[0].Err, errors.ErrCodeMalformedInput) {
		t.Errorf("results[0].Err = %v, want MALFORMED_INPUT", results[0].Err)
	}
	if results[1].Err != nil {
		t.Fatalf("results[1].Err = %v, want nil", results[1].Err)
	}
	if results[1].Result.Grid.NNZ != 4 {
		t.Errorf("results[1] NNZ = %d, want 4", results[1].Result.Grid.NNZ)
	}
}
