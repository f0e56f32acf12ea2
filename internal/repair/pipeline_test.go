package repair

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const corruptedSource = "\xef\xbb\xbf" +
	"export const upload = () => {\n" +
	"  console.log('â˜ï¸ Upload vers le cloud');\n" +
	"  console.log('ðŸ\"— URL de l.endpoint:', url);\n" +
	"  console.warn('âš ï¸ Ã©chec du rÃ©seau');\n" +
	"  console.log('âœ… POI crÃ©Ã©');\n" +
	"};\n"

const repairedSource = "export const upload = () => {\n" +
	"  console.log('☁️ Upload vers le cloud');\n" +
	"  console.log('🔗 URL de l'endpoint:', url);\n" +
	"  console.warn('⚠️ échec du réseau');\n" +
	"  console.log('✅ POI créé');\n" +
	"};\n"

func TestPipelineRepairsFile(t *testing.T) {
	path := writeTemp(t, "usePointsOfInterest.ts", []byte(corruptedSource))

	result, err := NewPipeline(Options{Logger: discardLogger()}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, StageWritten, result.Stage)
	assert.True(t, result.Written)
	assert.True(t, result.HadBOM)
	assert.Equal(t, EncodingUTF8BOM, result.Encoding)
	assert.Equal(t, 7, result.Report.Total)
	assert.Empty(t, result.Residuals)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, repairedSource, string(got))
	assert.False(t, bytes.HasPrefix(got, []byte("\xef\xbb\xbf")))
}

func TestPipelineSecondRunIsByteIdentical(t *testing.T) {
	path := writeTemp(t, "usePointsOfInterest.ts", []byte(corruptedSource))
	p := NewPipeline(Options{Logger: discardLogger()})

	_, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := p.Run(context.Background(), path)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, result.Written, "clean file is not rewritten")
	assert.False(t, result.NeedsRepair())
	assert.Equal(t, StageRewritten, result.Stage)
}

func TestPipelineStripsBOMWithoutReplacements(t *testing.T) {
	path := writeTemp(t, "bom.ts", []byte("\xef\xbb\xbfcaf\xc3\xa9"))

	result, err := NewPipeline(Options{Logger: discardLogger()}).Run(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Zero(t, result.Report.Total)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xc3\xa9"), got)
}

func TestPipelineDropsRepeatedBOM(t *testing.T) {
	path := writeTemp(t, "double.ts", []byte("\xef\xbb\xbf\xef\xbb\xbfA"))

	result, err := NewPipeline(Options{Logger: discardLogger()}).Run(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.Written)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), got, "no byte-order mark survives the write")
}

func TestPipelineFaultBeforeWriteLeavesFile(t *testing.T) {
	original := []byte("caf\xc3\xa9")

	for _, stage := range []Stage{StageLoaded, StageRewritten} {
		t.Run(stage.String(), func(t *testing.T) {
			path := writeTemp(t, "fault.ts", original)
			fault := errors.New("injected fault")

			result, err := NewPipeline(Options{
				Logger: discardLogger(),
				Hook: func(s Stage, _ *Document) error {
					if s == stage {
						return fault
					}
					return nil
				},
			}).Run(context.Background(), path)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAborted)
			assert.ErrorIs(t, err, fault)
			assert.Equal(t, stage, result.Stage)
			assert.False(t, result.Written)

			got, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, original, got)
		})
	}
}

func TestPipelineHookSeesEveryStage(t *testing.T) {
	path := writeTemp(t, "hook.ts", []byte("Ã©tat"))
	var seen []Stage
	var texts []string

	_, err := NewPipeline(Options{
		Logger: discardLogger(),
		Hook: func(s Stage, doc *Document) error {
			seen = append(seen, s)
			texts = append(texts, doc.Text)
			return nil
		},
	}).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageLoaded, StageRewritten, StageWritten}, seen)
	assert.Equal(t, []string{"Ã©tat", "état", "état"}, texts)
}

func TestPipelineDryRun(t *testing.T) {
	original := []byte("Ã©chec")
	path := writeTemp(t, "dry.ts", original)

	result, err := NewPipeline(Options{DryRun: true, Logger: discardLogger()}).Run(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.NeedsRepair())
	assert.False(t, result.Written)
	assert.Equal(t, 1, result.Report.Total)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestPipelineDecodeErrorLeavesFile(t *testing.T) {
	original := []byte("caf\xe9 Ã©chec")
	path := writeTemp(t, "latin1.ts", original)

	result, err := NewPipeline(Options{Logger: discardLogger()}).Run(context.Background(), path)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, StageNone, result.Stage)

	got, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, got)
}

func TestPipelineWriteErrorLeavesFile(t *testing.T) {
	original := []byte("Ã©chec")
	path := writeTemp(t, "ro.ts", original)

	origReplace := replaceFile
	replaceFile = func(string, []byte) error { return os.ErrPermission }
	t.Cleanup(func() { replaceFile = origReplace })

	result, err := NewPipeline(Options{Logger: discardLogger()}).Run(context.Background(), path)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, StageRewritten, result.Stage)

	got, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, got)
}

func TestPipelineReportsResiduals(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	path := writeTemp(t, "residual.ts", []byte("Ã©chec\nterminÃ©e\n"))

	result, err := NewPipeline(Options{Logger: logger}).Run(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, result.Residuals, 1)
	assert.Equal(t, 2, result.Residuals[0].Line)
	assert.Contains(t, logs.String(), "Unrepaired mojibake remains")
}

func TestPipelineCancelledContext(t *testing.T) {
	original := []byte("Ã©chec")
	path := writeTemp(t, "cancel.ts", original)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := NewPipeline(Options{
		Logger: discardLogger(),
		Hook: func(s Stage, _ *Document) error {
			if s == StageLoaded {
				cancel()
			}
			return nil
		},
	}).Run(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)

	got, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, original, got)
}
