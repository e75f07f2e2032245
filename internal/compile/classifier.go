package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	appErr "texforge/pkg/errors"
)

const outputTimestampLayout = "20060102_150405"

// Classify decides the disposition of a completed compiler run.
// Success requires both a zero exit code and the expected PDF on disk;
// a zero exit with a missing or empty PDF is a compiler failure, which
// guards against compilers that report success but emit nothing.
func Classify(raw RawResult, outputDir, entryPath string, now time.Time) Outcome {
	base := strings.TrimSuffix(filepath.Base(entryPath), filepath.Ext(entryPath))
	pdfPath := filepath.Join(outputDir, base+".pdf")

	if raw.ExitCode == 0 {
		data, err := os.ReadFile(pdfPath)
		if err == nil && len(data) > 0 {
			return Outcome{
				Disposition: DispositionSuccess,
				Code:        appErr.Success,
				PDF:         data,
				Filename:    fmt.Sprintf("compiled_%s_%s.pdf", base, now.Format(outputTimestampLayout)),
				Log:         raw.Output,
			}
		}
	}

	return Outcome{
		Disposition: DispositionCompilerFailure,
		Code:        appErr.CompilationFailed,
		Reason:      appErr.CompilationFailed.Message(),
		ExitCode:    raw.ExitCode,
		Log:         raw.Output,
	}
}
