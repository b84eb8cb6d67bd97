package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/sweep"
)

// WriteCSV writes one x,y row per sample, without a header:
// x = cutoff / (2 * normalization), y = per-run milliseconds.
func WriteCSV(w io.Writer, res *sweep.Result) error {
	norm := res.Plan.Normalization
	if norm <= 0 {
		return fmt.Errorf("invalid normalization %v", norm)
	}
	cw := csv.NewWriter(w)
	for _, s := range res.Samples {
		x := float64(s.Cutoff) / (2 * norm)
		rec := []string{
			strconv.FormatFloat(x, 'f', -1, 64),
			strconv.FormatFloat(s.PerRunMs, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full result as indented JSON.
func WriteJSON(w io.Writer, res *sweep.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteFile creates path, creating parent directories as needed, and fills
// it with write.
func WriteFile(path string, res *sweep.Result, write func(io.Writer, *sweep.Result) error) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.WrapError(err, "failed to create directory %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WrapError(err, "failed to create output file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = apperrors.WrapError(cerr, "failed to close output file")
		}
	}()
	return write(f, res)
}
