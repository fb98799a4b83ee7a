package report

import (
	"bufio"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// DefaultName returns the base file name used for a scan saved at t.
func DefaultName(t time.Time) string {
	return "scan_results_" + t.Format("20060102_150405")
}

// Save writes <name>.json and <name>.txt into dir, creating it if needed.
// Empty dir and name fall back to DefaultDir and DefaultName.
func Save(dir, name string, rep Report) (jsonPath, txtPath string, err error) {
	if len(rep.Results) == 0 {
		return "", "", ErrNoResults
	}
	if dir == "" {
		dir = DefaultDir
	}
	if name == "" {
		name = DefaultName(time.Now())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create results directory")
	}

	jsonPath = filepath.Join(dir, name+".json")
	txtPath = filepath.Join(dir, name+".txt")

	if err := writeFile(jsonPath, func(w *bufio.Writer) error { return Encode(w, rep) }); err != nil {
		return "", "", errors.Wrap(err, "write json report")
	}
	if err := writeFile(txtPath, func(w *bufio.Writer) error { return WriteText(w, rep) }); err != nil {
		return "", "", errors.Wrap(err, "write text report")
	}
	return jsonPath, txtPath, nil
}

func writeFile(path string, write func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
