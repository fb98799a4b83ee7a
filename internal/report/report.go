// Package report writes and reads scan result files.
package report

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"netscout/internal/enrich"
	"netscout/internal/scan"
)

const (
	// DefaultDir is where reports are written when no directory is given.
	DefaultDir = "results"

	timeLayout = "2006-01-02 15:04:05"
)

// ErrNoResults is returned by Save when there is nothing to write.
var ErrNoResults = errors.New("no results to save")

// Report is the on-disk form of a finished scan.
type Report struct {
	ScanTime     string            `json:"scan_time"`
	Network      string            `json:"network"`
	TotalFound   int               `json:"total_found"`
	RoutersFound int               `json:"routers_found"`
	Results      []scan.Result     `json:"results"`
	Hosts        []enrich.HostInfo `json:"hosts,omitempty"`
	Details      []scan.Detail     `json:"details,omitempty"`
}

// New builds a report for run. hosts may be nil.
func New(network string, run scan.Run, hosts []enrich.HostInfo) Report {
	finished := run.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	results := run.Results
	if results == nil {
		results = []scan.Result{}
	}
	return Report{
		ScanTime:     finished.Local().Format(time.RFC3339),
		Network:      network,
		TotalFound:   len(results),
		RoutersFound: len(run.Routers()),
		Results:      results,
		Hosts:        hosts,
	}
}

// Routers returns the router-class results.
func (r Report) Routers() []scan.Result {
	return lo.Filter(r.Results, func(res scan.Result, _ int) bool { return res.IsRouter })
}

// Others returns the results that are not router-class.
func (r Report) Others() []scan.Result {
	return lo.Filter(r.Results, func(res scan.Result, _ int) bool { return !res.IsRouter })
}

// Encode writes rep as indented JSON. Non-ASCII text is written as is.
func Encode(w io.Writer, rep Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rep)
}

// Decode reads a JSON report.
func Decode(r io.Reader) (Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// Load reads the JSON report at path.
func Load(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	rep, err := Decode(f)
	if err != nil {
		return Report{}, errors.Wrapf(err, "decode %s", path)
	}
	return rep, nil
}

// LoadDir reads every *.json report in dir in name order. Files that fail to
// load are skipped and their errors joined into the returned error, alongside
// the reports that did load.
func LoadDir(dir string) ([]Report, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrap(err, "results directory")
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var (
		reports []Report
		errs    []error
	)
	for _, path := range paths {
		rep, err := Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		reports = append(reports, rep)
	}
	return reports, stderrors.Join(errs...)
}
