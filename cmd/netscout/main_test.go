package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"netscout/internal/report"
	"netscout/internal/scan"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	// Keep tests away from a netscout.yaml in the working directory.
	if len(args) > 0 && !containsFlag(args, "--config") {
		args = append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	}
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func containsFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

func TestRunWithoutArgsShowsUsage(t *testing.T) {
	out, err := runCmd(t)
	if err != nil {
		t.Fatalf("run returned error without args: %v", err)
	}
	if !strings.Contains(out, "netscout") || !strings.Contains(out, "scan") {
		t.Fatalf("expected usage, got %q", out)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if _, err := runCmd(t, "unknown"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "netscout "+version+"\n" {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestRunConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netscout.yaml")
	if _, err := runCmd(t, "config", "init", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file: %v", err)
	}
	if _, err := runCmd(t, "config", "init", path); err == nil {
		t.Fatal("expected error when the file already exists")
	}
}

func TestRunScanInvalidNetwork(t *testing.T) {
	_, err := runCmd(t, "scan", "-n", "192.168.1.0/40", "-o", t.TempDir())
	var rangeErr *scan.InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
}

func TestRunScanAndReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Server", "lighttpd")
		fmt.Fprint(w, "<html><title>Wireless Router Login</title></html>")
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "netscout.yaml")
	cfg := fmt.Sprintf("scan:\n  network: %s\n  ports: [%d]\n  tls_ports: []\n  timeout_seconds: 2\n", host, port)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	results := filepath.Join(dir, "results")

	out, err := runCmd(t, "scan", "--config", cfgPath, "-o", results)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	for _, want := range []string{
		"[OK] ROUTER! Found web interface:",
		"Title:    Wireless Router Login",
		"Server:   lighttpd",
		"SCAN COMPLETED",
		"Web interfaces found: 1",
		"POSSIBLE ROUTERS/REPEATERS (1):",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	files, _ := filepath.Glob(filepath.Join(results, "scan_results_*.json"))
	if len(files) != 1 {
		t.Fatalf("expected one saved report, got %v", files)
	}

	out, err = runCmd(t, "report", results)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "Devices found: 1") || !strings.Contains(out, "Routers: 1") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestRunInvestigateRecordsDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Server", "GoAhead-Webs")
		fmt.Fprint(w, "<html><title>IP Camera</title><body>live video stream</body></html>")
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	results := filepath.Join(t.TempDir(), "results")

	if _, err := runCmd(t, "investigate", host, "-p", portStr, "-t", "1", "-o", results); err != nil {
		t.Fatalf("investigate failed: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(results, "device_investigation_"+host+"_*.json"))
	if len(files) != 1 {
		t.Fatalf("expected one investigation report, got %v", files)
	}
	rep, err := report.Load(files[0])
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	var found bool
	for _, d := range rep.Details {
		if d.Port != port {
			continue
		}
		found = true
		if d.Headers["Server"] != "GoAhead-Webs" || !strings.Contains(d.ContentPreview, "live video stream") {
			t.Fatalf("unexpected detail %+v", d)
		}
	}
	if !found {
		t.Fatalf("expected details for port %d, got %+v", port, rep.Details)
	}
}

func TestRunReportEmptyDir(t *testing.T) {
	if _, err := runCmd(t, "report", t.TempDir()); err == nil {
		t.Fatal("expected error for a directory without reports")
	}
}

func TestStatusLabel(t *testing.T) {
	cases := map[int]string{
		200: "[OK] ",
		401: "[LOCKED] ",
		403: "[LOCKED] ",
		404: "[ERROR] ",
		500: "[ERROR] ",
		302: "[INFO] ",
	}
	for code, want := range cases {
		if got := statusLabel(code); got != want {
			t.Fatalf("%d: expected %q, got %q", code, want, got)
		}
	}
}

func TestMergePorts(t *testing.T) {
	got := mergePorts([]int{80, 443}, []int{8080, 80, 81})
	if fmt.Sprint(got) != "[80 443 8080 81]" {
		t.Fatalf("unexpected ports %v", got)
	}
}
