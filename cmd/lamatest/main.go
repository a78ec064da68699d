// lamatest is a golden-output test runner for lamac, grounded on
// xplshn-gbc/cmd/gtest's compile-run-compare shape but trimmed to a single
// compiler under test: each <name>.lama gets a sibling .<name>.lama.golden.json
// recording stdin/stdout pairs, hashed with xxhash so a stale golden file
// (recorded against different source) is flagged rather than silently
// trusted.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

type Case struct {
	Name   string `json:"name"`
	Stdin  string `json:"stdin"`
	Stdout string `json:"stdout"`
}

type Golden struct {
	SourceHash string `json:"source_hash"`
	Cases      []Case `json:"cases"`
}

var (
	compiler       = flag.String("compiler", "./lamac", "Path to the lamac binary under test.")
	testGlob       = flag.String("tests", "tests/*.lama", "Glob pattern for source files to test.")
	generateGolden = flag.String("generate-golden", "", "Compile and run <file> once, recording its output as the golden case 'default' with the given stdin (-stdin).")
	stdinFlag      = flag.String("stdin", "", "Stdin to feed when generating a golden file.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each compile or run.")
	verbose        = flag.Bool("v", false, "Print each case's actual output even on success.")
)

const (
	cRed   = "\x1b[91m"
	cGreen = "\x1b[92m"
	cCyan  = "\x1b[96m"
	cNone  = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	tempDir, err := os.MkdirTemp("", "lamatest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s could not create temp dir: %v", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)

	if *generateGolden != "" {
		if err := runGenerateGolden(*generateGolden, tempDir); err != nil {
			log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
		}
		return
	}

	if err := runSuite(tempDir); err != nil {
		log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
	}
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", xxhash.Sum64(content)), nil
}

func goldenPath(sourceFile string) string {
	return filepath.Join(filepath.Dir(sourceFile), "."+filepath.Base(sourceFile)+".golden.json")
}

func compile(source, binary, tempDir string) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, *compiler, "-o", binary, source)
	cmd.Dir = tempDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("compile failed: %w\n%s", err, out)
	}
	return nil
}

func runBinary(binary, stdin string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary)
	cmd.Stdin = strings.NewReader(stdin)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run failed: %w", err)
	}
	return out.String(), nil
}

func runGenerateGolden(source, tempDir string) error {
	binary := filepath.Join(tempDir, "a.out")
	if err := compile(source, binary, tempDir); err != nil {
		return err
	}
	stdout, err := runBinary(binary, *stdinFlag)
	if err != nil {
		return err
	}
	hash, err := hashFile(source)
	if err != nil {
		return err
	}
	g := Golden{SourceHash: hash, Cases: []Case{{Name: "default", Stdin: *stdinFlag, Stdout: stdout}}}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(goldenPath(source), data, 0o644); err != nil {
		return err
	}
	log.Printf("%s[OK]%s wrote %s", cGreen, cNone, goldenPath(source))
	return nil
}

func runSuite(tempDir string) error {
	sources, err := filepath.Glob(*testGlob)
	if err != nil {
		return err
	}
	sort.Strings(sources)

	failures := 0
	for _, source := range sources {
		status, msg := runOne(source, tempDir)
		switch status {
		case "PASS":
			fmt.Printf("%s[PASS]%s %s\n", cGreen, cNone, source)
		case "SKIP":
			fmt.Printf("%s[SKIP]%s %s: %s\n", cCyan, cNone, source, msg)
		default:
			failures++
			fmt.Printf("%s[FAIL]%s %s: %s\n", cRed, cNone, source, msg)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d test file(s) failed", failures)
	}
	return nil
}

func runOne(source, tempDir string) (status, message string) {
	gp := goldenPath(source)
	data, err := os.ReadFile(gp)
	if err != nil {
		return "SKIP", "no golden file (" + gp + ")"
	}
	var g Golden
	if err := json.Unmarshal(data, &g); err != nil {
		return "FAIL", fmt.Sprintf("malformed golden file: %v", err)
	}
	hash, err := hashFile(source)
	if err != nil {
		return "FAIL", err.Error()
	}
	if hash != g.SourceHash {
		return "SKIP", "golden file is stale (source hash mismatch); regenerate with -generate-golden"
	}

	binary := filepath.Join(tempDir, strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
	if err := compile(source, binary, tempDir); err != nil {
		return "FAIL", err.Error()
	}

	for _, c := range g.Cases {
		got, err := runBinary(binary, c.Stdin)
		if err != nil {
			return "FAIL", fmt.Sprintf("case %s: %v", c.Name, err)
		}
		if diff := cmp.Diff(c.Stdout, got); diff != "" {
			return "FAIL", fmt.Sprintf("case %s: output mismatch (-want +got):\n%s", c.Name, diff)
		}
		if *verbose {
			fmt.Printf("       case %s: %q\n", c.Name, got)
		}
	}
	return "PASS", ""
}
