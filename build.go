// build.go - Insight Report build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, processor, test, clean, release

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const module = "insightreport"

var (
	distDir = "dist"

	// Executables (key = cmd directory, value = output name)
	executables = map[string]string{
		"web":       "insight-web",
		"processor": "insight-processor",
	}

	// Release platforms as GOOS/GOARCH
	platforms = []string{"linux/amd64", "linux/arm64", "darwin/arm64", "windows/amd64"}

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if runtime.GOOS == "windows" {
		colorReset, colorRed, colorGreen, colorBlue, colorCyan = "", "", "", "", ""
	}

	printHeader()
	startTime := time.Now()

	var err error
	switch *target {
	case "all":
		err = buildAll(*verbose)
	case "web", "processor":
		err = buildExecutable(*target, runtime.GOOS, runtime.GOARCH, *verbose)
	case "test":
		err = runTests(*verbose)
	case "clean":
		err = clean()
	case "release":
		err = buildRelease(*verbose)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "      Insight Report - Build System        " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func buildAll(verbose bool) error {
	printInfo("Building all components...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", distDir, err)
	}
	for name := range executables {
		if err := buildExecutable(name, runtime.GOOS, runtime.GOARCH, verbose); err != nil {
			return err
		}
	}
	return nil
}

func buildRelease(verbose bool) error {
	printInfo("Building release binaries...")
	if err := runTests(verbose); err != nil {
		return err
	}
	for _, p := range platforms {
		goos, goarch, _ := strings.Cut(p, "/")
		for name := range executables {
			if err := buildExecutable(name, goos, goarch, verbose); err != nil {
				return err
			}
		}
	}
	return nil
}

// ldflags stamps the version variables in pkg/contracts
func ldflags() string {
	commit := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		commit = strings.TrimSpace(string(out))
	}
	return fmt.Sprintf("-s -w -X %[1]s/pkg/contracts.BuildTime=%[2]s -X %[1]s/pkg/contracts.GitCommit=%[3]s",
		module, time.Now().UTC().Format(time.RFC3339), commit)
}

func buildExecutable(name, goos, goarch string, verbose bool) error {
	exeName, ok := executables[name]
	if !ok {
		return fmt.Errorf("unknown executable: %s", name)
	}

	out := exeName
	if goos != runtime.GOOS || goarch != runtime.GOARCH {
		out = fmt.Sprintf("%s-%s-%s", exeName, goos, goarch)
	}
	if goos == "windows" {
		out += ".exe"
	}
	outputPath := filepath.Join(distDir, out)

	printInfo(fmt.Sprintf("Building %s for %s/%s...", name, goos, goarch))

	args := []string{"build", "-trimpath", "-ldflags", ldflags(), "-o", outputPath, "./cmd/" + name}
	if verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
	}

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+goos, "GOARCH="+goarch, "CGO_ENABLED=0")
	if verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", out, float64(info.Size())/1024/1024))
	}
	return nil
}

func runTests(verbose bool) error {
	printInfo("Running tests...")
	args := []string{"test", "-race", "./..."}
	if verbose {
		args = append(args, "-v")
	}
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}
	return nil
}

func clean() error {
	printInfo("Cleaning build artifacts...")
	for _, dir := range []string{distDir, "logs"} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}
	return nil
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all        Build web and processor for this platform (default)")
	fmt.Println("  web        Build the HTTP server")
	fmt.Println("  processor  Build the batch CLI")
	fmt.Println("  test       Run go test -race ./...")
	fmt.Println("  clean      Remove dist/ and logs/")
	fmt.Println("  release    Test, then cross-compile every target")
}
