// Command-line code generation for git-derived version information.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/blang/semver"
)

var (
	// Name of file to output with Go version code
	outputfile = flag.String("o", "", "")

	// Package of the generated file
	pkgName = flag.String("pkg", "main", "")

	// Display usage if true.
	showHelp = flag.Bool("help", false, "")
)

const helpMessage = `
gen-version calls git to generate Go code holding the source version of a seedseg build.

Usage: gen-version [options] -o version.go

      -pkg        =string   Package name of the generated file (default "main")
      -h, -help   (flag)    Show help message

`

const code = `package %s

func init() {
	gitVersion = %q
}
`

// versionID turns "git describe" output into a semantic version when the tag allows it,
// e.g., "v0.3.1-4-gab12c" becomes "0.3.1-4-gab12c".
func versionID(described string) string {
	described = strings.TrimSpace(described)
	v, err := semver.ParseTolerant(described)
	if err != nil {
		return described
	}
	return v.String()
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() {
		fmt.Printf(helpMessage)
	}
	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if len(*outputfile) < 4 {
		fmt.Printf("The %q is required for this program\n", "-o foo.go")
		os.Exit(1)
	}

	// Make sure we have git
	gitPath, err := exec.LookPath("git")
	if err != nil {
		fmt.Printf("Unable to find git command; alter PATH?\nError: %v\n", err)
		os.Exit(1)
	}

	cmd := exec.Command(gitPath, "describe", "--abbrev=5", "--tags")
	out, err := cmd.Output()
	if err != nil {
		out = []byte("notag")
	}

	goCode := fmt.Sprintf(code, *pkgName, versionID(string(out)))
	if err := os.WriteFile(*outputfile, []byte(goCode), 0644); err != nil {
		fmt.Printf("Error save go code: %v\n", err)
		os.Exit(1)
	}
}
