// Package templates verifies that the flake templates shipped with the
// project pin the version of burrow that generated them. A template pinning
// a stale tag produces projects whose generated expressions drift from what
// the current converter emits.
package templates

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/burrow/internal/core/ports"
	"go.trai.ch/zerr"
)

// tagPattern matches the burrow flake input pin inside a template,
// e.g. "github:trai/burrow?tag=v3.1.0".
var tagPattern = regexp.MustCompile(`burrow\?tag=v([0-9A-Za-z.\-+]+)`)

// Checker implements ports.TemplateChecker.
type Checker struct {
	logger ports.Logger
}

// NewChecker creates a new Checker.
func NewChecker(logger ports.Logger) *Checker {
	return &Checker{logger: logger}
}

// Check scans every <templatesDir>/*/flake.nix for burrow tag pins and
// returns one mismatch per template whose pinned version differs from
// currentVersion, or that carries no pin at all. All templates are checked;
// the scan never stops at the first mismatch.
func (c *Checker) Check(templatesDir, currentVersion string) ([]ports.TemplateMismatch, error) {
	expected := strings.TrimPrefix(currentVersion, "v")

	flakes, err := filepath.Glob(filepath.Join(templatesDir, "*", "flake.nix"))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTemplateScanFailed.Error())
	}
	if len(flakes) == 0 {
		err := zerr.With(domain.ErrTemplateScanFailed, "dir", templatesDir)
		return nil, zerr.With(err, "reason", "no templates found")
	}

	var mismatches []ports.TemplateMismatch
	for _, flake := range flakes {
		// #nosec G304 -- flake paths come from the glob above
		data, readErr := os.ReadFile(flake)
		if readErr != nil {
			return nil, zerr.Wrap(readErr, domain.ErrTemplateScanFailed.Error())
		}

		name := filepath.Base(filepath.Dir(flake))
		matches := tagPattern.FindAllSubmatch(data, -1)
		if len(matches) == 0 {
			// A template without any pin at all is reported, not skipped.
			mismatches = append(mismatches, ports.TemplateMismatch{
				Template: name,
				Declared: "none",
				Expected: expected,
			})
			continue
		}
		for _, match := range matches {
			declared := string(match[1])
			if declared == expected {
				continue
			}
			mismatches = append(mismatches, ports.TemplateMismatch{
				Template: name,
				Declared: declared,
				Expected: expected,
			})
		}
	}

	return mismatches, nil
}
