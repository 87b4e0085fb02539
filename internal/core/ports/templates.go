package ports

// TemplateMismatch records one template pinning a burrow release other than
// the running one.
type TemplateMismatch struct {
	// Template is the template directory name.
	Template string
	// Declared is the version tag the template pins.
	Declared string
	// Expected is the running tool version.
	Expected string
}

// TemplateChecker verifies that every project template pins the current
// burrow release. All mismatches are collected before failing so one pass
// gives complete diagnostics.
//
//go:generate mockgen -source=templates.go -destination=mocks/mock_templates.go -package=mocks
type TemplateChecker interface {
	Check(templatesDir, currentVersion string) ([]TemplateMismatch, error)
}
