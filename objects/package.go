package objects

import (
	"context"
	"errors"
	"fmt"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
	"github.com/robbyt/go-rbridge/rsyntax"
)

// PackageStatus is the outcome of checking an installed package against a minimum version.
type PackageStatus int

const (
	PackageMissing PackageStatus = iota
	PackageTooOld
	PackageOK
)

func (s PackageStatus) String() string {
	switch s {
	case PackageMissing:
		return "missing"
	case PackageTooOld:
		return "too old"
	case PackageOK:
		return "ok"
	default:
		return fmt.Sprintf("PackageStatus(%d)", int(s))
	}
}

// Submitter can also queue commands whose output belongs in the transcript.
type Submitter interface {
	Evaluator
	SubmitFireAndForget(cmd command.Command) error
}

// PackageDependency is an interpreter package required at MinimumVersion or later.
// Installer defaults to CRAN.
type PackageDependency struct {
	Name           string
	MinimumVersion string
	Installer      Installer
}

func (d PackageDependency) descriptionCommand(fields string) command.Command {
	return command.Invoke("packageDescription",
		command.Positional(rsyntax.String(d.Name)),
		command.Named("fields", fields),
	)
}

// InstalledVersion returns the installed version. ok is false when the package is not
// installed.
func (d PackageDependency) InstalledVersion(ctx context.Context, ev Evaluator) (version string, ok bool, err error) {
	result, err := evaluate(ctx, ev, d.descriptionCommand(rsyntax.String("Version")))
	if err != nil {
		return "", false, err
	}
	version, ok, err = asString(result)
	if err != nil || !ok || version == "NA" {
		return "", false, err
	}
	return version, true, nil
}

// Status compares the installed version with MinimumVersion.
func (d PackageDependency) Status(ctx context.Context, ev Evaluator) (PackageStatus, error) {
	installed, ok, err := d.InstalledVersion(ctx, ev)
	if err != nil {
		return PackageMissing, err
	}
	if !ok {
		return PackageMissing, nil
	}
	if CompareVersions(installed, d.MinimumVersion) >= 0 {
		return PackageOK, nil
	}
	return PackageTooOld, nil
}

// ShowVersionInfo queues a visible command printing the package name and version.
func (d PackageDependency) ShowVersionInfo(s Submitter) error {
	if s == nil {
		return ErrNilEvaluator
	}
	fields := rsyntax.StringVector([]string{"Package", "Version"})
	return s.SubmitFireAndForget(d.descriptionCommand(fields))
}

// Load attaches the package. The command is visible so it is recorded in the transcript.
func (d PackageDependency) Load(ctx context.Context, ev Evaluator) error {
	if ev == nil {
		return ErrNilEvaluator
	}
	cmd := command.Invoke("library", command.Positional(rsyntax.String(d.Name)))
	if _, err := ev.Evaluate(ctx, cmd); err != nil {
		if errors.Is(err, bridge.ErrEvaluation) {
			return fmt.Errorf("loading package %s: %w", d.Name, err)
		}
		return err
	}
	return nil
}
