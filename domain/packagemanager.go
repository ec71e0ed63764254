package domain

import (
	"errors"
	"fmt"
)

// PackageManager identifies the update capability responsible for one
// package ecosystem. It is a closed enum: only the values produced by
// ParsePackageManager exist.
type PackageManager string

const (
	NpmAndYarn PackageManager = "npm_and_yarn"
	Bundler    PackageManager = "bundler"
	Composer   PackageManager = "composer"
	Pip        PackageManager = "pip"
	GoModules  PackageManager = "go_modules"
	Dep        PackageManager = "dep"
	Maven      PackageManager = "maven"
	Gradle     PackageManager = "gradle"
	NuGet      PackageManager = "nuget"
	Cargo      PackageManager = "cargo"
	Hex        PackageManager = "hex"
	Docker     PackageManager = "docker"
	Terraform  PackageManager = "terraform"
	Submodules PackageManager = "submodules"
	Elm        PackageManager = "elm"
)

var ErrUnsupportedPackageManager = errors.New("unsupported package manager")

// packageManagers maps the raw config-file values to ecosystem identifiers.
var packageManagers = map[string]PackageManager{
	"javascript":   NpmAndYarn,
	"ruby:bundler": Bundler,
	"php:composer": Composer,
	"python":       Pip,
	"go:modules":   GoModules,
	"go:dep":       Dep,
	"java:maven":   Maven,
	"java:gradle":  Gradle,
	"dotnet:nuget": NuGet,
	"rust:cargo":   Cargo,
	"elixir:hex":   Hex,
	"docker":       Docker,
	"terraform":    Terraform,
	"submodules":   Submodules,
	"elm":          Elm,
}

// ParsePackageManager maps a raw package_manager value from the update
// configuration to its ecosystem identifier.
func ParsePackageManager(raw string) (PackageManager, error) {
	pm, ok := packageManagers[raw]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPackageManager, raw)
	}
	return pm, nil
}
