// Package templates holds the templ layouts and components. Run go generate
// after editing a .templ file.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate -path .
