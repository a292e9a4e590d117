//go:build mage

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/billed"

// Generate runs go generate, which rebuilds the gomock mocks under
// internal/ports/mocks. Run it after changing a port interface.
func Generate() error {
	if _, err := exec.LookPath("mockgen"); err != nil {
		fmt.Println(">> mockgen not found; install with:")
		fmt.Println("   go install go.uber.org/mock/mockgen@latest")
		return err
	}
	fmt.Println(">> go generate ./...")
	return sh.Run("go", "generate", "./...")
}

// Build tidies deps, then compiles to ./bin/billed.
func Build() error {
	mg.Deps(Tidy)
	fmt.Println(">> Building server binary...")
	return sh.Run("go", "build", "-o", binary, "./cmd/server")
}

// Run builds then executes the binary.
func Run() error {
	mg.Deps(Build)
	fmt.Println(">> Starting server on :" + port() + " ...")
	return sh.Run("./" + binary)
}

// Dev starts the server via go run with debug logging.
func Dev() error {
	fmt.Println(">> Dev mode: go run ./cmd/server ...")
	cmd := exec.Command("go", "run", "./cmd/server")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "PORT="+port(), "LOG_LEVEL=debug")
	if os.Getenv("SESSION_SECRET") == "" {
		cmd.Env = append(cmd.Env, "SESSION_SECRET=dev-only-session-secret")
	}
	return cmd.Run()
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test runs all unit tests. Postgres tests run when TEST_DATABASE_URL is set.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "./...")
}

// Lint runs golangci-lint if available.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Clean removes build artifacts, the local SQLite DB and stored proofs.
func Clean() error {
	fmt.Println(">> Cleaning...")
	os.RemoveAll("bin")
	os.Remove("billed.db")
	dir := os.Getenv("PROOF_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return os.RemoveAll(dir)
}

// Install builds and installs the binary to $GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.Run("go", "install", "./cmd/server")
}

func port() string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return "8080"
}

func init() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
}
