package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const exampleBody = `{"Age":25,"Gender":"Female","Marital Status":"Single","Occupation":"Student",
"Monthly Income":"No Income","Educational Qualifications":"Graduate","Family size":3,
"latitude":12.977,"longitude":77.5773,"Pin code":560009,"Output":"Yes"}`

var artifacts = filepath.Join("..", "..", "models")

func runCLI(stdin string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunFromStdin(t *testing.T) {
	code, stdout, stderr := runCLI(exampleBody, "-artifacts", artifacts)
	assert.Equal(t, exitOK, code, stderr)
	assert.Equal(t, "Positive\n", stdout)
}

func TestRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	body := strings.Replace(exampleBody, `"Output":"Yes"`, `"Output":"No"`, 1)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := runCLI("", "-artifacts", artifacts, "-input", path)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Negative\n", stdout)
}

func TestRunStrictDomain(t *testing.T) {
	body := strings.Replace(exampleBody, `"Age":25`, `"Age":12`, 1)

	code, _, stderr := runCLI(body, "-artifacts", artifacts)
	assert.Equal(t, exitInputError, code)
	assert.Contains(t, stderr, "Age")

	code, stdout, _ := runCLI(body, "-artifacts", artifacts, "-strict=false")
	assert.Equal(t, exitOK, code)
	assert.NotEmpty(t, stdout)
}

func TestRunErrors(t *testing.T) {
	code, _, _ := runCLI(`{"Age":`, "-artifacts", artifacts)
	assert.Equal(t, exitInputError, code)

	code, _, stderr := runCLI(exampleBody, "-artifacts", t.TempDir())
	assert.Equal(t, exitUnavailable, code)
	assert.Contains(t, stderr, "not loaded")

	code, _, _ = runCLI("", "-artifacts", artifacts, "-input", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, exitInputError, code)

	code, _, stderr = runCLI(`{"Age":`, "-artifacts", t.TempDir())
	assert.Equal(t, exitUnavailable, code)
	assert.Contains(t, stderr, "not loaded")

	code, _, _ = runCLI("", "-unknown-flag")
	assert.Equal(t, exitInputError, code)
}
