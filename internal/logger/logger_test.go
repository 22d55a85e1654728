package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withCapturedOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestVerboseToggle(t *testing.T) {
	withCapturedOutput(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels_FormatAndPrefix(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(true)

	Debug("listed %d documents", 7)
	Info("source %s up to date", "wiki")
	Warn("skipping %s", "broken.md")

	assert.Equal(t,
		"[DEBUG] listed 7 documents\n[INFO] source wiki up to date\n[WARN] skipping broken.md\n",
		buf.String())
}

func TestQuietByDefault(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(false)

	Debug("never shown")
	Info("never shown")
	Warn("never shown")
	Section("never shown")

	assert.Zero(t, buf.Len())
}

func TestSectionHeader(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(true)

	Section("Ingesting wiki")

	assert.Equal(t, "\n=== Ingesting wiki ===\n", buf.String())
}

func TestSectionfHeader(t *testing.T) {
	buf := withCapturedOutput(t)
	SetVerbose(true)

	Sectionf("Ingesting %s (%s)", "Team wiki", "notion")

	assert.Equal(t, "\n=== Ingesting Team wiki (notion) ===\n", buf.String())
}

func TestConcurrentToggleAndLog(t *testing.T) {
	withCapturedOutput(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("worker %d", id)
			IsVerbose()
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
}
