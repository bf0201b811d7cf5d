package languages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/codechurn/pkg/languages"
)

func TestClassify_KnownExtensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"a.py", "python"},
		{"src/app/main.go", "go"},
		{"web/index.tsx", "typescript"},
		{"lib/util.JS", "javascript"},
		{"README.md", "markdown"},
		{"notes.TXT", "plain text"},
		{"engine/core.cpp", "c++"},
		{"Program.cs", "c#"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, languages.Classify(tt.path))
		})
	}
}

func TestClassify_UsesFinalExtensionSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "python", languages.Classify("pkg/module.test.py"))
	assert.Equal(t, "json", languages.Classify("archive.tar.json"))
}

func TestClassify_WellKnownFilenames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "makefile", languages.Classify("build/Makefile"))
	assert.Equal(t, "dockerfile", languages.Classify("Dockerfile"))
}

func TestClassify_UnknownIsTotal(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		".",
		"/",
		"no_extension_here",
		"weird.ext-that-nobody-uses",
		"trailing.dot.",
		"dir.with.dots/file",
		"\x00binary\xff",
	}

	for _, in := range inputs {
		assert.NotPanics(t, func() { languages.Classify(in) })
		assert.NotEmpty(t, languages.Classify(in))
	}

	assert.Equal(t, languages.Unknown, languages.Classify("no_extension_here"))
	assert.Equal(t, languages.Unknown, languages.Classify("weird.ext-that-nobody-uses"))
	assert.Equal(t, languages.Unknown, languages.Classify(""))
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	paths := []string{"a.py", "b.md", "Makefile", "x.unknownext", "c/d/e.rs"}

	for _, p := range paths {
		first := languages.Classify(p)
		for range 10 {
			assert.Equal(t, first, languages.Classify(p))
		}
	}
}
