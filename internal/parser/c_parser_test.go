package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCCodeParser_Parse(t *testing.T) {
	tmpDir := t.TempDir()
	cFile := filepath.Join(tmpDir, "buffer.c")
	cContent := `#include <stdlib.h>

#define MAX_BUFFER_SIZE 4096

struct Buffer {
	char *data;
	size_t len;
};

static int buffer_count = 0;

int buffer_init(struct Buffer *buf) {
	buf->data = NULL;
	buf->len = 0;
	return 0;
}

static void buffer_reset(struct Buffer *buf) {
	buf->len = 0;
}
`
	if err := os.WriteFile(cFile, []byte(cContent), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	p := NewCCodeParser(tmpDir)

	exts := p.SupportedExtensions()
	if len(exts) != 2 || exts[0] != ".c" {
		t.Errorf("expected [.c .h], got %v", exts)
	}
	if p.Language() != "c" {
		t.Errorf("expected 'c', got %s", p.Language())
	}

	content, _ := os.ReadFile(cFile)
	elements, err := p.Parse(cFile, content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var foundInit, foundReset, foundStruct, foundMacro, foundVar bool
	for _, elem := range elements {
		switch {
		case elem.Type == ElementFunction && elem.Name == "buffer_init":
			foundInit = true
			if elem.Visibility != VisibilityPublic {
				t.Error("buffer_init should be public")
			}
		case elem.Type == ElementFunction && elem.Name == "buffer_reset":
			foundReset = true
			if elem.Visibility != VisibilityPrivate {
				t.Error("static buffer_reset should be private")
			}
		case elem.Type == ElementStruct && elem.Name == "Buffer":
			foundStruct = true
		case elem.Type == ElementMacro && elem.Name == "MAX_BUFFER_SIZE":
			foundMacro = true
		case elem.Type == ElementVar && elem.Name == "buffer_count":
			foundVar = true
			if elem.Visibility != VisibilityPrivate {
				t.Error("static buffer_count should be private")
			}
		}
	}

	if !foundInit {
		t.Error("did not find buffer_init function")
	}
	if !foundReset {
		t.Error("did not find buffer_reset function")
	}
	if !foundStruct {
		t.Error("did not find Buffer struct")
	}
	if !foundMacro {
		t.Error("did not find MAX_BUFFER_SIZE macro")
	}
	if !foundVar {
		t.Error("did not find buffer_count variable")
	}
}
