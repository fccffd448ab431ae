package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBashCodeParser_Parse(t *testing.T) {
	tmpDir := t.TempDir()
	shFile := filepath.Join(tmpDir, "deploy.sh")
	shContent := `#!/usr/bin/env bash

export BUILD_DIR=/tmp/build

deploy() {
	echo "deploying from $BUILD_DIR"
}

cleanup() {
	rm -rf "$BUILD_DIR"
}
`
	if err := os.WriteFile(shFile, []byte(shContent), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	p := NewBashCodeParser(tmpDir)

	exts := p.SupportedExtensions()
	if len(exts) != 2 || exts[0] != ".sh" {
		t.Errorf("expected [.sh .bash], got %v", exts)
	}
	if p.Language() != "sh" {
		t.Errorf("expected 'sh', got %s", p.Language())
	}

	content, _ := os.ReadFile(shFile)
	elements, err := p.Parse(shFile, content)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var foundDeploy, foundCleanup, foundVar bool
	for _, elem := range elements {
		switch {
		case elem.Type == ElementFunction && elem.Name == "deploy":
			foundDeploy = true
		case elem.Type == ElementFunction && elem.Name == "cleanup":
			foundCleanup = true
		case elem.Type == ElementVar && elem.Name == "BUILD_DIR":
			foundVar = true
			if elem.Visibility != VisibilityPublic {
				t.Error("exported variable should be public")
			}
		}
	}

	if !foundDeploy {
		t.Error("did not find deploy function")
	}
	if !foundCleanup {
		t.Error("did not find cleanup function")
	}
	if !foundVar {
		t.Error("did not find BUILD_DIR variable")
	}
}
