// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

func TestSetVerboseTogglesDebugOutput(t *testing.T) {
	t.Cleanup(func() {
		SetVerbose(false)
		L.SetOutput(os.Stderr)
	})

	var buf bytes.Buffer
	L.SetOutput(&buf)

	SetVerbose(false)
	if got := L.GetLevel(); got != clog.InfoLevel {
		t.Fatalf("level = %v, want info", got)
	}
	Debugf("suppressed %d", 1)
	if buf.Len() != 0 {
		t.Errorf("debug output written at info level: %q", buf.String())
	}

	SetVerbose(true)
	if got := L.GetLevel(); got != clog.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}
	Debugf("visible %d", 2)
	if !strings.Contains(buf.String(), "visible 2") {
		t.Errorf("debug output missing at debug level: %q", buf.String())
	}

	buf.Reset()
	Infof("hello %s", "fleet")
	if !strings.Contains(buf.String(), "hello fleet") {
		t.Errorf("info output missing: %q", buf.String())
	}
}
