package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestStoreAndGetAppContext(t *testing.T) {
	original := globalAppContext
	defer func() {
		globalAppContext = original
	}()

	cmd := &cobra.Command{Use: "root"}
	appCtx := &AppContext{Config: newCLIConfig()}

	storeAppContext(cmd, appCtx)

	got := getAppContext(cmd)
	if got != appCtx {
		t.Fatalf("expected stored app context to be returned")
	}

	other := &cobra.Command{Use: "other"}
	if getAppContext(other) != appCtx {
		t.Fatalf("expected commands without a context to fall back to the global app context")
	}
}

func TestAppContextLoggerDefaults(t *testing.T) {
	var appCtx *AppContext
	if appCtx.logger() == nil {
		t.Fatal("expected a no-op logger for a nil app context")
	}
	if (&AppContext{}).logger() == nil {
		t.Fatal("expected a no-op logger when none is set")
	}
}
