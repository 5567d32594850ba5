package config

import (
	"testing"
	"time"

	"creatorhoop/internal/platform/testkit"
)

func TestPrefixComposes(t *testing.T) {
	t.Setenv("APP_SUB_KEY", "v")

	cfg := New().Prefix("APP_").Prefix("SUB_")
	if got := cfg.MayString("KEY", ""); got != "v" {
		t.Fatalf("MayString = %q", got)
	}
}

func TestMustStringPanicsOnMissing(t *testing.T) {
	testkit.MustPanic(t, func() {
		New().Prefix("NOPE_").MustString("ABSENT")
	})
}

func TestMayDefaults(t *testing.T) {
	cfg := New().Prefix("CFGTEST_")

	if got := cfg.MayString("S", "fallback"); got != "fallback" {
		t.Fatalf("MayString = %q", got)
	}
	if got := cfg.MayInt("I", 42); got != 42 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := cfg.MayBool("B", true); !got {
		t.Fatal("MayBool default lost")
	}
	if got := cfg.MayDuration("D", 2*time.Second); got != 2*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
}

func TestMayInvalidFallsBack(t *testing.T) {
	t.Setenv("CFGTEST_I", "not-a-number")
	t.Setenv("CFGTEST_B", "not-a-bool")
	t.Setenv("CFGTEST_D", "soon")

	cfg := New().Prefix("CFGTEST_")
	if got := cfg.MayInt("I", 7); got != 7 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := cfg.MayBool("B", false); got {
		t.Fatal("MayBool accepted garbage")
	}
	if got := cfg.MayDuration("D", time.Minute); got != time.Minute {
		t.Fatalf("MayDuration = %v", got)
	}
}

func TestMayCSV(t *testing.T) {
	t.Setenv("CFGTEST_ORIGINS", " a.example.com , ,b.example.com ")

	cfg := New().Prefix("CFGTEST_")
	got := cfg.MayCSV("ORIGINS", nil)
	if len(got) != 2 || got[0] != "a.example.com" || got[1] != "b.example.com" {
		t.Fatalf("MayCSV = %v", got)
	}

	if def := cfg.MayCSV("EMPTY", []string{"*"}); len(def) != 1 || def[0] != "*" {
		t.Fatalf("MayCSV default = %v", def)
	}
}
