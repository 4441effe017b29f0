package config

import (
	"testing"
	"time"

	kit "garden/internal/platform/testkit"
)

func TestPrefix(t *testing.T) {
	c := New().Prefix("CORE_").Prefix("MESSAGES_")
	if got := c.key("TABLE"); got != "CORE_MESSAGES_TABLE" {
		t.Fatalf("key = %q", got)
	}
}

func TestMay(t *testing.T) {
	c := New().Prefix("GARDEN_T_")
	t.Setenv("GARDEN_T_NAME", "  garden6 ")
	t.Setenv("GARDEN_T_BATCH", "250")
	t.Setenv("GARDEN_T_BAD_INT", "many")
	t.Setenv("GARDEN_T_DRY", "true")
	t.Setenv("GARDEN_T_GRACE", "3s")
	t.Setenv("GARDEN_T_BLANK", "   ")

	if got := c.MayString("NAME", "x"); got != "garden6" {
		t.Errorf("MayString = %q", got)
	}
	if got := c.MayString("BLANK", "def"); got != "def" {
		t.Errorf("blank = %q", got)
	}
	if got := c.MayInt("BATCH", 1); got != 250 {
		t.Errorf("MayInt = %d", got)
	}
	if got := c.MayInt("BAD_INT", 7); got != 7 {
		t.Errorf("bad int = %d", got)
	}
	if !c.MayBool("DRY", false) || c.MayBool("MISSING", false) {
		t.Error("MayBool")
	}
	if got := c.MayDuration("GRACE", time.Second); got != 3*time.Second {
		t.Errorf("MayDuration = %v", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("GARDEN_T_")
	t.Setenv("GARDEN_T_ORIGINS", " https://a.example , ,https://b.example")
	got := c.MayCSV("ORIGINS", nil)
	if len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("MayCSV = %v", got)
	}
	t.Setenv("GARDEN_T_EMPTY", " , ")
	if got := c.MayCSV("EMPTY", []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Fatalf("fallback = %v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("GARDEN_T_")
	if got := c.MayEnum("BACKEND", "pg", "pg", "mongo"); got != "pg" {
		t.Fatalf("default = %q", got)
	}
	t.Setenv("GARDEN_T_BACKEND", "Mongo")
	if got := c.MayEnum("BACKEND", "pg", "pg", "mongo"); got != "mongo" {
		t.Fatalf("case fold = %q", got)
	}
	t.Setenv("GARDEN_T_BACKEND", "sqlite")
	kit.MustPanic(t, func() { _ = c.MayEnum("BACKEND", "pg", "pg", "mongo") })
}
