package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/KaramelBytes/catprofile/internal/profile"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ReportDir != "report" || c.CatLimit != 20 || c.ServeAddr != ":8080" || c.AutoPrepareDefault || !c.AutoPrepareInteractive {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestSaveLoadRoundTripAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &Global{ReportDir: "out", CatLimit: 7, MissingValues: []string{"?", "--"}, Workers: 2, ServeAddr: ":9090"}
	if err := Save(in, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	t.Setenv("CATPROFILE_REPORT_DIR", "from-env")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ReportDir != "from-env" || c.CatLimit != 7 || c.Workers != 2 || !reflect.DeepEqual(c.MissingValues, []string{"?", "--"}) {
		t.Fatalf("loaded = %+v", c)
	}
}

func TestOptionsPerMode(t *testing.T) {
	c := &Global{CatLimit: 5, AutoPrepareDefault: true, AutoPrepareInteractive: false, MissingValues: []string{"?"}}
	d := c.Options(profile.ModeDefault)
	i := c.Options(profile.ModeInteractive)
	if !d.AutoPrepare || i.AutoPrepare || d.CatLimit != 5 || i.Mode != profile.ModeInteractive || d.MissingValues[0] != "?" {
		t.Fatalf("options = %+v / %+v", d, i)
	}
}
